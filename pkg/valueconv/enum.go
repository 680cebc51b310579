package valueconv

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/pascaldekloe/name"
)

// Enum is implemented by enumerations that can list their members. Values is
// usually a one-line method over the XValues function generated by enumer.
type Enum[T any] interface {
	comparable
	fmt.Stringer
	Values() []T
}

// UnknownEnumError is returned when a stored token matches no member.
type UnknownEnumError struct {
	Type  string
	Token string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("%q is not a valid %s", e.Token, e.Type)
}

// SnakeCase converts a member spelling such as "HostFactory" to "host_factory".
func SnakeCase(s string) string {
	return name.SnakeCase(s)
}

// PascalCase converts a stored token such as "host_factory" to "HostFactory".
func PascalCase(s string) string {
	return name.CamelCase(s, true)
}

// ParseEnum maps a snake_case token back to the member of T it was written from.
func ParseEnum[T Enum[T]](token string) (T, error) {
	var zero T
	token = strings.TrimSpace(token)
	pascal := PascalCase(token)
	for _, v := range zero.Values() {
		s := v.String()
		if SnakeCase(s) == token || s == pascal {
			return v, nil
		}
	}
	return zero, &UnknownEnumError{Type: fmt.Sprintf("%T", zero), Token: token}
}

// EnumText stores an enumeration as a snake_case text column.
type EnumText[T Enum[T]] struct {
	Val T
}

// NewEnumText wraps v.
func NewEnumText[T Enum[T]](v T) EnumText[T] {
	return EnumText[T]{Val: v}
}

func (e EnumText[T]) Value() (driver.Value, error) {
	return SnakeCase(e.Val.String()), nil
}

func (e *EnumText[T]) Scan(src any) error {
	token, ok, err := scanText(src)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cannot scan NULL into %T", e.Val)
	}
	v, err := ParseEnum[T](token)
	if err != nil {
		return err
	}
	e.Val = v
	return nil
}

func (EnumText[T]) GormDataType() string {
	return "text"
}

// NullEnumText is EnumText for nullable columns. NULL and blank tokens read
// as invalid; an invalid value is written as NULL.
type NullEnumText[T Enum[T]] struct {
	Val   T
	Valid bool
}

// NewNullEnumText wraps v as a valid value.
func NewNullEnumText[T Enum[T]](v T) NullEnumText[T] {
	return NullEnumText[T]{Val: v, Valid: true}
}

func (e NullEnumText[T]) Value() (driver.Value, error) {
	if !e.Valid {
		return nil, nil
	}
	return SnakeCase(e.Val.String()), nil
}

func (e *NullEnumText[T]) Scan(src any) error {
	var zero T
	token, ok, err := scanText(src)
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(token) == "" {
		e.Val, e.Valid = zero, false
		return nil
	}
	v, err := ParseEnum[T](token)
	if err != nil {
		return err
	}
	e.Val, e.Valid = v, true
	return nil
}

func (NullEnumText[T]) GormDataType() string {
	return "text"
}

func scanText(src any) (string, bool, error) {
	switch v := src.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	default:
		return "", false, fmt.Errorf("unsupported enum source type %T", src)
	}
}
