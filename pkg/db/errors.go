package db

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// DataModelError reports a problem with the data model, such as a model type
// gorm cannot map.
type DataModelError struct {
	Message string
	Err     error
}

func (e *DataModelError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DataModelError) Unwrap() error { return e.Err }

// ObjectNotFoundError is returned when no row matches a lookup. It matches
// gorm.ErrRecordNotFound with errors.Is.
type ObjectNotFoundError struct {
	// Set is the table that was searched.
	Set              string
	ID               any
	SearchProperties map[string]string
}

func (e *ObjectNotFoundError) Error() string {
	if e.SearchProperties == nil {
		return fmt.Sprintf("Object with id '%v' hasn't found in '%s' set.", e.ID, e.Set)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Can't find object in '%s' by properties: ", e.Set))
	if len(e.SearchProperties) == 0 {
		sb.WriteString("collection of properties is empty")
		return sb.String()
	}
	names := make([]string, 0, len(e.SearchProperties))
	for name := range e.SearchProperties {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("'%s'='%s'", name, e.SearchProperties[name]))
	}
	return sb.String()
}

func (e *ObjectNotFoundError) Unwrap() error { return gorm.ErrRecordNotFound }
