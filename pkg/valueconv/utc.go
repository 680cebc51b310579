package valueconv

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"
)

// UTCTime is a timestamp normalized to UTC on both write and read.
type UTCTime struct {
	time.Time
}

// NewUTCTime converts t to UTC.
func NewUTCTime(t time.Time) UTCTime {
	return UTCTime{Time: t.UTC()}
}

func (t UTCTime) Value() (driver.Value, error) {
	return t.Time.UTC(), nil
}

func (t *UTCTime) Scan(src any) error {
	if src == nil {
		return fmt.Errorf("cannot scan NULL into UTCTime")
	}
	var nt sql.NullTime
	if err := nt.Scan(src); err != nil {
		return err
	}
	t.Time = nt.Time.UTC()
	return nil
}

func (UTCTime) GormDataType() string {
	return "timestamptz"
}

// NullUTCTime is UTCTime for nullable columns; an invalid value passes
// through as NULL in both directions.
type NullUTCTime struct {
	Time  time.Time
	Valid bool
}

// NewNullUTCTime converts t to UTC and marks it valid.
func NewNullUTCTime(t time.Time) NullUTCTime {
	return NullUTCTime{Time: t.UTC(), Valid: true}
}

func (t NullUTCTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC(), nil
}

func (t *NullUTCTime) Scan(src any) error {
	var nt sql.NullTime
	if err := nt.Scan(src); err != nil {
		return err
	}
	t.Valid = nt.Valid
	t.Time = time.Time{}
	if nt.Valid {
		t.Time = nt.Time.UTC()
	}
	return nil
}

func (NullUTCTime) GormDataType() string {
	return "timestamptz"
}
