package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire and storage format for timestamps:
// ISO-8601 local time with second precision, no zone suffix.
const DateTimeLayout = "2006-01-02T15:04:05"

// DateTime wraps time.Time to serialize with second precision and without
// a timezone, both in JSON and in the database.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{t.Truncate(time.Second)}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateTimeLayout) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateTimeLayout, raw)
	if err != nil {
		return fmt.Errorf("parse datetime %q: %w", raw, err)
	}
	d.Time = t
	return nil
}

// Value stores the timestamp as its layout string so that lexicographic
// comparison in SQL matches chronological order.
func (d DateTime) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateTimeLayout), nil
}

func (d *DateTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = v.Truncate(time.Second)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into DateTime", src)
	}
}

func (d *DateTime) parse(raw string) error {
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateTimeLayout, raw)
	if err != nil {
		// Older drivers may hand back a full RFC3339 string.
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parse datetime %q: %w", raw, err)
		}
	}
	d.Time = t.Truncate(time.Second)
	return nil
}
