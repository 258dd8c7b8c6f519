package repository

import (
	"fmt"
	"time"
)

// textLayouts are tried in order for timestamps stored as text.  Fractional
// seconds are accepted by every layout.
var textLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// storedTime receives the timestamp column.  Depending on the driver and the
// column type it arrives as time.Time, []byte or string.
type storedTime struct {
	t     time.Time
	raw   string
	isRaw bool
	valid bool
}

func (s *storedTime) Scan(src any) error {
	*s = storedTime{}
	switch v := src.(type) {
	case nil:
	case time.Time:
		s.t, s.valid = v, true
	case []byte:
		s.raw, s.isRaw, s.valid = string(v), true, true
	case string:
		s.raw, s.isRaw, s.valid = v, true, true
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

// resolve returns the point in time expressed in loc.  Driver times that
// carry UTC are DATETIME or timestamp-without-zone values, so their wall
// clock is read in loc; zoned values are converted to loc.
func (s storedTime) resolve(loc *time.Location) (time.Time, error) {
	if !s.valid {
		return time.Time{}, fmt.Errorf("timestamp is NULL")
	}
	if !s.isRaw {
		// parseTime maps MySQL's 0000-00-00 00:00:00 to the zero time
		if s.t.IsZero() {
			return time.Time{}, fmt.Errorf("zero datetime")
		}
		if s.t.Location() == time.UTC {
			return wallClockIn(s.t, loc), nil
		}
		return s.t.In(loc), nil
	}
	return parseStoredTimestamp(s.raw, loc)
}

func (s storedTime) String() string {
	if s.isRaw {
		return s.raw
	}
	if s.valid {
		return s.t.String()
	}
	return "NULL"
}

func parseStoredTimestamp(raw string, loc *time.Location) (time.Time, error) {
	var firstErr error
	for _, layout := range textLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.In(loc), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func wallClockIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
