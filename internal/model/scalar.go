package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Scalar holds a column value whose type the ingester owns.  It keeps
// whatever the driver produced so the JSON output mirrors storage: integers
// and floats stay numbers, text stays a string, NULL becomes null.
type Scalar struct {
	v any
}

// NewScalar wraps v.  Byte slices are copied into strings.
func NewScalar(v any) Scalar {
	var s Scalar
	_ = s.Scan(v)
	return s
}

// Value returns the wrapped value (nil for NULL).
func (s Scalar) Value() any { return s.v }

// Scan implements sql.Scanner.
func (s *Scalar) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.v = nil
	case []byte:
		// the driver reuses the buffer after Scan returns
		s.v = string(v)
	case string, int64, uint64, float64, bool:
		s.v = v
	case float32:
		// keep the shortest decimal form so FLOAT 1.1 stays 1.1
		f, err := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
		if err != nil {
			return fmt.Errorf("model: scalar float32 %v: %w", v, err)
		}
		s.v = f
	case int:
		s.v = int64(v)
	case int8:
		s.v = int64(v)
	case int16:
		s.v = int64(v)
	case int32:
		s.v = int64(v)
	case uint:
		s.v = uint64(v)
	case uint8:
		s.v = uint64(v)
	case uint16:
		s.v = uint64(v)
	case uint32:
		s.v = uint64(v)
	case time.Time:
		s.v = v.Format(TimestampLayout)
	default:
		s.v = fmt.Sprint(v)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.v)
}
