package model

import (
	"encoding/json"
	"time"
)

// TimestampLayout is ISO 8601 with a numeric offset.  Unlike time.RFC3339 it
// renders UTC as "+00:00" instead of "Z".
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Reading is one row of the baby_monitor log written by the ingester.
// The service only ever reads these rows.
//
// Fields:
//
//	ID         – baby_monitor.id, monotonically increasing.
//	Temp       – temperature sensor value, nil when NULL.
//	Hum        – humidity sensor value, nil when NULL.
//	Dist       – distance sensor value, nil when NULL.
//	Relay      – relay flag, passed through as stored.
//	Motion     – motion flag, passed through as stored.
//	Vibrate    – vibration flag, passed through as stored.
//	Status     – device status, passed through as stored.
//	Safety     – safety state, passed through as stored.
//	Mode       – operating mode, passed through as stored.
//	Timestamp  – when the ingester recorded the row.
type Reading struct {
	ID        int64     `json:"id"`
	Temp      *float64  `json:"temp"`
	Hum       *float64  `json:"hum"`
	Dist      *float64  `json:"dist"`
	Relay     Scalar    `json:"relay"`
	Motion    Scalar    `json:"motion"`
	Vibrate   Scalar    `json:"vibrate"`
	Status    Scalar    `json:"status"`
	Safety    Scalar    `json:"safety"`
	Mode      Scalar    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON renders Timestamp with TimestampLayout in its own location.
func (r Reading) MarshalJSON() ([]byte, error) {
	type alias Reading
	return json.Marshal(&struct {
		alias
		Timestamp string `json:"timestamp"`
	}{
		alias:     alias(r),
		Timestamp: r.Timestamp.Format(TimestampLayout),
	})
}
