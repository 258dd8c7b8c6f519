// Package queue defines message payloads exchanged over the message broker.
package queue

// ReadingsAppendedEvent is published by the ingester after it writes new rows
// to baby_monitor.  The readings service only needs to know that the tail of
// the log moved; the fields are logged for tracing.
type ReadingsAppendedEvent struct {
	LatestID   int64  `json:"latest_id"`
	Count      int    `json:"count"`
	AppendedAt string `json:"appended_at"`
}
