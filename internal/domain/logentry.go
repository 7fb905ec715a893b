package domain

import "time"

// LogEntry is one status line. Entries are immutable once appended.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
	Text      string    `json:"text" cbor:"text"`
}
