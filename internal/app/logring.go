package app

import (
	"time"

	"github.com/bft-labs/geoship/internal/domain"
)

// LogRingCapacity is the number of status lines kept for late subscribers.
const LogRingCapacity = 15

// LogRing keeps the most recent status lines in chronological order.
// It is owned by the tracker loop and is not safe for concurrent use.
type LogRing struct {
	entries  []domain.LogEntry
	capacity int
	now      func() time.Time
}

// NewLogRing returns an empty ring. A non-positive capacity selects
// LogRingCapacity.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = LogRingCapacity
	}
	return &LogRing{
		entries:  make([]domain.LogEntry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Append stamps text with the current time and adds it, evicting the
// oldest entry when the ring is full.
func (r *LogRing) Append(text string) domain.LogEntry {
	e := domain.LogEntry{Timestamp: r.now(), Text: text}
	if len(r.entries) == r.capacity {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:r.capacity-1]
	}
	r.entries = append(r.entries, e)
	return e
}

// Snapshot returns a copy of the entries, oldest first.
func (r *LogRing) Snapshot() []domain.LogEntry {
	out := make([]domain.LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *LogRing) Len() int { return len(r.entries) }

func (r *LogRing) Cap() int { return r.capacity }
