package app

import (
	"fmt"
	"testing"
	"time"
)

func TestLogRing_AppendAndEvict(t *testing.T) {
	tests := []struct {
		name      string
		appends   int
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{"empty", 0, 0, "", ""},
		{"one", 1, 1, "line 0", "line 0"},
		{"exactly full", LogRingCapacity, LogRingCapacity, "line 0", "line 14"},
		{"one over", LogRingCapacity + 1, LogRingCapacity, "line 1", "line 15"},
		{"many over", 40, LogRingCapacity, "line 25", "line 39"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLogRing(0)
			for i := 0; i < tt.appends; i++ {
				r.Append(fmt.Sprintf("line %d", i))
			}

			snap := r.Snapshot()
			if len(snap) != tt.wantLen || r.Len() != tt.wantLen {
				t.Fatalf("len = %d (Len %d), want %d", len(snap), r.Len(), tt.wantLen)
			}
			if tt.wantLen == 0 {
				return
			}
			if snap[0].Text != tt.wantFirst {
				t.Errorf("first = %q, want %q", snap[0].Text, tt.wantFirst)
			}
			if snap[len(snap)-1].Text != tt.wantLast {
				t.Errorf("last = %q, want %q", snap[len(snap)-1].Text, tt.wantLast)
			}
		})
	}
}

func TestLogRing_Timestamps(t *testing.T) {
	r := NewLogRing(3)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}

	e := r.Append("a")
	r.Append("b")

	if !e.Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, base.Add(time.Second))
	}
	snap := r.Snapshot()
	if !snap[0].Timestamp.Before(snap[1].Timestamp) {
		t.Errorf("entries not chronological: %v", snap)
	}
}

func TestLogRing_SnapshotIsCopy(t *testing.T) {
	r := NewLogRing(2)
	r.Append("a")

	snap := r.Snapshot()
	snap[0].Text = "mutated"
	r.Append("b")
	r.Append("c")

	if snap[0].Text != "mutated" || len(snap) != 1 {
		t.Errorf("snapshot changed after appends: %v", snap)
	}
	if got := r.Snapshot()[0].Text; got != "b" {
		t.Errorf("ring head = %q, want b", got)
	}
	if r.Cap() != 2 {
		t.Errorf("Cap() = %d, want 2", r.Cap())
	}
}
