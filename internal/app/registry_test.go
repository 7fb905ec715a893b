package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/geoship/internal/domain"
)

var errGone = errors.New("gone")

// fakeSubscriber records deliveries. failSnapshot and failDeliver make
// the corresponding method return an error.
type fakeSubscriber struct {
	mu           sync.Mutex
	snapshots    [][]domain.LogEntry
	lines        []string
	shutdowns    int
	failSnapshot bool
	failDeliver  bool
}

func (f *fakeSubscriber) DeliverSnapshot(entries []domain.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSnapshot {
		return errGone
	}
	f.snapshots = append(f.snapshots, entries)
	return nil
}

func (f *fakeSubscriber) Deliver(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeliver {
		return errGone
	}
	f.lines = append(f.lines, text)
	return nil
}

func (f *fakeSubscriber) NotifyShutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
}

func (f *fakeSubscriber) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.lines...)
}

func (f *fakeSubscriber) Snapshots() [][]domain.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]domain.LogEntry{}, f.snapshots...)
}

func (f *fakeSubscriber) Shutdowns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdowns
}

// plainSubscriber does not implement ports.ShutdownNotifier.
type plainSubscriber struct{ n int }

func (p *plainSubscriber) DeliverSnapshot([]domain.LogEntry) error { return nil }
func (p *plainSubscriber) Deliver(string) error                    { p.n++; return nil }

func TestRegistry_RegisterDeliversSnapshot(t *testing.T) {
	ring := NewLogRing(0)
	ring.Append("a")
	ring.Append("b")
	r := NewRegistry(ring, mockLogger{})

	s := &fakeSubscriber{}
	if !r.Register(s) {
		t.Fatal("Register() = false")
	}

	snaps := s.Snapshots()
	if len(snaps) != 1 || len(snaps[0]) != 2 || snaps[0][1].Text != "b" {
		t.Fatalf("snapshots = %v, want one snapshot [a b]", snaps)
	}

	// second registration is a no-op
	if !r.Register(s) {
		t.Error("second Register() = false")
	}
	if r.Len() != 1 || len(s.Snapshots()) != 1 {
		t.Errorf("duplicate register: Len=%d snapshots=%d", r.Len(), len(s.Snapshots()))
	}
}

func TestRegistry_RejectedSnapshotNotKept(t *testing.T) {
	r := NewRegistry(NewLogRing(0), mockLogger{})

	if r.Register(&fakeSubscriber{failSnapshot: true}) {
		t.Error("Register() = true for failing subscriber")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_BroadcastPrunesFailures(t *testing.T) {
	r := NewRegistry(NewLogRing(0), mockLogger{})
	a := &fakeSubscriber{}
	b := &fakeSubscriber{}
	c := &fakeSubscriber{}
	for _, s := range []*fakeSubscriber{a, b, c} {
		r.Register(s)
	}
	b.failDeliver = true

	if dropped := r.Broadcast("hello"); dropped != 1 {
		t.Errorf("Broadcast() dropped %d, want 1", dropped)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	r.Broadcast("again")
	if got := a.Lines(); len(got) != 2 || got[0] != "hello" || got[1] != "again" {
		t.Errorf("a lines = %v", got)
	}
	if got := c.Lines(); len(got) != 2 {
		t.Errorf("c lines = %v", got)
	}
	if got := b.Lines(); len(got) != 0 {
		t.Errorf("pruned subscriber received %v", got)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(NewLogRing(0), mockLogger{})
	a := &fakeSubscriber{}
	b := &fakeSubscriber{}
	r.Register(a)
	r.Register(b)

	if !r.Unregister(a) {
		t.Error("Unregister(a) = false")
	}
	if r.Unregister(a) {
		t.Error("second Unregister(a) = true")
	}

	r.Broadcast("x")
	if len(a.Lines()) != 0 || len(b.Lines()) != 1 {
		t.Errorf("a=%v b=%v", a.Lines(), b.Lines())
	}
}

func TestRegistry_NotifyShutdown(t *testing.T) {
	r := NewRegistry(NewLogRing(0), mockLogger{})
	a := &fakeSubscriber{}
	p := &plainSubscriber{}
	r.Register(a)
	r.Register(p)

	r.NotifyShutdown()

	if a.Shutdowns() != 1 {
		t.Errorf("shutdowns = %d, want 1", a.Shutdowns())
	}
}
