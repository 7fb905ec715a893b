package source

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// Scripted is a source driven by hand, for tests and demos. Connect only
// records the receiver; the driver methods deliver callbacks synchronously
// on the caller's goroutine.
type Scripted struct {
	mu          sync.Mutex
	events      ports.SourceEvents
	connects    int
	disconnects int
	intervals   []time.Duration
}

var _ ports.LocationSource = (*Scripted)(nil)

func NewScripted() *Scripted { return &Scripted{} }

func (s *Scripted) Connect(ctx context.Context, events ports.SourceEvents) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	s.events = events
	return nil
}

func (s *Scripted) StartUpdates(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervals = append(s.intervals, interval)
	return nil
}

func (s *Scripted) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	return nil
}

// Connected reports a successful connection with an optional last fix.
func (s *Scripted) Connected(last *domain.Reading) {
	if ev := s.receiver(); ev != nil {
		ev.OnConnected(last)
	}
}

// Failed reports a failed connection attempt.
func (s *Scripted) Failed(err error) {
	if ev := s.receiver(); ev != nil {
		ev.OnConnectionFailed(err)
	}
}

// Lost reports a dropped connection.
func (s *Scripted) Lost(err error) {
	if ev := s.receiver(); ev != nil {
		ev.OnConnectionLost(err)
	}
}

// Update delivers one periodic update; nil means no new fix.
func (s *Scripted) Update(r *domain.Reading) {
	if ev := s.receiver(); ev != nil {
		ev.OnUpdate(r)
	}
}

// Connects returns how many times Connect was called.
func (s *Scripted) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Disconnects returns how many times Disconnect was called.
func (s *Scripted) Disconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnects
}

// Intervals returns the intervals passed to StartUpdates.
func (s *Scripted) Intervals() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration{}, s.intervals...)
}

func (s *Scripted) receiver() ports.SourceEvents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}
