package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

func (m mockLogger) With(fields ...ports.Field) ports.Logger { return m }

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l.State() != StateStarting {
		t.Errorf("initial state = %v, want StateStarting", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStarting, "Starting"},
		{StateConnecting, "Connecting"},
		{StateActive, "Active"},
		{StateSuspended, "Suspended"},
		{StateStopped, "Stopped"},
		{StateFailed, "Failed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateStarting, StateConnecting, StateActive, StateSuspended} {
		if s.Terminal() {
			t.Errorf("%v.Terminal() = true", s)
		}
	}
	for _, s := range []State{StateStopped, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%v.Terminal() = false", s)
		}
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"starting to connecting", StateStarting, StateConnecting},
		{"starting to failed", StateStarting, StateFailed},
		{"starting to stopped", StateStarting, StateStopped},
		{"connecting to active", StateConnecting, StateActive},
		{"connecting to stopped", StateConnecting, StateStopped},
		{"active to connecting", StateActive, StateConnecting},
		{"active to suspended", StateActive, StateSuspended},
		{"active to stopped", StateActive, StateStopped},
		{"suspended to active", StateSuspended, StateActive},
		{"suspended to connecting", StateSuspended, StateConnecting},
		{"suspended to stopped", StateSuspended, StateStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Fatalf("TransitionTo() error = %v", err)
			}
			if l.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"starting to active", StateStarting, StateActive},
		{"starting to suspended", StateStarting, StateSuspended},
		{"connecting to failed", StateConnecting, StateFailed},
		{"connecting to suspended", StateConnecting, StateSuspended},
		{"active to active", StateActive, StateActive},
		{"active to failed", StateActive, StateFailed},
		{"stopped to starting", StateStopped, StateStarting},
		{"stopped to connecting", StateStopped, StateConnecting},
		{"failed to starting", StateFailed, StateStarting},
		{"failed to stopped", StateFailed, StateStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")

			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("TransitionTo() error = %v, want ErrInvalidTransition", err)
			}
			// State should not change on invalid transition
			if l.State() != tt.from {
				t.Errorf("state changed to %v on invalid transition, want %v", l.State(), tt.from)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.TransitionTo(StateConnecting, "configured")
	_ = l.TransitionTo(StateActive, "connected")
	_ = l.TransitionTo(StateFailed, "not allowed")

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].previous != StateStarting || events[0].current != StateConnecting {
		t.Errorf("event 0: got %v->%v, want Starting->Connecting", events[0].previous, events[0].current)
	}
	if events[1].previous != StateConnecting || events[1].current != StateActive || events[1].reason != "connected" {
		t.Errorf("event 1: got %+v, want Connecting->Active (connected)", events[1])
	}
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
			}
		}()
	}

	// Concurrent transitions (some will fail, which is expected)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(StateConnecting, "test")
			_ = l.TransitionTo(StateActive, "test")
		}()
	}

	wg.Wait()

	if l.State() != StateActive {
		t.Errorf("state = %v, want Active", l.State())
	}
}
