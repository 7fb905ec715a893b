package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// State is the lifecycle state of a tracker.
type State int

const (
	StateStarting State = iota
	StateConnecting
	StateActive
	StateSuspended
	StateStopped
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateConnecting:
		return "Connecting"
	case StateActive:
		return "Active"
	case StateSuspended:
		return "Suspended"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}

// StateEmitter is called after every successful transition.
type StateEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle holds the current state and validates transitions.
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	logger  ports.Logger
	emitter StateEmitter
}

// NewLifecycle returns a lifecycle in StateStarting.
func NewLifecycle(logger ports.Logger, emitter StateEmitter) *Lifecycle {
	return &Lifecycle{
		state:   StateStarting,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to newState. It returns an error wrapping
// domain.ErrInvalidTransition, and leaves the state unchanged, when the
// transition is not allowed.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if !allowed(oldState, newState) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, oldState, newState)
	}
	l.state = newState
	l.mu.Unlock()

	// Emit outside of lock
	if l.emitter != nil {
		l.emitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}

func allowed(from, to State) bool {
	switch from {
	case StateStarting:
		return to == StateConnecting || to == StateFailed || to == StateStopped
	case StateConnecting:
		return to == StateActive || to == StateStopped
	case StateActive:
		return to == StateConnecting || to == StateSuspended || to == StateStopped
	case StateSuspended:
		return to == StateActive || to == StateConnecting || to == StateStopped
	default:
		return false
	}
}
