// Package wakelock keeps the host awake while location fixes are in flight.
//
// Lock counts holds. The first Acquire engages an Inhibitor, the last
// Release lets it go. Without an Inhibitor the Lock only counts, which is
// what the tracker needs on hosts that never sleep.
package wakelock

import (
	"errors"
	"sync"

	"github.com/bft-labs/geoship/internal/ports"
	"github.com/bft-labs/geoship/pkg/log"
)

// Inhibitor blocks system sleep until the returned release func is called.
type Inhibitor interface {
	Inhibit() (release func() error, err error)
}

// Lock is a reference-counted wake lock.
type Lock struct {
	mu        sync.Mutex
	holds     int
	inhibitor Inhibitor
	release   func() error
	logger    ports.Logger
}

var _ ports.WakeLock = (*Lock)(nil)

// New creates a Lock. inhibitor may be nil.
func New(inhibitor Inhibitor, logger ports.Logger) *Lock {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Lock{inhibitor: inhibitor, logger: logger}
}

// Acquire adds a hold. When the first hold cannot engage the inhibitor
// the hold is not counted and the error is returned; the caller must not
// Release it. The next Acquire tries the inhibitor again.
func (l *Lock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.holds++
	if l.holds > 1 || l.inhibitor == nil {
		return nil
	}
	release, err := l.inhibitor.Inhibit()
	if err != nil {
		l.holds--
		l.logger.Warn("wake lock unavailable", log.Err(err))
		return err
	}
	l.release = release
	l.logger.Debug("wake lock engaged")
	return nil
}

// Release drops a hold. Releasing with no holds is a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holds == 0 {
		return nil
	}
	l.holds--
	if l.holds > 0 || l.release == nil {
		return nil
	}
	release := l.release
	l.release = nil
	l.logger.Debug("wake lock released")
	return release()
}

// Held reports whether any hold is outstanding.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holds > 0
}

// Holds returns the outstanding hold count.
func (l *Lock) Holds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holds
}

// ErrNoInhibitor is returned by Detect when the host offers no way to block
// sleep.
var ErrNoInhibitor = errors.New("wakelock: no inhibitor available")
