package ports

import (
	"context"
	"time"

	"github.com/bft-labs/geoship/internal/domain"
)

// LocationSource is a positioning provider.
//
// Every callback on SourceEvents is delivered from the source's own
// goroutines; the receiver is responsible for serializing them.
type LocationSource interface {
	// Connect begins connecting and returns without waiting for the
	// outcome, which is reported through OnConnected or OnConnectionFailed.
	// After a failure or loss the source retries on its own until ctx is
	// done or Disconnect is called.
	Connect(ctx context.Context, events SourceEvents) error

	// StartUpdates begins periodic OnUpdate callbacks. Only valid after
	// OnConnected.
	StartUpdates(interval time.Duration) error

	// Disconnect stops updates and releases the connection. Idempotent.
	Disconnect() error
}

// SourceEvents receives connection and update notifications.
type SourceEvents interface {
	// OnConnected reports a connection. last is the most recent known fix,
	// or nil when none is available.
	OnConnected(last *domain.Reading)

	// OnConnectionFailed reports a failed connection attempt.
	OnConnectionFailed(err error)

	// OnConnectionLost reports that an established connection dropped.
	OnConnectionLost(err error)

	// OnUpdate delivers a periodic update. r is nil when no new fix has
	// arrived since the previous update.
	OnUpdate(r *domain.Reading)
}
