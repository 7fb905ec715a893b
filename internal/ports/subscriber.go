package ports

import "github.com/bft-labs/geoship/internal/domain"

// Subscriber is an observer of the tracker's status log. Implementations
// must be comparable by identity (pointer types). A non-nil error from
// either method means the subscriber is gone and will be dropped.
//
// Deliveries run on the tracker loop: implementations must not block and
// must not call back into the tracker from inside a delivery.
type Subscriber interface {
	// DeliverSnapshot receives the whole log ring, oldest first.
	DeliverSnapshot(entries []domain.LogEntry) error

	// Deliver receives one new log line.
	Deliver(text string) error
}

// ShutdownNotifier is implemented by subscribers that want to know when
// the tracker stops.
type ShutdownNotifier interface {
	NotifyShutdown()
}
