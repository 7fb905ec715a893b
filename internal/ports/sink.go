package ports

import "context"

// Sink is the remote store for location records.
type Sink interface {
	// Submit stores one record. The outcome is success or failure only;
	// failed records are not retried by the caller.
	Submit(ctx context.Context, record map[string]string) error

	// Close releases connections held by the sink.
	Close() error
}
