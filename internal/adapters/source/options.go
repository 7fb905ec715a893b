package source

import (
	"context"
	"net"
	"time"

	"github.com/bft-labs/geoship/internal/ports"
	"github.com/bft-labs/geoship/pkg/log"
)

// Option configures a location source.
type Option func(*settings)

type settings struct {
	logger         ports.Logger
	minSpacing     time.Duration
	backoffInitial time.Duration
	backoffMax     time.Duration
	dial           func(ctx context.Context, network, addr string) (net.Conn, error)
}

func defaultSettings() settings {
	var d net.Dialer
	return settings{
		logger:         log.NewNoopLogger(),
		minSpacing:     MinUpdateSpacing,
		backoffInitial: DefaultBackoffInitial,
		backoffMax:     DefaultBackoffMax,
		dial:           d.DialContext,
	}
}

func apply(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(l ports.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMinSpacing overrides MinUpdateSpacing.
func WithMinSpacing(d time.Duration) Option {
	return func(s *settings) { s.minSpacing = d }
}

// WithBackoff sets the reconnect backoff bounds.
func WithBackoff(initial, max time.Duration) Option {
	return func(s *settings) {
		s.backoffInitial = initial
		s.backoffMax = max
	}
}

// WithDialer replaces the network dialer (gpsd only).
func WithDialer(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(s *settings) { s.dial = dial }
}
