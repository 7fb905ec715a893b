package geoship

import (
	"github.com/bft-labs/geoship/internal/adapters/source"
	"github.com/bft-labs/geoship/pkg/log"
)

// Option configures optional behavior of a Tracker.
type Option func(*options)

type options struct {
	logger      Logger
	newSource   func() LocationSource
	sinkFactory func(Config) (Sink, error)
	httpClient  HTTPClient
	wakeLock    WakeLock
	handlers    []EventHandler
	hostname    string
}

func defaultOptions() options {
	return options{
		logger:   log.NewNoopLogger(),
		hostname: hostname(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSource sets the constructor for the location source. It is called
// once per Start, since a source serves one session. If not provided, a
// gpsd client on 127.0.0.1:2947 is used.
func WithSource(newSource func() LocationSource) Option {
	return func(o *options) {
		o.newSource = newSource
	}
}

// WithGPSD uses a gpsd daemon at addr as the location source.
func WithGPSD(addr string) Option {
	return func(o *options) {
		o.newSource = func() LocationSource {
			return source.NewGPSD(addr, source.WithLogger(o.logger))
		}
	}
}

// WithFixFile uses a JSON fix file (as written by termux-location) as the
// location source.
func WithFixFile(path string) Option {
	return func(o *options) {
		o.newSource = func() LocationSource {
			return source.NewFixFile(path, source.WithLogger(o.logger))
		}
	}
}

// WithSinkFactory replaces endpoint-scheme sink selection.
func WithSinkFactory(f func(Config) (Sink, error)) Option {
	return func(o *options) {
		o.sinkFactory = f
	}
}

// WithHTTPClient sets the client used by the HTTP sink.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithWakeLock sets the wake lock held while a reading is handled.
func WithWakeLock(w WakeLock) Option {
	return func(o *options) {
		o.wakeLock = w
	}
}

// WithEventHandler adds a handler for tracker events. Handlers are called
// in registration order.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, handler)
	}
}

// WithHostname overrides the host name reported to sinks.
func WithHostname(name string) Option {
	return func(o *options) {
		o.hostname = name
	}
}
