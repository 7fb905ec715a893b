package geoship

import (
	"time"

	"github.com/bft-labs/geoship/internal/app"
	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
	"github.com/bft-labs/geoship/pkg/log"
)

// State is the tracker lifecycle state.
type State = app.State

const (
	StateStarting   = app.StateStarting
	StateConnecting = app.StateConnecting
	StateActive     = app.StateActive
	StateSuspended  = app.StateSuspended
	StateStopped    = app.StateStopped
	StateFailed     = app.StateFailed
)

type (
	// Reading is one location fix.
	Reading = domain.Reading

	// LogEntry is one status line from the log ring.
	LogEntry = domain.LogEntry

	// Subscriber receives status lines. Implementations must not block and
	// must not call back into the Tracker.
	Subscriber = ports.Subscriber

	// ShutdownNotifier is optionally implemented by a Subscriber that wants
	// to hear when the tracker stops.
	ShutdownNotifier = ports.ShutdownNotifier

	// LocationSource produces readings.
	LocationSource = ports.LocationSource

	// SourceEvents receives LocationSource callbacks.
	SourceEvents = ports.SourceEvents

	// Sink accepts location records.
	Sink = ports.Sink

	// WakeLock keeps the host awake while a reading is handled.
	WakeLock = ports.WakeLock

	// HTTPClient is satisfied by *http.Client.
	HTTPClient = ports.HTTPClient

	// Logger is the structured logging interface from pkg/log.
	Logger = log.Logger
)

// Errors returned by the Tracker.
var (
	ErrInvalidConfig       = domain.ErrInvalidConfig
	ErrUnsupportedEndpoint = domain.ErrUnsupportedEndpoint
	ErrAlreadyRunning      = domain.ErrAlreadyRunning
	ErrNotRunning          = domain.ErrNotRunning
	ErrSubscriberGone      = domain.ErrSubscriberGone
)

// Config is the per-session tracker configuration.
type Config struct {
	// Endpoint selects the sink by URL scheme; see the package docs.
	Endpoint string

	// UpdateIntervalSeconds is the requested fix interval. Must be >= 1.
	UpdateIntervalSeconds int

	// DeviceID identifies this device to the sink.
	DeviceID string

	// AuthKey is sent as a bearer token by the HTTP sink.
	AuthKey string

	// HTTPTimeout bounds one sink round trip. Defaults to 15s.
	HTTPTimeout time.Duration
}

func (c Config) tracker() domain.TrackerConfig {
	return domain.TrackerConfig{
		UpdateIntervalSeconds: c.UpdateIntervalSeconds,
		Endpoint:              c.Endpoint,
		DeviceID:              c.DeviceID,
	}
}
