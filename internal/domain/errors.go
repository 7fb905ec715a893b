package domain

import "errors"

// Domain errors are returned by the public API and checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running tracker.
	ErrAlreadyRunning = errors.New("geoship: already running")

	// ErrNotRunning is returned by operations that need a live tracker.
	ErrNotRunning = errors.New("geoship: not running")

	// ErrInvalidConfig is returned when the tracker configuration is rejected at start.
	ErrInvalidConfig = errors.New("geoship: invalid configuration")

	// ErrUnsupportedEndpoint is returned when no sink handles the endpoint scheme.
	ErrUnsupportedEndpoint = errors.New("geoship: unsupported endpoint")

	// ErrSubscriberGone is returned by a subscriber that can no longer accept deliveries.
	ErrSubscriberGone = errors.New("geoship: subscriber gone")
)

// ErrInvalidTransition is returned when a lifecycle transition is not allowed
// from the current state.
var ErrInvalidTransition = errors.New("geoship: invalid state transition")

// ConfigError describes why a configuration was rejected. It matches
// ErrInvalidConfig and, when set, Err.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return ErrInvalidConfig.Error() + ": " + e.Reason
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.Err}
}
