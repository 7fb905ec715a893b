package domain

import (
	"fmt"
	"strings"
	"time"
)

// TrackerConfig is what a tracker needs to run.
type TrackerConfig struct {
	// UpdateIntervalSeconds is the requested spacing between updates.
	UpdateIntervalSeconds int

	// Endpoint is the sink address. Its scheme selects the sink.
	Endpoint string

	// DeviceID identifies this device to the sink.
	DeviceID string
}

// Validate reports the first problem with the configuration as a
// *ConfigError.
func (c TrackerConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return &ConfigError{Reason: "invalid endpoint"}
	}
	if c.UpdateIntervalSeconds < 1 {
		return &ConfigError{Reason: fmt.Sprintf("invalid frequency (%d)", c.UpdateIntervalSeconds)}
	}
	return nil
}

// Interval returns UpdateIntervalSeconds as a duration.
func (c TrackerConfig) Interval() time.Duration {
	return time.Duration(c.UpdateIntervalSeconds) * time.Second
}

// DeviceEndpoint is the endpoint with the device id appended as the last
// path element, as used by path-addressed sinks.
func (c TrackerConfig) DeviceEndpoint() string {
	base := strings.TrimRight(c.Endpoint, "/")
	if c.DeviceID == "" {
		return base
	}
	return base + "/" + c.DeviceID
}
