package cliconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/geoship/internal/domain"
)

// Location sources.
const (
	SourceGPSD = "gpsd"
	SourceFile = "file"
)

// DefaultListenAddr serves /healthz, /logs, /ws and /metrics.
const DefaultListenAddr = "127.0.0.1:8765"

// Config holds CLI configuration for geoship.
type Config struct {
	Endpoint       string
	UpdateInterval string
	DeviceID       string
	AuthKey        string
	StateDir       string

	Source   string
	GPSDAddr string
	FixFile  string

	ListenAddr   string
	HTTPTimeout  time.Duration
	InhibitSleep bool
	LogLevel     string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		UpdateInterval: "60s",
		Source:         SourceGPSD,
		GPSDAddr:       "127.0.0.1:2947",
		ListenAddr:     DefaultListenAddr,
		HTTPTimeout:    15 * time.Second,
		LogLevel:       "info",
		StateDir:       defaultStateDir(),
		AuthKey:        os.Getenv("GEOSHIP_AUTH_KEY"),
	}
}

func defaultStateDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".geoship")
	}
	return ""
}

// Validate checks the settings the CLI itself needs. Endpoint and interval
// are checked again by the tracker, which reports them on its log ring.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if _, err := url.Parse(c.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}

	switch c.Source {
	case "":
		c.Source = SourceGPSD
	case SourceGPSD, SourceFile:
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceGPSD, SourceFile)
	}
	if c.Source == SourceFile && c.FixFile == "" {
		return fmt.Errorf("fix-file is required for source %q", SourceFile)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.StateDir == "" && c.DeviceID == "" {
		return fmt.Errorf("state-dir is required when device-id is not set")
	}
	return nil
}

// TrackerConfig converts the tracker-relevant settings. An unparseable
// interval becomes 0, which the tracker rejects.
func (c Config) TrackerConfig() domain.TrackerConfig {
	return domain.TrackerConfig{
		UpdateIntervalSeconds: ParseUpdateInterval(c.UpdateInterval),
		Endpoint:              c.Endpoint,
		DeviceID:              c.DeviceID,
	}
}

// RestartNeeded reports whether moving from c to next requires a new
// tracker session.
func (c Config) RestartNeeded(next Config) bool {
	return c.Endpoint != next.Endpoint ||
		c.UpdateInterval != next.UpdateInterval ||
		c.DeviceID != next.DeviceID ||
		c.AuthKey != next.AuthKey ||
		c.Source != next.Source ||
		c.GPSDAddr != next.GPSDAddr ||
		c.FixFile != next.FixFile ||
		c.HTTPTimeout != next.HTTPTimeout
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
