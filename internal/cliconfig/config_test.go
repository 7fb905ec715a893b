package cliconfig

import (
	"io"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UpdateInterval != "60s" {
		t.Errorf("UpdateInterval = %v, want 60s", cfg.UpdateInterval)
	}
	if cfg.Source != SourceGPSD {
		t.Errorf("Source = %v, want %v", cfg.Source, SourceGPSD)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %v, want 15s", cfg.HTTPTimeout)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %v, want %v", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		wantErr    bool
		wantSource string
	}{
		{
			name: "valid minimal config",
			config: Config{
				Endpoint:    "https://example.com/track",
				StateDir:    "/tmp/geoship",
				HTTPTimeout: time.Second,
			},
			wantSource: SourceGPSD,
		},
		{
			name: "missing endpoint",
			config: Config{
				StateDir:    "/tmp/geoship",
				HTTPTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "unknown source",
			config: Config{
				Endpoint:    "https://example.com",
				StateDir:    "/tmp/geoship",
				Source:      "satellite",
				HTTPTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "file source without fix file",
			config: Config{
				Endpoint:    "https://example.com",
				StateDir:    "/tmp/geoship",
				Source:      SourceFile,
				HTTPTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "file source with fix file",
			config: Config{
				Endpoint:    "redis://localhost:6379/0",
				StateDir:    "/tmp/geoship",
				Source:      SourceFile,
				FixFile:     "/tmp/fix.json",
				HTTPTimeout: time.Second,
			},
			wantSource: SourceFile,
		},
		{
			name: "zero timeout",
			config: Config{
				Endpoint: "https://example.com",
				StateDir: "/tmp/geoship",
			},
			wantErr: true,
		},
		{
			name: "explicit device id needs no state dir",
			config: Config{
				Endpoint:    "https://example.com",
				DeviceID:    "phone",
				HTTPTimeout: time.Second,
			},
			wantSource: SourceGPSD,
		},
		{
			name: "no device id and no state dir",
			config: Config{
				Endpoint:    "https://example.com",
				HTTPTimeout: time.Second,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.config.Source != tt.wantSource {
				t.Errorf("Source = %v, want %v", tt.config.Source, tt.wantSource)
			}
		})
	}
}

func TestConfig_TrackerConfig(t *testing.T) {
	cfg := Config{Endpoint: "https://example.com/", UpdateInterval: "5m", DeviceID: "d1"}
	tc := cfg.TrackerConfig()

	if tc.UpdateIntervalSeconds != 300 || tc.Endpoint != "https://example.com/" || tc.DeviceID != "d1" {
		t.Errorf("TrackerConfig() = %+v", tc)
	}

	cfg.UpdateInterval = "soon"
	if got := cfg.TrackerConfig().UpdateIntervalSeconds; got != 0 {
		t.Errorf("bad interval -> %d, want 0", got)
	}
}

func TestConfig_RestartNeeded(t *testing.T) {
	base := Config{Endpoint: "https://a", UpdateInterval: "60s", LogLevel: "info", ListenAddr: ":1"}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   bool
	}{
		{"identical", func(*Config) {}, false},
		{"log level only", func(c *Config) { c.LogLevel = "debug" }, false},
		{"listen addr only", func(c *Config) { c.ListenAddr = ":2" }, false},
		{"endpoint", func(c *Config) { c.Endpoint = "https://b" }, true},
		{"interval", func(c *Config) { c.UpdateInterval = "5m" }, true},
		{"source", func(c *Config) { c.Source = SourceFile }, true},
		{"auth key", func(c *Config) { c.AuthKey = "k" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			if got := base.RestartNeeded(next); got != tt.want {
				t.Errorf("RestartNeeded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseUpdateInterval(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"30s", 30},
		{"5m", 300},
		{"1h", 3600},
		{"0s", 0},
		{"", 0},
		{"10", 0},
		{"1d", 0},
		{"-5m", 0},
		{"5 m", 0},
		{"1h30m", 0},
	}

	for _, tt := range tests {
		if got := ParseUpdateInterval(tt.in); got != tt.want {
			t.Errorf("ParseUpdateInterval(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug", io.Discard); err != nil {
		t.Errorf("NewLogger(debug) error = %v", err)
	}
	if _, err := NewLogger("chatty", io.Discard); err == nil {
		t.Error("NewLogger(chatty) expected error")
	}
}
