package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"GEOSHIP_ENDPOINT":        "https://env.example.com",
				"GEOSHIP_UPDATE_INTERVAL": "5m",
				"GEOSHIP_DEVICE_ID":       "env-device",
				"GEOSHIP_SOURCE":          "file",
				"GEOSHIP_FIX_FILE":        "/tmp/fix.json",
				"GEOSHIP_HTTP_TIMEOUT":    "30s",
				"GEOSHIP_INHIBIT_SLEEP":   "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Endpoint:       "https://env.example.com",
				UpdateInterval: "5m",
				DeviceID:       "env-device",
				Source:         "file",
				FixFile:        "/tmp/fix.json",
				HTTPTimeout:    30 * time.Second,
				InhibitSleep:   true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"GEOSHIP_ENDPOINT":  "https://env.example.com",
				"GEOSHIP_DEVICE_ID": "env-device",
			},
			changed: map[string]bool{"endpoint": true},
			initial: Config{
				Endpoint: "https://flag.example.com",
			},
			expected: Config{
				Endpoint: "https://flag.example.com",
				DeviceID: "env-device",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"GEOSHIP_HTTP_TIMEOUT": "not-a-duration",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "bool accepts 1",
			envVars: map[string]string{
				"GEOSHIP_INHIBIT_SLEEP": "1",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{InhibitSleep: true},
		},
		{
			name:     "empty env leaves config alone",
			envVars:  map[string]string{},
			changed:  map[string]bool{},
			initial:  Config{Endpoint: "https://kept", LogLevel: "warn"},
			expected: Config{Endpoint: "https://kept", LogLevel: "warn"},
		},
	}

	keys := []string{
		"GEOSHIP_ENDPOINT", "GEOSHIP_UPDATE_INTERVAL", "GEOSHIP_DEVICE_ID", "GEOSHIP_AUTH_KEY",
		"GEOSHIP_STATE_DIR", "GEOSHIP_SOURCE", "GEOSHIP_GPSD_ADDR", "GEOSHIP_FIX_FILE",
		"GEOSHIP_LISTEN_ADDR", "GEOSHIP_LOG_LEVEL", "GEOSHIP_HTTP_TIMEOUT", "GEOSHIP_INHIBIT_SLEEP",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range keys {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
