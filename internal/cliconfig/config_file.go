package cliconfig

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Endpoint       string `toml:"endpoint" yaml:"endpoint"`
	UpdateInterval string `toml:"update_interval" yaml:"update_interval"`
	DeviceID       string `toml:"device_id" yaml:"device_id"`
	AuthKey        string `toml:"auth_key" yaml:"auth_key"`
	StateDir       string `toml:"state_dir" yaml:"state_dir"`
	Source         string `toml:"source" yaml:"source"`
	GPSDAddr       string `toml:"gpsd_addr" yaml:"gpsd_addr"`
	FixFile        string `toml:"fix_file" yaml:"fix_file"`
	ListenAddr     string `toml:"listen_addr" yaml:"listen_addr"`
	HTTPTimeout    string `toml:"http_timeout" yaml:"http_timeout"`
	InhibitSleep   *bool  `toml:"inhibit_sleep" yaml:"inhibit_sleep"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
}

// LoadFileConfig reads a config file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	return fc, err
}

// DefaultConfigPath returns ~/.geoship/config.toml, or "" without a home directory.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".geoship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("update-interval", fc.UpdateInterval, &cfg.UpdateInterval)
	s.setString("device-id", fc.DeviceID, &cfg.DeviceID)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("source", fc.Source, &cfg.Source)
	s.setString("gpsd-addr", fc.GPSDAddr, &cfg.GPSDAddr)
	s.setString("fix-file", fc.FixFile, &cfg.FixFile)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBool("inhibit-sleep", fc.InhibitSleep, &cfg.InhibitSleep)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
