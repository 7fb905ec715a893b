package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (GEOSHIP_*).
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", os.Getenv("GEOSHIP_ENDPOINT"), &cfg.Endpoint)
	s.setString("update-interval", os.Getenv("GEOSHIP_UPDATE_INTERVAL"), &cfg.UpdateInterval)
	s.setString("device-id", os.Getenv("GEOSHIP_DEVICE_ID"), &cfg.DeviceID)
	s.setString("auth-key", os.Getenv("GEOSHIP_AUTH_KEY"), &cfg.AuthKey)
	s.setString("state-dir", os.Getenv("GEOSHIP_STATE_DIR"), &cfg.StateDir)
	s.setString("source", os.Getenv("GEOSHIP_SOURCE"), &cfg.Source)
	s.setString("gpsd-addr", os.Getenv("GEOSHIP_GPSD_ADDR"), &cfg.GPSDAddr)
	s.setString("fix-file", os.Getenv("GEOSHIP_FIX_FILE"), &cfg.FixFile)
	s.setString("listen", os.Getenv("GEOSHIP_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("log-level", os.Getenv("GEOSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("timeout", os.Getenv("GEOSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBoolFromString("inhibit-sleep", os.Getenv("GEOSHIP_INHIBIT_SLEEP"), &cfg.InhibitSleep)

	return nil
}
