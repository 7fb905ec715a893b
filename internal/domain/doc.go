// Package domain holds the value types of geoship: location readings, log
// entries and the tracker configuration. It has no infrastructure
// dependencies.
//
//   - [Reading]: one position fix reported by a location source
//   - [LogEntry]: one timestamped status line kept in the log ring
//   - [TrackerConfig]: the settings validated when a tracker starts
package domain
