package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Record keys sent to every sink.
const (
	KeyTime      = "time"
	KeyLatitude  = "latitude"
	KeyLongitude = "longitude"
	KeySpeed     = "speed"
	KeyAltitude  = "altitude"
	KeyAccuracy  = "accuracy"
	KeyProvider  = "provider"
)

// Reading is a single position fix.
type Reading struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	SpeedMps  float64
	AltitudeM float64
	AccuracyM float64
	Provider  string
}

// Record renders the reading as the flat map submitted to sinks. Floats
// use the shortest representation that round-trips; time is Unix millis.
func (r Reading) Record() map[string]string {
	return map[string]string{
		KeyTime:      strconv.FormatInt(r.Time.UnixMilli(), 10),
		KeyLatitude:  formatFloat(r.Latitude),
		KeyLongitude: formatFloat(r.Longitude),
		KeySpeed:     formatFloat(r.SpeedMps),
		KeyAltitude:  formatFloat(r.AltitudeM),
		KeyAccuracy:  formatFloat(r.AccuracyM),
		KeyProvider:  r.Provider,
	}
}

// Summary is the log line written after a successful submission,
// e.g. "location 45.123457, -122.5".
func (r Reading) Summary() string {
	return fmt.Sprintf("location %s, %s", round6(r.Latitude), round6(r.Longitude))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// round6 rounds half away from zero to six decimals and trims trailing zeros.
func round6(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}
