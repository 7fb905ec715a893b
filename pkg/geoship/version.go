package geoship

// Version information for the geoship module.
const (
	// Version is the current version of the geoship module.
	Version = "0.3.0"

	// MinCompatibleVersion is the oldest version whose Config and options
	// this version still accepts.
	MinCompatibleVersion = "0.3.0"
)
