package models

// SpeedSource identifies where a speed measurement came from.
type SpeedSource string

const (
	SpeedSourceGPS        SpeedSource = "GPS"        // Provider-reported speed
	SpeedSourceCalculated SpeedSource = "CALCULATED" // Derived from consecutive fixes
	SpeedSourceUnknown    SpeedSource = "UNKNOWN"    // No usable input
)

// Speed handling constants
const (
	MaxSpeedKmh            = 100.0 // Plausibility ceiling for a bicycle
	StationaryThresholdKmh = 1.0   // Below this the rider is treated as stopped
)

// SpeedMeasurement is the estimator output for a single fix: a clamped
// km/h value with source attribution and stationary detection.
type SpeedMeasurement struct {
	SpeedKmh        float64     `json:"speedKmh"` // 0-100
	TimestampMillis int64       `json:"timestampMillis"`
	IsStationary    bool        `json:"isStationary"`
	Source          SpeedSource `json:"source"`
}
