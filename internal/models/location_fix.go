package models

// LocationFix represents a single raw GPS reading as delivered by a location
// provider. It is untrusted input: nothing is validated until the fix passes
// the accuracy gate and becomes a TrackPoint.
type LocationFix struct {
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	AccuracyMeters  float64  `json:"accuracyMeters"`
	TimestampMillis int64    `json:"timestampMillis"`
	SpeedMps        *float64 `json:"speedMps,omitempty"`       // Provider speed, if reported
	BearingDegrees  *float64 `json:"bearingDegrees,omitempty"` // 0-360, if reported
}

// HasSpeed reports whether the provider attached a usable speed to the fix.
func (f LocationFix) HasSpeed() bool {
	return f.SpeedMps != nil && *f.SpeedMps > 0
}
