package models

import "fmt"

// MaxAccuracyMeters is the accuracy gate: fixes reporting a worse (larger)
// horizontal accuracy are dropped and never persisted.
const MaxAccuracyMeters = 50.0

// TrackPoint represents a GPS fix accepted into a ride's permanent record
type TrackPoint struct {
	ID              int64   `json:"id" db:"id"`
	RideID          string  `json:"rideId" db:"ride_id"`
	TimestampMillis int64   `json:"timestampMillis" db:"timestamp_ms"` // Unix timestamp in milliseconds
	Latitude        float64 `json:"latitude" db:"latitude"`
	Longitude       float64 `json:"longitude" db:"longitude"`
	SpeedMps        float64 `json:"speedMps" db:"speed_mps"`
	AccuracyMeters  float64 `json:"accuracyMeters" db:"accuracy_m"`

	// Pause flags mark points received while the ride was paused.
	// At most one of them is ever set.
	IsManuallyPaused bool `json:"isManuallyPaused" db:"is_manually_paused"`
	IsAutoPaused     bool `json:"isAutoPaused" db:"is_auto_paused"`
}

// Validate checks the track point invariants: accuracy gate, coordinate
// ranges, and mutually exclusive pause flags.
func (p TrackPoint) Validate() error {
	if p.AccuracyMeters > MaxAccuracyMeters {
		return fmt.Errorf("accuracy %.1fm exceeds %.1fm gate", p.AccuracyMeters, MaxAccuracyMeters)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %.6f out of range", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %.6f out of range", p.Longitude)
	}
	if p.IsManuallyPaused && p.IsAutoPaused {
		return fmt.Errorf("track point flagged both manually and auto paused")
	}
	return nil
}
