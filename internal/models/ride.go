package models

import "time"

// RideSession represents one recorded cycling session. All values are raw SI
// units (meters, m/s, milliseconds); formatting and unit conversion belong to
// the consumer.
type RideSession struct {
	ID string `json:"id" db:"id"` // UUID

	// Temporal info. Start is a Unix timestamp in milliseconds; end is nil
	// while the ride is still being recorded.
	StartTimeMillis int64  `json:"startTimeMillis" db:"start_time_ms"`
	EndTimeMillis   *int64 `json:"endTimeMillis,omitempty" db:"end_time_ms"`

	// Duration accounting. Invariant: elapsed ≈ moving + manualPaused + autoPaused
	// within one tick interval.
	ElapsedMillis      int64 `json:"elapsedMillis" db:"elapsed_ms"`
	MovingMillis       int64 `json:"movingMillis" db:"moving_ms"`
	ManualPausedMillis int64 `json:"manualPausedMillis" db:"manual_paused_ms"`
	AutoPausedMillis   int64 `json:"autoPausedMillis" db:"auto_paused_ms"`

	// Ride statistics
	DistanceMeters float64 `json:"distanceMeters" db:"distance_m"`
	AvgSpeedMps    float64 `json:"avgSpeedMps" db:"avg_speed_mps"`
	MaxSpeedMps    float64 `json:"maxSpeedMps" db:"max_speed_mps"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsOpen reports whether the ride is still being recorded.
func (r RideSession) IsOpen() bool {
	return r.EndTimeMillis == nil
}
