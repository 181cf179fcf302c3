package engine

import (
	"github.com/velotrack/rides-backend-go/internal/models"
	"github.com/velotrack/rides-backend-go/internal/spatial"
)

// maxSpeedMps is the clamp ceiling in m/s (100 km/h).
const maxSpeedMps = models.MaxSpeedKmh / 3.6

// EstimateSpeed derives a SpeedMeasurement from the current fix and the
// previously accepted fix, in priority order:
//
//  1. a positive provider speed is trusted as-is (source GPS),
//  2. otherwise the speed is computed from the great-circle distance over
//     the elapsed time between the fixes (source CALCULATED),
//  3. otherwise there is nothing to measure (source UNKNOWN, zero).
//
// The chosen speed is clamped to [0, 100 km/h] and snapped to zero below the
// stationary threshold.
func EstimateSpeed(current models.LocationFix, previous *models.LocationFix) models.SpeedMeasurement {
	var (
		speedMps float64
		source   models.SpeedSource
	)

	switch {
	case current.HasSpeed():
		speedMps = *current.SpeedMps
		source = models.SpeedSourceGPS
	case previous != nil && current.TimestampMillis > previous.TimestampMillis:
		elapsedSeconds := float64(current.TimestampMillis-previous.TimestampMillis) / 1000.0
		meters := spatial.Haversine(previous.Latitude, previous.Longitude, current.Latitude, current.Longitude)
		speedMps = meters / elapsedSeconds
		source = models.SpeedSourceCalculated
	default:
		// No provider speed and no usable previous fix (or a non-positive
		// time delta, which must never reach a division).
		speedMps = 0
		source = models.SpeedSourceUnknown
	}

	if speedMps < 0 {
		speedMps = 0
	}
	if speedMps > maxSpeedMps {
		speedMps = maxSpeedMps
	}

	speedKmh := speedMps * 3.6
	stationary := false
	if speedKmh < models.StationaryThresholdKmh {
		speedKmh = 0
		stationary = true
	}

	return models.SpeedMeasurement{
		SpeedKmh:        speedKmh,
		TimestampMillis: current.TimestampMillis,
		IsStationary:    stationary,
		Source:          source,
	}
}
