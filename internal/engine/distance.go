package engine

import (
	"github.com/velotrack/rides-backend-go/internal/spatial"
)

// DistanceAccumulator incrementally sums ride distance over accepted fixes.
// Rejected fixes never reach it, so a bad reading neither adds distance nor
// moves the reference point.
type DistanceAccumulator struct {
	total   float64
	lastLat float64
	lastLon float64
	hasLast bool
}

// Advance adds the great-circle distance from the last accepted position and
// returns the delta in meters.
func (a *DistanceAccumulator) Advance(lat, lon float64) float64 {
	if !a.hasLast {
		a.lastLat, a.lastLon, a.hasLast = lat, lon, true
		return 0
	}
	delta := spatial.Haversine(a.lastLat, a.lastLon, lat, lon)
	a.total += delta
	a.lastLat, a.lastLon = lat, lon
	return delta
}

// Skip moves the reference point without adding distance. Used for fixes
// accepted while the ride is paused, so the track stays continuous but the
// paused movement is not counted.
func (a *DistanceAccumulator) Skip(lat, lon float64) {
	a.lastLat, a.lastLon, a.hasLast = lat, lon, true
}

// Total returns the accumulated distance in meters.
func (a *DistanceAccumulator) Total() float64 { return a.total }

// Reset clears the accumulator for a new ride.
func (a *DistanceAccumulator) Reset() {
	a.total = 0
	a.hasLast = false
}

// Restore seeds the accumulator from a recovered ride.
func (a *DistanceAccumulator) Restore(total float64) {
	a.total = total
	a.hasLast = false
}
