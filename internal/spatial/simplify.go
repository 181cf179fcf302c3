package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// Simplification parameters.
const (
	// DefaultSimplifyToleranceMeters is the tolerance used when the caller
	// does not supply one.
	DefaultSimplifyToleranceMeters = 3.0

	// simplifyMinPoints is the size below which simplification is skipped:
	// small tracks render cheaply and lose shape fidelity for no benefit.
	simplifyMinPoints = 100
)

// SimplifyTrack reduces a track for rendering using the Ramer-Douglas-Peucker
// algorithm. Tracks with fewer than simplifyMinPoints points are returned
// unchanged, as are degenerate inputs of fewer than 3 points. The first and
// last points are always retained.
func SimplifyTrack(points []Point, toleranceMeters float64) []Point {
	if len(points) < simplifyMinPoints {
		return points
	}
	if toleranceMeters <= 0 {
		toleranceMeters = DefaultSimplifyToleranceMeters
	}
	return douglasPeucker(points, toleranceMeters)
}

// douglasPeucker recursively removes points within epsilon meters of the
// chord between the retained endpoints.
func douglasPeucker(points []Point, epsilon float64) []Point {
	if len(points) < 3 {
		return points
	}

	// Find the point with maximum distance from the line segment
	maxDist := 0.0
	maxIndex := 0
	for i := 1; i < len(points)-1; i++ {
		dist := perpendicularDistance(points[i], points[0], points[len(points)-1])
		if dist > maxDist {
			maxDist = dist
			maxIndex = i
		}
	}

	// If max distance is greater than epsilon, recursively simplify
	if maxDist > epsilon {
		left := douglasPeucker(points[:maxIndex+1], epsilon)
		right := douglasPeucker(points[maxIndex:], epsilon)

		// Combine results (remove duplicate middle point)
		result := make([]Point, len(left)+len(right)-1)
		copy(result, left)
		copy(result[len(left):], right[1:])
		return result
	}

	// Everything between the endpoints is within tolerance
	return []Point{points[0], points[len(points)-1]}
}

// perpendicularDistance calculates the perpendicular distance in meters from
// a point to the chord between lineStart and lineEnd, using a local planar
// approximation (longitude scaled by cos(latitude)).
func perpendicularDistance(point, lineStart, lineEnd Point) float64 {
	latScale := 111320.0
	lonScale := 111320.0 * math.Cos(point.Lat*math.Pi/180)

	x0, y0 := point.Lon*lonScale, point.Lat*latScale
	x1, y1 := lineStart.Lon*lonScale, lineStart.Lat*latScale
	x2, y2 := lineEnd.Lon*lonScale, lineEnd.Lat*latScale

	num := math.Abs((y2-y1)*x0 - (x2-x1)*y0 + x2*y1 - y2*x1)
	den := math.Sqrt((y2-y1)*(y2-y1) + (x2-x1)*(x2-x1))

	if den == 0 {
		return Haversine(point.Lat, point.Lon, lineStart.Lat, lineStart.Lon)
	}
	return num / den
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		totalDist += Haversine(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return totalDist
}
