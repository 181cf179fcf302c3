package spatial

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Contains reports whether the point lies inside the box (inclusive).
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Point {
	return Point{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// DefaultFitAnimationMs is how long the map camera animates when fitting a track.
const DefaultFitAnimationMs = 500

// FitBounds is a bounding box plus the camera metadata needed to frame it.
type FitBounds struct {
	Bounds      Bounds `json:"bounds"`
	PaddingPx   int    `json:"paddingPx"`
	AnimationMs int    `json:"animationMs"`
}

// FitToTrack computes the bounding box containing every point of a track,
// with camera padding. The second return value is false for 0 or 1 points:
// there is nothing meaningful to fit and the caller should fall back to a
// fixed default zoom.
func FitToTrack(points []Point, paddingPx int) (FitBounds, bool) {
	if len(points) < 2 {
		return FitBounds{}, false
	}

	b := Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Lon < b.MinLon {
			b.MinLon = p.Lon
		}
		if p.Lon > b.MaxLon {
			b.MaxLon = p.Lon
		}
	}

	return FitBounds{
		Bounds:      b,
		PaddingPx:   paddingPx,
		AnimationMs: DefaultFitAnimationMs,
	}, true
}
