package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zigzagTrack builds a track that alternates a few meters around a straight
// south-north line, so a tolerant simplification can drop points.
func zigzagTrack(n int) []Point {
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		lon := 0.0
		if i%2 == 1 {
			lon = 0.00001 // ~1.1 m off the line
		}
		points[i] = Point{Lat: float64(i) * 0.0001, Lon: lon}
	}
	return points
}

func TestSimplifyTrack_SmallInputUnchanged(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"single point", 1},
		{"two points", 2},
		{"just below gate", 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := zigzagTrack(tt.n)
			out := SimplifyTrack(in, DefaultSimplifyToleranceMeters)
			assert.Equal(t, in, out)
		})
	}
}

func TestSimplifyTrack_ReducesLargeTrack(t *testing.T) {
	in := zigzagTrack(200)
	out := SimplifyTrack(in, DefaultSimplifyToleranceMeters)

	require.NotEmpty(t, out)
	assert.Less(t, len(out), len(in))
	assert.Equal(t, in[0], out[0])
	assert.Equal(t, in[len(in)-1], out[len(out)-1])
}

func TestSimplifyTrack_RetainsSharpCorner(t *testing.T) {
	// A right-angle route: the corner point is far from the chord between
	// the endpoints and must survive.
	var in []Point
	for i := 0; i < 100; i++ {
		in = append(in, Point{Lat: float64(i) * 0.0001, Lon: 0})
	}
	for i := 1; i <= 100; i++ {
		in = append(in, Point{Lat: 0.0099, Lon: float64(i) * 0.0001})
	}
	corner := Point{Lat: 0.0099, Lon: 0}

	out := SimplifyTrack(in, DefaultSimplifyToleranceMeters)

	assert.Less(t, len(out), len(in))
	assert.Contains(t, out, corner)
}

func TestSimplifyTrack_OutputIsSubsequence(t *testing.T) {
	in := zigzagTrack(150)
	out := SimplifyTrack(in, 5.0)

	j := 0
	for _, p := range out {
		found := false
		for j < len(in) {
			if in[j] == p {
				found = true
				j++
				break
			}
			j++
		}
		require.True(t, found, "output point %+v not in input order", p)
	}
}

func TestSimplifyTrack_ZeroToleranceUsesDefault(t *testing.T) {
	in := zigzagTrack(200)
	assert.Equal(t, SimplifyTrack(in, DefaultSimplifyToleranceMeters), SimplifyTrack(in, 0))
}

func TestPathLength(t *testing.T) {
	points := []Point{{0, 0}, {0, 0.001}, {0, 0.002}}
	assert.InDelta(t, 222.4, PathLength(points), 2.0)
	assert.Zero(t, PathLength(points[:1]))
}
