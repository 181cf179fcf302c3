package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitToTrack_TooFewPoints(t *testing.T) {
	_, ok := FitToTrack(nil, 48)
	assert.False(t, ok)

	_, ok = FitToTrack([]Point{{Lat: 47.1, Lon: 8.2}}, 48)
	assert.False(t, ok)
}

func TestFitToTrack_ContainsEveryPoint(t *testing.T) {
	points := []Point{
		{Lat: 47.3769, Lon: 8.5417},
		{Lat: 47.3800, Lon: 8.5300},
		{Lat: 47.3700, Lon: 8.5500},
		{Lat: 47.3820, Lon: 8.5450},
	}

	fit, ok := FitToTrack(points, 32)
	require.True(t, ok)

	for _, p := range points {
		assert.True(t, fit.Bounds.Contains(p), "point %+v outside bounds %+v", p, fit.Bounds)
	}
	assert.Equal(t, 32, fit.PaddingPx)
	assert.Equal(t, DefaultFitAnimationMs, fit.AnimationMs)
}

func TestFitToTrack_TwoPoints(t *testing.T) {
	fit, ok := FitToTrack([]Point{{Lat: 1, Lon: 2}, {Lat: -1, Lon: -2}}, 0)
	require.True(t, ok)

	assert.Equal(t, Bounds{MinLat: -1, MinLon: -2, MaxLat: 1, MaxLon: 2}, fit.Bounds)
	assert.Equal(t, Point{Lat: 0, Lon: 0}, fit.Bounds.Center())
}
