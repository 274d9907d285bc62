package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKMZeroForSamePoint(t *testing.T) {
	assert.Zero(t, DistanceKM(51.5074, -0.1278, 51.5074, -0.1278))
}

func TestDistanceKMSymmetric(t *testing.T) {
	a := DistanceKM(51.5074, -0.1278, 53.4808, -2.2426)
	b := DistanceKM(53.4808, -2.2426, 51.5074, -0.1278)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceKMKnownDistance(t *testing.T) {
	// London to Manchester, roughly 262 km great-circle.
	km := DistanceKM(51.5074, -0.1278, 53.4808, -2.2426)
	assert.InDelta(t, 262.0, km, 2.0)
}

func TestMileConversionRoundTrip(t *testing.T) {
	assert.InDelta(t, 10.0, MilesFromKM(KMFromMiles(10.0)), 1e-9)
	assert.InDelta(t, 16.09344, KMFromMiles(10.0), 1e-9)
}

func TestWithinRadius(t *testing.T) {
	assert.True(t, WithinRadius(16.0, 10.0))
	assert.True(t, WithinRadius(16.09344, 10.0))
	assert.False(t, WithinRadius(16.1, 10.0))
}
