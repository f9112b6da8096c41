package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDistanceZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, CalculateDistance(9.93, 76.27, 9.93, 76.27))
}

func TestCalculateDistanceSymmetry(t *testing.T) {
	d1 := CalculateDistance(9.93, 76.27, 12.97, 77.59)
	d2 := CalculateDistance(12.97, 77.59, 9.93, 76.27)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestCalculateDistanceKnownValues(t *testing.T) {
	// One degree of longitude on the equator is about 111.19 km.
	assert.InDelta(t, 111.19, CalculateDistance(0, 0, 0, 1), 0.05)

	// Kochi to Bangalore, roughly 360 km great-circle.
	assert.InDelta(t, 360, CalculateDistance(9.9312, 76.2673, 12.9716, 77.5946), 10)
}

func TestIsWithinRadius(t *testing.T) {
	assert.True(t, IsWithinRadius(9.93, 76.27, 9.94, 76.28, 5))
	assert.False(t, IsWithinRadius(9.93, 76.27, 12.97, 77.59, 5))
}

func TestEstimateETAMinutes(t *testing.T) {
	assert.Equal(t, 60, EstimateETAMinutes(30, 30))
	assert.Equal(t, 20, EstimateETAMinutes(10, 0), "zero speed falls back to the city default")
}
