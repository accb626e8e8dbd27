package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointDistanceAndBearing(t *testing.T) {
	admin := Point{Lat: 10.0, Lng: 77.0}
	pilgrim := Point{Lat: 10.001, Lng: 77.001}

	assert.InDelta(t, 156.1, admin.DistanceTo(pilgrim), 1.0)
	assert.InDelta(t, 44.6, admin.BearingTo(pilgrim), 1.0)
	assert.Zero(t, admin.DistanceTo(admin))
}

func TestCalculateCenter(t *testing.T) {
	assert.Equal(t, Point{}, CalculateCenter(nil))

	center := CalculateCenter([]Point{
		{Lat: 10.0, Lng: 77.0},
		{Lat: 10.001, Lng: 77.001},
	})
	assert.InDelta(t, 10.0005, center.Lat, 1e-9)
	assert.InDelta(t, 77.0005, center.Lng, 1e-9)
}
