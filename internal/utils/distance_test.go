package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	t.Run("identical points", func(t *testing.T) {
		assert.Zero(t, HaversineDistance(10.45, 77.5161, 10.45, 77.5161))
	})

	t.Run("symmetry", func(t *testing.T) {
		forward := HaversineDistance(10.0, 77.0, 10.45, 77.5161)
		backward := HaversineDistance(10.45, 77.5161, 10.0, 77.0)
		assert.InDelta(t, forward, backward, 1e-9)
	})

	t.Run("short walk near Palani", func(t *testing.T) {
		// One thousandth of a degree in both axes at 10N is roughly 156m.
		d := HaversineDistance(10.0, 77.0, 10.001, 77.001)
		assert.InDelta(t, 156.1, d, 1.0)
	})

	t.Run("Dindigul to Palani", func(t *testing.T) {
		d := HaversineDistance(10.3673, 77.9803, 10.45, 77.5161)
		assert.InDelta(t, 51500, d, 1000)
	})

	t.Run("monotonic along a straight path", func(t *testing.T) {
		prev := 0.0
		for i := 1; i <= 10; i++ {
			d := HaversineDistance(10.0, 77.0, 10.0, 77.0+float64(i)*0.01)
			assert.Greater(t, d, prev)
			prev = d
		}
	})
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name     string
		meters   float64
		expected string
	}{
		{"zero", 0, "0m"},
		{"fractional meters round", 12.4, "12m"},
		{"just under a kilometer", 950, "950m"},
		{"exactly a kilometer", 1000, "1.0km"},
		{"one and a half", 1500, "1.5km"},
		{"long distance", 12345, "12.3km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDistance(tt.meters))
		})
	}
}

func TestIsWithinRadius(t *testing.T) {
	// ~156m apart.
	assert.True(t, IsWithinRadius(10.0, 77.0, 10.001, 77.001, 200))
	assert.False(t, IsWithinRadius(10.0, 77.0, 10.001, 77.001, 100))
}

func TestCalculateBearing(t *testing.T) {
	assert.InDelta(t, 0, CalculateBearing(10.0, 77.0, 11.0, 77.0), 0.1)
	assert.InDelta(t, 180, CalculateBearing(11.0, 77.0, 10.0, 77.0), 0.1)
	assert.InDelta(t, 90, CalculateBearing(0.0, 77.0, 0.0, 78.0), 0.5)
}

func TestIsValidCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lng   float64
		valid bool
	}{
		{"Palani", 10.45, 77.5161, true},
		{"lat north boundary", 90, 0, true},
		{"lat south boundary", -90, 0, true},
		{"lng east boundary", 0, 180, true},
		{"lng west boundary", 0, -180, true},
		{"lat too high", 90.0001, 0, false},
		{"lat too low", -91, 0, false},
		{"lng too high", 0, 180.5, false},
		{"lng too low", 0, -181, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidCoordinates(tt.lat, tt.lng))
		})
	}
}
