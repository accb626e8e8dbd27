package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPositionNewerThan(t *testing.T) {
	base := Position{UserID: "u1", Latitude: 10.45, Longitude: 77.51, Timestamp: 1000}

	t.Run("nil stored position", func(t *testing.T) {
		assert.True(t, base.NewerThan(nil))
	})

	t.Run("strictly newer", func(t *testing.T) {
		stored := Position{Timestamp: 999}
		assert.True(t, base.NewerThan(&stored))
	})

	t.Run("equal timestamps are duplicates", func(t *testing.T) {
		stored := Position{Timestamp: 1000}
		assert.False(t, base.NewerThan(&stored))
	})

	t.Run("older", func(t *testing.T) {
		stored := Position{Timestamp: 1001}
		assert.False(t, base.NewerThan(&stored))
	})
}

func TestPositionTime(t *testing.T) {
	ts := time.Date(2025, 7, 14, 6, 30, 0, 0, time.UTC)
	p := Position{Timestamp: ts.UnixMilli()}
	assert.Equal(t, ts, p.Time().UTC())
}
