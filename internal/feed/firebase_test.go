package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padayatra/internal/models"
)

func TestNewUpdatesWatermark(t *testing.T) {
	lastSeen := make(map[string]int64)

	snapshot := map[string]rtdbEntry{
		"u1": {UserName: "A", Latitude: 10.1, Longitude: 77.1, Timestamp: 100},
		"u2": {UserName: "B", Latitude: 10.2, Longitude: 77.2, Timestamp: 200},
	}

	updates := newUpdates(snapshot, lastSeen, models.ScopeAll)
	require.Len(t, updates, 2)
	// Ordered by user ID.
	assert.Equal(t, "u1", updates[0].UserID)
	assert.Equal(t, "u2", updates[1].UserID)

	// Unchanged snapshot delivers nothing.
	assert.Empty(t, newUpdates(snapshot, lastSeen, models.ScopeAll))

	// Only the user whose timestamp advanced comes through again.
	snapshot["u1"] = rtdbEntry{UserName: "A", Latitude: 10.15, Longitude: 77.15, Timestamp: 150}
	updates = newUpdates(snapshot, lastSeen, models.ScopeAll)
	require.Len(t, updates, 1)
	assert.Equal(t, "u1", updates[0].UserID)
	assert.InDelta(t, 10.15, updates[0].Latitude, 1e-9)

	// A rolled-back timestamp is stale and stays suppressed.
	snapshot["u1"] = rtdbEntry{UserName: "A", Timestamp: 120}
	assert.Empty(t, newUpdates(snapshot, lastSeen, models.ScopeAll))
}

func TestNewUpdatesScopeFilter(t *testing.T) {
	lastSeen := make(map[string]int64)

	snapshot := map[string]rtdbEntry{
		"u1": {GroupID: "g1", Timestamp: 100},
		"u2": {GroupID: "g2", Timestamp: 100},
		"u3": {Timestamp: 100},
	}

	updates := newUpdates(snapshot, lastSeen, models.GroupScope("g1"))
	require.Len(t, updates, 1)
	assert.Equal(t, "u1", updates[0].UserID)

	// Out-of-scope users were not watermarked and remain deliverable to a
	// wider scope.
	updates = newUpdates(snapshot, lastSeen, models.ScopeAll)
	require.Len(t, updates, 2)
	assert.Equal(t, "u2", updates[0].UserID)
	assert.Equal(t, "u3", updates[1].UserID)
}

func TestUpdateStatusMapping(t *testing.T) {
	lastSeen := make(map[string]int64)
	snapshot := map[string]rtdbEntry{
		"u1": {Status: "in_progress", IsTracking: true, TotalDistance: 500, Timestamp: 100},
	}

	updates := newUpdates(snapshot, lastSeen, models.ScopeAll)
	require.Len(t, updates, 1)
	assert.Equal(t, models.StatusInProgress, updates[0].Status)
	assert.True(t, updates[0].IsTracking)
	assert.InDelta(t, 500, updates[0].TotalDistance, 1e-9)
}
