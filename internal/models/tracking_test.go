package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackingScopeIsValid(t *testing.T) {
	assert.True(t, ScopeAll.IsValid())
	assert.True(t, GroupScope("g1").IsValid())
	assert.True(t, UserScope("u1").IsValid())
	assert.False(t, TrackingScope("").IsValid())
	assert.False(t, TrackingScope("group:").IsValid())
	assert.False(t, TrackingScope("user:").IsValid())
	assert.False(t, TrackingScope("everything").IsValid())
}

func TestTrackingScopeMatches(t *testing.T) {
	tests := []struct {
		name    string
		scope   TrackingScope
		userID  string
		groupID string
		matches bool
	}{
		{"all matches anyone", ScopeAll, "u1", "", true},
		{"group scope matches member", GroupScope("g1"), "u1", "g1", true},
		{"group scope rejects other group", GroupScope("g1"), "u1", "g2", false},
		{"group scope rejects groupless user", GroupScope("g1"), "u1", "", false},
		{"user scope matches that user", UserScope("u1"), "u1", "g1", true},
		{"user scope rejects others", UserScope("u1"), "u2", "g1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.scope.Matches(tt.userID, tt.groupID))
		})
	}
}
