package models

import (
	"strings"
	"time"

	"padayatra/internal/utils"
)

// TrackingScope selects which pilgrims a live view follows: everyone, one
// group, or a single user.
type TrackingScope string

const ScopeAll TrackingScope = "all"

func GroupScope(groupID string) TrackingScope {
	return TrackingScope("group:" + groupID)
}

func UserScope(userID string) TrackingScope {
	return TrackingScope("user:" + userID)
}

func (s TrackingScope) IsValid() bool {
	if s == ScopeAll {
		return true
	}
	rest, ok := strings.CutPrefix(string(s), "group:")
	if !ok {
		rest, ok = strings.CutPrefix(string(s), "user:")
	}
	return ok && rest != ""
}

// Matches reports whether an update for the given user and group belongs to
// this scope.
func (s TrackingScope) Matches(userID, groupID string) bool {
	switch {
	case s == ScopeAll:
		return true
	case s == GroupScope(groupID) && groupID != "":
		return true
	case s == UserScope(userID):
		return true
	}
	return false
}

// UserLocationState is the aggregator's in-memory view of one pilgrim. It is
// rebuilt from feed updates and discarded when tracking stops; only the
// running totals on the user record survive across sessions.
type UserLocationState struct {
	UserID              string              `json:"user_id"`
	UserName            string              `json:"user_name"`
	UserEmail           string              `json:"user_email"`
	GroupID             string              `json:"group_id,omitempty"`
	Latitude            float64             `json:"latitude"`
	Longitude           float64             `json:"longitude"`
	PlaceName           string              `json:"place_name,omitempty"`
	LastSeen            time.Time           `json:"last_seen"`
	IsOnline            bool                `json:"is_online"`
	IsTracking          bool                `json:"is_tracking"`
	TotalDistance       float64             `json:"total_distance"`
	DistanceFromAdmin   *float64            `json:"distance_from_admin,omitempty"`
	BearingFromAdmin    *float64            `json:"bearing_from_admin,omitempty"`
	PathayathiraiStatus PathayathiraiStatus `json:"pathayathirai_status"`
}

// TrackingStats summarizes the live view. Center is the midpoint of all
// tracked positions, for the dashboard map; nil while the view is empty.
type TrackingStats struct {
	Total           int          `json:"total"`
	Online          int          `json:"online"`
	Tracking        int          `json:"tracking"`
	AverageDistance float64      `json:"average_distance"`
	Center          *utils.Point `json:"center,omitempty"`
}
