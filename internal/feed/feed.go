package feed

import (
	"context"

	"padayatra/internal/models"
)

// Update is one complete position+metadata record for a pilgrim. Feeds
// always deliver whole records; the aggregator upserts them as a unit and
// never merges partial fields.
type Update struct {
	UserID        string                     `json:"user_id"`
	UserName      string                     `json:"user_name"`
	UserEmail     string                     `json:"user_email"`
	GroupID       string                     `json:"group_id,omitempty"`
	Latitude      float64                    `json:"latitude"`
	Longitude     float64                    `json:"longitude"`
	Timestamp     int64                      `json:"timestamp"`
	IsTracking    bool                       `json:"is_tracking"`
	Status        models.PathayathiraiStatus `json:"status"`
	TotalDistance float64                    `json:"total_distance"`
	PlaceName     string                     `json:"place_name,omitempty"`
}

func (u Update) Position() models.Position {
	return models.Position{
		UserID:    u.UserID,
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
		Timestamp: u.Timestamp,
	}
}

// Subscription is a live stream of updates for one scope. Updates is closed
// when the subscription ends; a delivery on Errors means the stream dropped
// and will not recover on its own.
type Subscription interface {
	Updates() <-chan Update
	Errors() <-chan error
	Close() error
}

type Feed interface {
	Subscribe(ctx context.Context, scope models.TrackingScope) (Subscription, error)
}

// Publisher pushes an update out to every scope it belongs to.
type Publisher interface {
	Publish(ctx context.Context, update Update) error
}
