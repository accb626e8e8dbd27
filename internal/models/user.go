package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserType string
type PathayathiraiStatus string

const (
	UserTypePilgrim UserType = "pilgrim"
	UserTypeAdmin   UserType = "admin"

	StatusNotStarted PathayathiraiStatus = "not_started"
	StatusInProgress PathayathiraiStatus = "in_progress"
	StatusCompleted  PathayathiraiStatus = "completed"
)

// CanTransitionTo guards the journey lifecycle: a pilgrimage is started,
// completed, and may only be restarted after completion.
func (s PathayathiraiStatus) CanTransitionTo(next PathayathiraiStatus) bool {
	switch s {
	case StatusNotStarted:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	case StatusCompleted:
		return next == StatusInProgress
	}
	return false
}

func (s PathayathiraiStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type VisitedTemple struct {
	TempleID  primitive.ObjectID `json:"temple_id" bson:"temple_id"`
	VisitedAt time.Time          `json:"visited_at" bson:"visited_at"`
}

type User struct {
	ID                  primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name                string              `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email               string              `json:"email" bson:"email" validate:"required,email"`
	Phone               string              `json:"phone" bson:"phone"`
	UserType            UserType            `json:"user_type" bson:"user_type" default:"pilgrim"`
	GroupID             string              `json:"group_id" bson:"group_id"`
	DeviceToken         string              `json:"-" bson:"device_token"`
	IsTracking          bool                `json:"is_tracking" bson:"is_tracking"`
	PathayathiraiStatus PathayathiraiStatus `json:"pathayathirai_status" bson:"pathayathirai_status" default:"not_started"`
	TotalDistance       float64             `json:"total_distance" bson:"total_distance"`
	VisitedTemples      []VisitedTemple     `json:"visited_temples" bson:"visited_temples"`
	CurrentLocation     *Position           `json:"current_location" bson:"current_location"`
	CreatedAt           time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" bson:"updated_at"`
}

// UserFilter narrows a user listing; zero values mean no constraint.
type UserFilter struct {
	GroupID      string
	UserType     UserType
	TrackingOnly bool
}

func (u *User) HasVisited(templeID primitive.ObjectID) bool {
	for _, v := range u.VisitedTemples {
		if v.TempleID == templeID {
			return true
		}
	}
	return false
}
