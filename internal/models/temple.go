package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Temple is a stop along the padayatra route. Order runs from the starting
// point towards Palani; VisitRadiusM is the distance within which a reported
// position counts as a visit.
type Temple struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name" validate:"required"`
	Description  string             `json:"description" bson:"description"`
	District     string             `json:"district" bson:"district"`
	State        string             `json:"state" bson:"state"`
	Location     Location           `json:"location" bson:"location"`
	VisitRadiusM float64            `json:"visit_radius_m" bson:"visit_radius_m"`
	Order        int                `json:"order" bson:"order"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

const DefaultVisitRadiusM = 100.0

func (t *Temple) Radius() float64 {
	if t.VisitRadiusM > 0 {
		return t.VisitRadiusM
	}
	return DefaultVisitRadiusM
}
