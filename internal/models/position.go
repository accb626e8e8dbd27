package models

import (
	"time"
)

// Position is a single GPS sample reported by a pilgrim's device.
// Timestamp is the device clock in Unix milliseconds, matching the payload
// shape of the mobile clients ({userId, latitude, longitude, timestamp}).
type Position struct {
	UserID    string  `json:"user_id" bson:"user_id"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

func (p Position) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// NewerThan reports whether this sample was taken strictly after other.
// Equal timestamps count as duplicates and are rejected by the accumulator.
func (p Position) NewerThan(other *Position) bool {
	if other == nil {
		return true
	}
	return p.Timestamp > other.Timestamp
}
