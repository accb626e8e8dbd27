package config

import (
	"time"
)

// TrackingConfig pins the two product thresholds the dashboard depends on:
// a pilgrim is online iff their last sample is within OnlineWindow, and a
// position delta below MinMovementMeters is treated as GPS jitter and adds
// nothing to the running distance.
type TrackingConfig struct {
	OnlineWindow        time.Duration `yaml:"online_window"`
	MinMovementMeters   float64       `yaml:"min_movement_meters"`
	TempleSearchRadiusM float64       `yaml:"temple_search_radius_m"`
	AdminUserID         string        `yaml:"admin_user_id"`
}

func loadTrackingConfig() *TrackingConfig {
	return &TrackingConfig{
		OnlineWindow:        getEnvAsDuration("TRACKING_ONLINE_WINDOW", 60*time.Second),
		MinMovementMeters:   getEnvAsFloat64("TRACKING_MIN_MOVEMENT_METERS", 5),
		TempleSearchRadiusM: getEnvAsFloat64("TRACKING_TEMPLE_SEARCH_RADIUS_M", 500),
		AdminUserID:         getEnv("TRACKING_ADMIN_USER_ID", ""),
	}
}
