package utils

import "time"

// Application Constants
const (
	AppName    = "Padayatra"
	AppVersion = "1.0.0"

	// Response statuses
	StatusSuccess = "success"
	StatusError   = "error"

	// Common error messages
	ErrInternalServer = "Internal server error"

	// Tracking defaults
	DefaultOnlineWindow        = 60 * time.Second
	DefaultMinMovementMeters   = 5.0
	DefaultTempleSearchRadiusM = 500.0
	DefaultFeedPollInterval    = 5 * time.Second
)
