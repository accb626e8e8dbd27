package config

import (
	"time"
)

// FirebaseConfig covers both uses of the Firebase project: the Realtime
// Database node the mobile apps write live positions to, and FCM for
// milestone notifications. Both are optional; either is disabled when its
// setting is empty.
type FirebaseConfig struct {
	CredentialsFile string        `yaml:"credentials_file"`
	DatabaseURL     string        `yaml:"database_url"`
	LocationsPath   string        `yaml:"locations_path"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	PushEnabled     bool          `yaml:"push_enabled"`
}

func loadFirebaseConfig() *FirebaseConfig {
	return &FirebaseConfig{
		CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		DatabaseURL:     getEnv("FIREBASE_DATABASE_URL", ""),
		LocationsPath:   getEnv("FIREBASE_LOCATIONS_PATH", "locations"),
		PollInterval:    getEnvAsDuration("FIREBASE_POLL_INTERVAL", 5*time.Second),
		PushEnabled:     getEnvAsBool("FIREBASE_PUSH_ENABLED", false),
	}
}
