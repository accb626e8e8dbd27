package config

import (
	"time"
)

type MapsConfig struct {
	GoogleMapsAPIKey string        `yaml:"google_maps_api_key"`
	GeocodeCacheTTL  time.Duration `yaml:"geocode_cache_ttl"`
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		GeocodeCacheTTL:  getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
	}
}
