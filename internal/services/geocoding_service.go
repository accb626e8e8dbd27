package services

import (
	"context"
	"fmt"
	"time"

	"padayatra/pkg/cache"
	"padayatra/pkg/logger"
	"padayatra/pkg/maps"
)

// GeocodingService resolves coordinates to a human-readable place name for
// the dashboard. Lookups are cached in Redis keyed on a coordinate grid of
// roughly 100m, which keeps a walking group from hammering the Maps API.
type GeocodingService struct {
	provider maps.MapsProvider
	cache    *cache.RedisCache
	ttl      time.Duration
	log      *logger.Logger
}

func NewGeocodingService(provider maps.MapsProvider, c *cache.RedisCache, ttl time.Duration, log *logger.Logger) *GeocodingService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GeocodingService{
		provider: provider,
		cache:    c,
		ttl:      ttl,
		log:      log,
	}
}

func geocodeCacheKey(lat, lng float64) string {
	// Three decimal places is ~110m of latitude, close enough for a place
	// name.
	return fmt.Sprintf("geocode:%.3f:%.3f", lat, lng)
}

// PlaceName returns the formatted address for a point, or "" when no
// provider is configured or nothing resolves. Errors are returned so callers
// can decide whether the name is worth failing over.
func (s *GeocodingService) PlaceName(ctx context.Context, lat, lng float64) (string, error) {
	if s.provider == nil {
		return "", nil
	}

	key := geocodeCacheKey(lat, lng)
	if s.cache != nil {
		var cached string
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	resp, err := s.provider.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return "", fmt.Errorf("reverse geocode failed: %w", err)
	}

	place := resp.FirstAddress()
	if place == "" {
		return "", nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, place, s.ttl); err != nil {
			s.log.WithError(err).Debug("Failed to cache geocode result")
		}
	}

	return place, nil
}
