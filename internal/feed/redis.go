package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"padayatra/internal/models"
	"padayatra/pkg/cache"
	"padayatra/pkg/logger"
)

const channelPrefix = "tracking:"

// RedisFeed carries position updates over Redis pub/sub so every server
// instance sees the same live view regardless of which instance a device is
// connected to.
type RedisFeed struct {
	cache *cache.RedisCache
	log   *logger.Logger
}

func NewRedisFeed(c *cache.RedisCache, log *logger.Logger) *RedisFeed {
	return &RedisFeed{cache: c, log: log}
}

func scopeChannel(scope models.TrackingScope) string {
	return channelPrefix + string(scope)
}

// Publish fans the update out to each scope channel it belongs to: the
// global channel, the user's own channel, and the group channel if any.
func (f *RedisFeed) Publish(ctx context.Context, update Update) error {
	channels := []models.TrackingScope{
		models.ScopeAll,
		models.UserScope(update.UserID),
	}
	if update.GroupID != "" {
		channels = append(channels, models.GroupScope(update.GroupID))
	}

	for _, scope := range channels {
		if err := f.cache.Publish(ctx, scopeChannel(scope), update); err != nil {
			return fmt.Errorf("failed to publish position update: %w", err)
		}
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, scope models.TrackingScope) (Subscription, error) {
	if !scope.IsValid() {
		return nil, fmt.Errorf("invalid tracking scope %q", scope)
	}

	pubsub := f.cache.Subscribe(ctx, scopeChannel(scope))

	// Force the SUBSCRIBE round-trip so connection failures surface here
	// instead of as a silent empty stream.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("feed subscription failed: %w", err)
	}

	sub := &redisSubscription{
		updates: make(chan Update, 64),
		errs:    make(chan error, 1),
		close:   pubsub.Close,
	}

	go func() {
		defer close(sub.updates)
		for msg := range pubsub.Channel() {
			var update Update
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				f.log.WithError(err).Warn("Dropping malformed feed payload")
				continue
			}
			select {
			case sub.updates <- update:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

type redisSubscription struct {
	updates chan Update
	errs    chan error
	close   func() error
}

func (s *redisSubscription) Updates() <-chan Update { return s.updates }
func (s *redisSubscription) Errors() <-chan error   { return s.errs }
func (s *redisSubscription) Close() error           { return s.close() }
