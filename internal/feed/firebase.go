package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"

	"padayatra/internal/models"
	"padayatra/pkg/logger"
)

// FirebaseFeed reads live positions from the Realtime Database node the
// mobile apps write to. The Go admin SDK has no streaming listener, so the
// feed polls the node and emits only entries newer than the last delivered
// timestamp per user.
type FirebaseFeed struct {
	client       *db.Client
	path         string
	pollInterval time.Duration
	log          *logger.Logger
}

// rtdbEntry mirrors the per-user record the mobile clients keep under
// /locations/{userId}.
type rtdbEntry struct {
	UserName      string  `json:"userName"`
	UserEmail     string  `json:"userEmail"`
	GroupID       string  `json:"groupId"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Timestamp     int64   `json:"timestamp"`
	IsTracking    bool    `json:"isTracking"`
	Status        string  `json:"pathayathiraiStatus"`
	TotalDistance float64 `json:"totalDistance"`
}

func NewFirebaseFeed(ctx context.Context, app *firebase.App, databaseURL, path string, pollInterval time.Duration, log *logger.Logger) (*FirebaseFeed, error) {
	client, err := app.DatabaseWithURL(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get realtime database client: %w", err)
	}

	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &FirebaseFeed{
		client:       client,
		path:         path,
		pollInterval: pollInterval,
		log:          log,
	}, nil
}

func (f *FirebaseFeed) Subscribe(ctx context.Context, scope models.TrackingScope) (Subscription, error) {
	if !scope.IsValid() {
		return nil, fmt.Errorf("invalid tracking scope %q", scope)
	}

	sub := &firebaseSubscription{
		updates: make(chan Update, 64),
		errs:    make(chan error, 1),
	}
	pollCtx, cancel := context.WithCancel(ctx)
	sub.cancel = cancel

	go f.poll(pollCtx, scope, sub)

	return sub, nil
}

func (f *FirebaseFeed) poll(ctx context.Context, scope models.TrackingScope, sub *firebaseSubscription) {
	defer close(sub.updates)

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	lastSeen := make(map[string]int64)

	for {
		var entries map[string]rtdbEntry
		if err := f.client.NewRef(f.path).Get(ctx, &entries); err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case sub.errs <- fmt.Errorf("realtime database read failed: %w", err):
			default:
			}
			return
		}

		for _, update := range newUpdates(entries, lastSeen, scope) {
			select {
			case sub.updates <- update:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// newUpdates diffs a snapshot against the delivered watermark, returning
// in-scope entries with a strictly newer timestamp, ordered by user ID for
// deterministic delivery.
func newUpdates(entries map[string]rtdbEntry, lastSeen map[string]int64, scope models.TrackingScope) []Update {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var updates []Update
	for _, id := range ids {
		entry := entries[id]
		if !scope.Matches(id, entry.GroupID) {
			continue
		}
		if entry.Timestamp <= lastSeen[id] {
			continue
		}
		lastSeen[id] = entry.Timestamp

		updates = append(updates, Update{
			UserID:        id,
			UserName:      entry.UserName,
			UserEmail:     entry.UserEmail,
			GroupID:       entry.GroupID,
			Latitude:      entry.Latitude,
			Longitude:     entry.Longitude,
			Timestamp:     entry.Timestamp,
			IsTracking:    entry.IsTracking,
			Status:        models.PathayathiraiStatus(entry.Status),
			TotalDistance: entry.TotalDistance,
		})
	}
	return updates
}

type firebaseSubscription struct {
	updates chan Update
	errs    chan error
	cancel  context.CancelFunc
}

func (s *firebaseSubscription) Updates() <-chan Update { return s.updates }
func (s *firebaseSubscription) Errors() <-chan error   { return s.errs }

func (s *firebaseSubscription) Close() error {
	s.cancel()
	return nil
}
