package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"padayatra/internal/feed"
	"padayatra/internal/models"
	"padayatra/internal/utils"
	"padayatra/pkg/logger"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

type Config struct {
	OnlineWindow time.Duration
	AdminUserID  string
}

// Tracker is the live aggregator behind the admin dashboard: it follows one
// scope on the position feed, keeps the latest complete record per pilgrim,
// and derives online status, distance-from-admin and summary statistics on
// read. It does not retry a dropped feed; restarting is the caller's call.
type Tracker struct {
	feedSource feed.Feed
	log        *logger.Logger
	cfg        Config
	now        func() time.Time
	notify     func(models.UserLocationState)

	mu       sync.RWMutex
	state    State
	lastErr  string
	scope    models.TrackingScope
	entries  map[string]feed.Update
	adminLoc *utils.Point
	session  *session
}

type session struct {
	sub    feed.Subscription
	cancel context.CancelFunc
}

func New(feedSource feed.Feed, cfg Config, log *logger.Logger) *Tracker {
	if cfg.OnlineWindow <= 0 {
		cfg.OnlineWindow = utils.DefaultOnlineWindow
	}
	return &Tracker{
		feedSource: feedSource,
		log:        log,
		cfg:        cfg,
		now:        time.Now,
		state:      StateDisconnected,
		entries:    make(map[string]feed.Update),
	}
}

// SetNotify registers a callback invoked with the derived state after every
// applied update. Must be set before Start.
func (t *Tracker) SetNotify(fn func(models.UserLocationState)) {
	t.notify = fn
}

func (t *Tracker) Start(ctx context.Context, scope models.TrackingScope) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return fmt.Errorf("tracking already started for scope %q", t.scope)
	}
	if !scope.IsValid() {
		return fmt.Errorf("invalid tracking scope %q", scope)
	}

	t.state = StateConnecting
	t.lastErr = ""
	t.scope = scope

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := t.feedSource.Subscribe(subCtx, scope)
	if err != nil {
		cancel()
		t.state = StateDisconnected
		t.lastErr = err.Error()
		return fmt.Errorf("failed to start tracking: %w", err)
	}

	s := &session{sub: sub, cancel: cancel}
	t.session = s
	go t.consume(s)

	t.log.WithScope(string(scope)).Info("Tracking started")
	return nil
}

// Stop tears the subscription down and discards the in-memory view. It is
// idempotent, and no feed delivery may mutate state after it returns.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		t.session.cancel()
		t.session.sub.Close()
		t.session = nil
		t.log.WithScope(string(t.scope)).Info("Tracking stopped")
	}

	t.state = StateDisconnected
	t.lastErr = ""
	t.entries = make(map[string]feed.Update)
	t.adminLoc = nil
}

func (t *Tracker) consume(s *session) {
	for {
		select {
		case update, ok := <-s.sub.Updates():
			if !ok {
				t.fail(s, "feed stream closed")
				return
			}
			t.handleFrom(s, update)
		case err := <-s.sub.Errors():
			t.fail(s, err.Error())
			return
		}
	}
}

// fail records a dropped feed. A session that is no longer current lost a
// race with Stop or a restart and its failure is ignored.
func (t *Tracker) fail(s *session, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != s {
		return
	}
	t.session.cancel()
	t.session.sub.Close()
	t.session = nil
	t.state = StateDisconnected
	t.lastErr = msg
	t.log.WithScope(string(t.scope)).Errorf("Tracking feed dropped: %s", msg)
}

// Handle applies one feed update through the public path (websocket ingest
// delivers here directly). Updates arriving while no session is active are
// dropped.
func (t *Tracker) Handle(update feed.Update) {
	t.mu.Lock()
	s := t.session
	t.mu.Unlock()
	if s == nil {
		return
	}
	t.handleFrom(s, update)
}

func (t *Tracker) handleFrom(s *session, update feed.Update) {
	t.mu.Lock()

	if t.session != s {
		t.mu.Unlock()
		return
	}

	// Per-user isolation: a bad record is dropped without touching the
	// rest of the view.
	if !utils.IsValidCoordinates(update.Latitude, update.Longitude) {
		t.mu.Unlock()
		t.log.WithUserID(update.UserID).Warnf("Rejecting out-of-range coordinates (%f, %f)", update.Latitude, update.Longitude)
		return
	}
	if !t.scope.Matches(update.UserID, update.GroupID) {
		t.mu.Unlock()
		return
	}

	if t.state == StateConnecting {
		t.state = StateConnected
	}

	// Whole-record upsert; the feed never delivers partial merges.
	t.entries[update.UserID] = update

	if t.cfg.AdminUserID != "" && update.UserID == t.cfg.AdminUserID {
		t.adminLoc = &utils.Point{Lat: update.Latitude, Lng: update.Longitude}
	}

	notify := t.notify
	var derived models.UserLocationState
	if notify != nil {
		derived = t.deriveLocked(update)
	}
	t.mu.Unlock()

	if notify != nil {
		notify(derived)
	}
}

// SetAdminLocation overrides the reference point used for distance-from-admin
// when the admin is not reporting over the feed.
func (t *Tracker) SetAdminLocation(lat, lng float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adminLoc = &utils.Point{Lat: lat, Lng: lng}
}

func (t *Tracker) State() (State, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.lastErr
}

func (t *Tracker) Scope() models.TrackingScope {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scope
}

// Locations returns the derived view, ordered by user name then ID so the
// dashboard list is stable between refreshes.
func (t *Tracker) Locations() []models.UserLocationState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	states := make([]models.UserLocationState, 0, len(t.entries))
	for _, update := range t.entries {
		states = append(states, t.deriveLocked(update))
	}

	sort.Slice(states, func(i, j int) bool {
		if states[i].UserName != states[j].UserName {
			return states[i].UserName < states[j].UserName
		}
		return states[i].UserID < states[j].UserID
	})

	return states
}

// Stats folds the current view into dashboard totals. The average covers
// only entries with a defined distance-from-admin and is 0, never NaN, when
// there are none.
func (t *Tracker) Stats() models.TrackingStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := models.TrackingStats{Total: len(t.entries)}

	var distanceSum float64
	var distanceCount int
	points := make([]utils.Point, 0, len(t.entries))
	for _, update := range t.entries {
		state := t.deriveLocked(update)
		if state.IsOnline {
			stats.Online++
		}
		if state.IsTracking {
			stats.Tracking++
		}
		if state.DistanceFromAdmin != nil {
			distanceSum += *state.DistanceFromAdmin
			distanceCount++
		}
		points = append(points, utils.Point{Lat: update.Latitude, Lng: update.Longitude})
	}

	if distanceCount > 0 {
		stats.AverageDistance = distanceSum / float64(distanceCount)
	}
	if len(points) > 0 {
		center := utils.CalculateCenter(points)
		stats.Center = &center
	}

	return stats
}

func (t *Tracker) deriveLocked(update feed.Update) models.UserLocationState {
	lastSeen := time.UnixMilli(update.Timestamp)

	state := models.UserLocationState{
		UserID:              update.UserID,
		UserName:            update.UserName,
		UserEmail:           update.UserEmail,
		GroupID:             update.GroupID,
		Latitude:            update.Latitude,
		Longitude:           update.Longitude,
		PlaceName:           update.PlaceName,
		LastSeen:            lastSeen,
		IsOnline:            t.now().Sub(lastSeen) <= t.cfg.OnlineWindow,
		IsTracking:          update.IsTracking,
		TotalDistance:       update.TotalDistance,
		PathayathiraiStatus: update.Status,
	}

	if t.adminLoc != nil {
		pt := utils.Point{Lat: update.Latitude, Lng: update.Longitude}
		d := t.adminLoc.DistanceTo(pt)
		b := t.adminLoc.BearingTo(pt)
		state.DistanceFromAdmin = &d
		state.BearingFromAdmin = &b
	}

	return state
}
