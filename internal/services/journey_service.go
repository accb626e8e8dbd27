package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/feed"
	"padayatra/internal/models"
	"padayatra/internal/repositories/interfaces"
	"padayatra/internal/utils"
	"padayatra/pkg/logger"
	"padayatra/pkg/push"
)

type JourneyConfig struct {
	// MinMovementMeters is the jitter threshold: a move smaller than this
	// refreshes liveness but never accumulates distance.
	MinMovementMeters float64
	// TempleSearchRadiusM bounds the geo query for nearby temples on each
	// applied report.
	TempleSearchRadiusM float64
}

// JourneyService is the server-side source of truth for pilgrimage progress:
// it applies position reports idempotently, accumulates walked distance,
// records temple visits and drives the journey lifecycle. The client only
// reports raw positions; everything derived lives here.
type JourneyService struct {
	users     interfaces.UserRepository
	temples   interfaces.TempleRepository
	publisher feed.Publisher
	push      push.PushProvider
	geocoding *GeocodingService
	cfg       JourneyConfig
	log       *logger.Logger
}

func NewJourneyService(
	users interfaces.UserRepository,
	temples interfaces.TempleRepository,
	publisher feed.Publisher,
	pushProvider push.PushProvider,
	geocoding *GeocodingService,
	cfg JourneyConfig,
	log *logger.Logger,
) *JourneyService {
	if cfg.MinMovementMeters <= 0 {
		cfg.MinMovementMeters = utils.DefaultMinMovementMeters
	}
	if cfg.TempleSearchRadiusM <= 0 {
		cfg.TempleSearchRadiusM = utils.DefaultTempleSearchRadiusM
	}
	return &JourneyService{
		users:     users,
		temples:   temples,
		publisher: publisher,
		push:      pushProvider,
		geocoding: geocoding,
		cfg:       cfg,
		log:       log,
	}
}

// PositionResult reports what one position did to the journey. Applied is
// false for duplicates and out-of-order reports, which are dropped without
// error so clients can replay buffered positions safely.
type PositionResult struct {
	Applied       bool           `json:"applied"`
	DeltaMeters   float64        `json:"delta_meters"`
	TotalDistance float64        `json:"total_distance"`
	VisitedTemple *models.Temple `json:"visited_temple,omitempty"`
}

// PositionReport pairs a user with one reported position, used by the batch
// endpoint.
type PositionReport struct {
	UserID   primitive.ObjectID `json:"user_id"`
	Position models.Position    `json:"position"`
}

// BatchResult carries the per-report outcome; one bad report never blocks
// the rest of the batch.
type BatchResult struct {
	UserID primitive.ObjectID `json:"user_id"`
	Result *PositionResult    `json:"result,omitempty"`
	Err    error              `json:"-"`
}

// ReportPosition applies one position report. Replays of the same position
// and reports older than the stored one accumulate nothing, whether retried
// by the client or raced by another server instance: the distance increment
// and the position swap commit in a single conditional write keyed on the
// stored timestamp.
func (s *JourneyService) ReportPosition(ctx context.Context, userID primitive.ObjectID, pos models.Position) (*PositionResult, error) {
	if !utils.IsValidCoordinates(pos.Latitude, pos.Longitude) {
		return nil, ErrInvalidCoordinate
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &PositionResult{TotalDistance: user.TotalDistance}

	if user.CurrentLocation != nil && !pos.NewerThan(user.CurrentLocation) {
		return result, nil
	}

	if user.CurrentLocation == nil {
		// First report anchors the journey; no distance yet.
		applied, err := s.users.ApplyPosition(ctx, userID, pos, 0)
		if err != nil {
			return nil, err
		}
		result.Applied = applied
	} else {
		delta := utils.HaversineDistance(
			user.CurrentLocation.Latitude, user.CurrentLocation.Longitude,
			pos.Latitude, pos.Longitude,
		)

		if delta < s.cfg.MinMovementMeters {
			// Jitter: refresh liveness only. The anchor coordinates stay
			// put so slow drift cannot creep past the threshold.
			applied, err := s.users.TouchPosition(ctx, userID, pos.Timestamp)
			if err != nil {
				return nil, err
			}
			result.Applied = applied
		} else {
			applied, err := s.users.ApplyPosition(ctx, userID, pos, delta)
			if err != nil {
				return nil, err
			}
			if applied {
				result.Applied = true
				result.DeltaMeters = delta
				result.TotalDistance = user.TotalDistance + delta
			}
		}
	}

	if !result.Applied {
		return result, nil
	}

	if user.PathayathiraiStatus == models.StatusInProgress {
		if temple, err := s.checkTempleVisit(ctx, user, pos); err != nil {
			s.log.WithUserID(userID.Hex()).WithError(err).Warn("Temple visit check failed")
		} else if temple != nil {
			result.VisitedTemple = temple
		}
	}

	s.publishUpdate(ctx, user, pos, result)

	s.log.LogPositionUpdate(userID.Hex(), pos.Latitude, pos.Longitude, result.DeltaMeters)

	return result, nil
}

// ReportBatch applies a batch of buffered reports. Reports are isolated: a
// failure for one user is recorded in its slot and the rest still apply.
func (s *JourneyService) ReportBatch(ctx context.Context, reports []PositionReport) []BatchResult {
	results := make([]BatchResult, len(reports))
	for i, report := range reports {
		results[i].UserID = report.UserID
		res, err := s.ReportPosition(ctx, report.UserID, report.Position)
		if err != nil {
			results[i].Err = err
			s.log.WithUserID(report.UserID.Hex()).WithError(err).Warn("Batch position report failed")
			continue
		}
		results[i].Result = res
	}
	return results
}

// checkTempleVisit records the first temple whose visit radius covers the
// position. Visits are once-per-temple; the repository guard makes the
// record idempotent even if two reports race.
func (s *JourneyService) checkTempleVisit(ctx context.Context, user *models.User, pos models.Position) (*models.Temple, error) {
	temples, err := s.temples.FindNear(ctx, pos.Latitude, pos.Longitude, s.cfg.TempleSearchRadiusM)
	if err != nil {
		return nil, err
	}

	for _, temple := range temples {
		if user.HasVisited(temple.ID) {
			continue
		}
		if !utils.IsWithinRadius(pos.Latitude, pos.Longitude, temple.Location.Latitude(), temple.Location.Longitude(), temple.Radius()) {
			continue
		}

		added, err := s.users.AddVisitedTemple(ctx, user.ID, models.VisitedTemple{
			TempleID:  temple.ID,
			VisitedAt: time.Now(),
		})
		if err != nil {
			return nil, err
		}
		if !added {
			continue
		}

		s.log.WithUserID(user.ID.Hex()).WithTempleID(temple.ID).Info("Temple visit recorded")
		s.notifyTempleVisit(ctx, user, temple)
		return temple, nil
	}

	return nil, nil
}

// publishUpdate pushes the applied state onto the live feed. Best effort: a
// feed outage never fails the report, the write already committed.
func (s *JourneyService) publishUpdate(ctx context.Context, user *models.User, pos models.Position, result *PositionResult) {
	if s.publisher == nil {
		return
	}

	update := feed.Update{
		UserID:        user.ID.Hex(),
		UserName:      user.Name,
		UserEmail:     user.Email,
		GroupID:       user.GroupID,
		Latitude:      pos.Latitude,
		Longitude:     pos.Longitude,
		Timestamp:     pos.Timestamp,
		IsTracking:    user.IsTracking,
		Status:        user.PathayathiraiStatus,
		TotalDistance: result.TotalDistance,
	}

	if s.geocoding != nil {
		if place, err := s.geocoding.PlaceName(ctx, pos.Latitude, pos.Longitude); err == nil {
			update.PlaceName = place
		}
	}

	if err := s.publisher.Publish(ctx, update); err != nil {
		s.log.WithUserID(update.UserID).WithError(err).Warn("Failed to publish position update")
	}
}

func (s *JourneyService) notifyTempleVisit(ctx context.Context, user *models.User, temple *models.Temple) {
	if s.push == nil || user.DeviceToken == "" {
		return
	}

	_, err := s.push.SendNotification(ctx, &push.NotificationRequest{
		Token: user.DeviceToken,
		Title: "Temple reached",
		Body:  "You have reached " + temple.Name + ". Om Muruga!",
		Data: map[string]string{
			"type":      "temple_visit",
			"temple_id": temple.ID.Hex(),
		},
	})
	if err != nil {
		s.log.WithUserID(user.ID.Hex()).WithError(err).Warn("Temple visit notification failed")
	}
}

// StartJourney moves a pilgrim into in_progress and turns tracking on. A
// completed journey restarts from zero: distance and visited temples reset.
func (s *JourneyService) StartJourney(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.transition(ctx, userID, models.StatusInProgress)
}

// CompleteJourney marks the pilgrimage done and stops tracking.
func (s *JourneyService) CompleteJourney(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.transition(ctx, userID, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.notifyCompletion(ctx, user)
	return user, nil
}

// RestartJourney begins a fresh pilgrimage after a completed one. Unlike
// StartJourney it refuses to act on a journey that never completed.
func (s *JourneyService) RestartJourney(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PathayathiraiStatus != models.StatusCompleted {
		return nil, ErrInvalidTransition
	}
	return s.transition(ctx, userID, models.StatusInProgress)
}

func (s *JourneyService) transition(ctx context.Context, userID primitive.ObjectID, to models.PathayathiraiStatus) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	from := user.PathayathiraiStatus
	if !from.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}

	resetProgress := from == models.StatusCompleted && to == models.StatusInProgress

	applied, err := s.users.UpdateStatus(ctx, userID, from, to, resetProgress)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost a race with a concurrent transition; the stored status moved
		// from under us.
		return nil, ErrInvalidTransition
	}

	tracking := to == models.StatusInProgress
	if err := s.users.SetTracking(ctx, userID, tracking); err != nil {
		s.log.WithUserID(userID.Hex()).WithError(err).Warn("Failed to set tracking flag")
	}

	s.log.LogJourneyEvent(userID.Hex(), "status_changed", map[string]interface{}{
		"from": from,
		"to":   to,
	})

	return s.users.GetByID(ctx, userID)
}

func (s *JourneyService) notifyCompletion(ctx context.Context, user *models.User) {
	if s.push == nil || user.DeviceToken == "" {
		return
	}

	_, err := s.push.SendNotification(ctx, &push.NotificationRequest{
		Token: user.DeviceToken,
		Title: "Padayatra complete",
		Body:  "You walked " + utils.FormatDistance(user.TotalDistance) + ". Om Muruga!",
		Data:  map[string]string{"type": "journey_completed"},
	})
	if err != nil {
		s.log.WithUserID(user.ID.Hex()).WithError(err).Warn("Completion notification failed")
	}
}

// JourneyProgress is the dashboard/profile view of one pilgrim's journey.
type JourneyProgress struct {
	Status            models.PathayathiraiStatus `json:"status"`
	TotalDistance     float64                    `json:"total_distance"`
	FormattedDistance string                     `json:"formatted_distance"`
	TemplesVisited    int                        `json:"temples_visited"`
	TemplesTotal      int                        `json:"temples_total"`
	VisitedTemples    []models.VisitedTemple     `json:"visited_temples"`
	LastPosition      *models.Position           `json:"last_position,omitempty"`
}

func (s *JourneyService) Progress(ctx context.Context, userID primitive.ObjectID) (*JourneyProgress, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	temples, err := s.temples.List(ctx)
	if err != nil {
		return nil, err
	}

	visited := user.VisitedTemples
	if visited == nil {
		visited = []models.VisitedTemple{}
	}

	return &JourneyProgress{
		Status:            user.PathayathiraiStatus,
		TotalDistance:     user.TotalDistance,
		FormattedDistance: utils.FormatDistance(user.TotalDistance),
		TemplesVisited:    len(visited),
		TemplesTotal:      len(temples),
		VisitedTemples:    visited,
		LastPosition:      user.CurrentLocation,
	}, nil
}
