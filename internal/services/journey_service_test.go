package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/feed"
	"padayatra/internal/models"
	"padayatra/internal/utils"
	"padayatra/pkg/logger"
	"padayatra/pkg/push"
)

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	stored, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	// Detach like a database read would.
	u := *stored
	if stored.CurrentLocation != nil {
		loc := *stored.CurrentLocation
		u.CurrentLocation = &loc
	}
	u.VisitedTemples = append([]models.VisitedTemple(nil), stored.VisitedTemples...)
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return r.GetByID(ctx, u.ID)
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	var out []*models.User
	for id := range r.users {
		u, _ := r.GetByID(ctx, id)
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) ApplyPosition(ctx context.Context, id primitive.ObjectID, pos models.Position, deltaMeters float64) (bool, error) {
	stored, ok := r.users[id]
	if !ok {
		return false, ErrUserNotFound
	}
	if stored.CurrentLocation != nil && pos.Timestamp <= stored.CurrentLocation.Timestamp {
		return false, nil
	}
	stored.CurrentLocation = &pos
	stored.TotalDistance += deltaMeters
	return true, nil
}

func (r *fakeUserRepo) TouchPosition(ctx context.Context, id primitive.ObjectID, timestamp int64) (bool, error) {
	stored, ok := r.users[id]
	if !ok {
		return false, ErrUserNotFound
	}
	if stored.CurrentLocation == nil || timestamp <= stored.CurrentLocation.Timestamp {
		return false, nil
	}
	stored.CurrentLocation.Timestamp = timestamp
	return true, nil
}

func (r *fakeUserRepo) AddVisitedTemple(ctx context.Context, id primitive.ObjectID, visit models.VisitedTemple) (bool, error) {
	stored, ok := r.users[id]
	if !ok {
		return false, ErrUserNotFound
	}
	for _, v := range stored.VisitedTemples {
		if v.TempleID == visit.TempleID {
			return false, nil
		}
	}
	stored.VisitedTemples = append(stored.VisitedTemples, visit)
	return true, nil
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.PathayathiraiStatus, resetProgress bool) (bool, error) {
	stored, ok := r.users[id]
	if !ok {
		return false, ErrUserNotFound
	}
	if stored.PathayathiraiStatus != from {
		return false, nil
	}
	stored.PathayathiraiStatus = to
	if resetProgress {
		stored.TotalDistance = 0
		stored.VisitedTemples = nil
	}
	return true, nil
}

func (r *fakeUserRepo) SetTracking(ctx context.Context, id primitive.ObjectID, tracking bool) error {
	stored, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	stored.IsTracking = tracking
	return nil
}

type fakeTempleRepo struct {
	temples []*models.Temple
}

func (r *fakeTempleRepo) Create(ctx context.Context, temple *models.Temple) error {
	temple.ID = primitive.NewObjectID()
	r.temples = append(r.temples, temple)
	return nil
}

func (r *fakeTempleRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Temple, error) {
	for _, t := range r.temples {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrTempleNotFound
}

func (r *fakeTempleRepo) List(ctx context.Context) ([]*models.Temple, error) {
	out := append([]*models.Temple(nil), r.temples...)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeTempleRepo) FindNear(ctx context.Context, lat, lng, radiusM float64) ([]*models.Temple, error) {
	var out []*models.Temple
	for _, t := range r.temples {
		if utils.HaversineDistance(lat, lng, t.Location.Latitude(), t.Location.Longitude()) <= radiusM {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := utils.HaversineDistance(lat, lng, out[i].Location.Latitude(), out[i].Location.Longitude())
		dj := utils.HaversineDistance(lat, lng, out[j].Location.Latitude(), out[j].Location.Longitude())
		return di < dj
	})
	return out, nil
}

type fakePush struct {
	sent []*push.NotificationRequest
}

func (f *fakePush) SendNotification(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	f.sent = append(f.sent, request)
	return &push.NotificationResponse{Success: true}, nil
}

func (f *fakePush) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	return nil
}

func (f *fakePush) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	return nil
}

type fakePublisher struct {
	published []feed.Update
}

func (f *fakePublisher) Publish(ctx context.Context, update feed.Update) error {
	f.published = append(f.published, update)
	return nil
}

type journeyFixture struct {
	service   *JourneyService
	users     *fakeUserRepo
	temples   *fakeTempleRepo
	push      *fakePush
	publisher *fakePublisher
	user      *models.User
}

func newJourneyFixture(t *testing.T, status models.PathayathiraiStatus) *journeyFixture {
	t.Helper()

	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
	require.NoError(t, err)

	user := &models.User{
		ID:                  primitive.NewObjectID(),
		Name:                "Murugan",
		Email:               "murugan@example.com",
		DeviceToken:         "device-token",
		PathayathiraiStatus: status,
	}

	f := &journeyFixture{
		users:     newFakeUserRepo(user),
		temples:   &fakeTempleRepo{},
		push:      &fakePush{},
		publisher: &fakePublisher{},
		user:      user,
	}
	f.service = NewJourneyService(f.users, f.temples, f.publisher, f.push, nil, JourneyConfig{
		MinMovementMeters:   5,
		TempleSearchRadiusM: 500,
	}, log)
	return f
}

func pos(lat, lng float64, ts int64) models.Position {
	return models.Position{Latitude: lat, Longitude: lng, Timestamp: ts}
}

func TestReportPositionValidation(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)
	ctx := context.Background()

	_, err := f.service.ReportPosition(ctx, f.user.ID, pos(91, 77, 1000))
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = f.service.ReportPosition(ctx, f.user.ID, pos(10, 181, 1000))
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = f.service.ReportPosition(ctx, primitive.NewObjectID(), pos(10, 77, 1000))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestReportPositionAnchorsFirstReport(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)

	result, err := f.service.ReportPosition(context.Background(), f.user.ID, pos(10.0, 77.0, 1000))
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Zero(t, result.DeltaMeters)
	assert.Zero(t, result.TotalDistance)
}

func TestReportPositionAccumulatesDistance(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)
	ctx := context.Background()

	// Walk north in 0.001 degree steps, roughly 111m each.
	var total float64
	for i := 0; i < 5; i++ {
		result, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.0+float64(i)*0.001, 77.0, int64(1000+i)))
		require.NoError(t, err)
		require.True(t, result.Applied)
		total = result.TotalDistance
	}

	assert.InDelta(t, 4*111.2, total, 2.0)
	assert.InDelta(t, total, f.users.users[f.user.ID].TotalDistance, 1e-9)
}

func TestReportPositionDuplicatesAddNothing(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)
	ctx := context.Background()

	_, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.0, 77.0, 1000))
	require.NoError(t, err)
	first, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.001, 77.0, 2000))
	require.NoError(t, err)
	require.True(t, first.Applied)

	// Same timestamp replayed, and an older sample arriving late.
	replay, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.001, 77.0, 2000))
	require.NoError(t, err)
	assert.False(t, replay.Applied)
	assert.Zero(t, replay.DeltaMeters)

	late, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.5, 77.5, 1500))
	require.NoError(t, err)
	assert.False(t, late.Applied)

	assert.InDelta(t, first.TotalDistance, f.users.users[f.user.ID].TotalDistance, 1e-9)
}

func TestReportPositionJitterDoesNotCreep(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)
	ctx := context.Background()

	_, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.0, 77.0, 1000))
	require.NoError(t, err)

	// ~2.2m wobbles, well under the 5m threshold. The anchor must not move,
	// so repeated wobbles can never sum into distance.
	for i := 1; i <= 10; i++ {
		result, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.00002, 77.0, int64(1000+i)))
		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.Zero(t, result.DeltaMeters)
	}

	stored := f.users.users[f.user.ID]
	assert.Zero(t, stored.TotalDistance)
	assert.InDelta(t, 10.0, stored.CurrentLocation.Latitude, 1e-9)
	assert.Equal(t, int64(1010), stored.CurrentLocation.Timestamp)

	// A real move measured from the anchor still counts in full.
	result, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.001, 77.0, 2000))
	require.NoError(t, err)
	assert.InDelta(t, 111.2, result.DeltaMeters, 1.0)
}

func TestReportPositionRecordsTempleVisitOnce(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)
	ctx := context.Background()

	temple := &models.Temple{
		Name:         "Palani Murugan Temple",
		Location:     models.NewLocation(10.4397, 77.5217),
		VisitRadiusM: 100,
		Order:        1,
	}
	require.NoError(t, f.temples.Create(ctx, temple))

	_, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.0, 77.0, 1000))
	require.NoError(t, err)

	// Arrive within the visit radius.
	result, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.4395, 77.5215, 2000))
	require.NoError(t, err)
	require.NotNil(t, result.VisitedTemple)
	assert.Equal(t, temple.ID, result.VisitedTemple.ID)

	require.Len(t, f.users.users[f.user.ID].VisitedTemples, 1)
	require.Len(t, f.push.sent, 1)
	assert.Contains(t, f.push.sent[0].Body, temple.Name)

	// Walking around inside the radius must not duplicate the visit.
	result, err = f.service.ReportPosition(ctx, f.user.ID, pos(10.4393, 77.5216, 3000))
	require.NoError(t, err)
	assert.Nil(t, result.VisitedTemple)
	assert.Len(t, f.users.users[f.user.ID].VisitedTemples, 1)
	assert.Len(t, f.push.sent, 1)
}

func TestReportPositionNoVisitsUnlessInProgress(t *testing.T) {
	f := newJourneyFixture(t, models.StatusNotStarted)
	ctx := context.Background()

	temple := &models.Temple{
		Name:     "Palani Murugan Temple",
		Location: models.NewLocation(10.4397, 77.5217),
		Order:    1,
	}
	require.NoError(t, f.temples.Create(ctx, temple))

	result, err := f.service.ReportPosition(ctx, f.user.ID, pos(10.4395, 77.5215, 1000))
	require.NoError(t, err)
	assert.Nil(t, result.VisitedTemple)
	assert.Empty(t, f.users.users[f.user.ID].VisitedTemples)
}

func TestReportPositionPublishesUpdate(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)

	_, err := f.service.ReportPosition(context.Background(), f.user.ID, pos(10.0, 77.0, 1000))
	require.NoError(t, err)

	require.Len(t, f.publisher.published, 1)
	update := f.publisher.published[0]
	assert.Equal(t, f.user.ID.Hex(), update.UserID)
	assert.Equal(t, "Murugan", update.UserName)
	assert.Equal(t, int64(1000), update.Timestamp)
}

func TestReportBatchIsolation(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)

	reports := []PositionReport{
		{UserID: f.user.ID, Position: pos(10.0, 77.0, 1000)},
		{UserID: f.user.ID, Position: pos(91.0, 77.0, 2000)},
		{UserID: primitive.NewObjectID(), Position: pos(10.0, 77.0, 1000)},
		{UserID: f.user.ID, Position: pos(10.001, 77.0, 3000)},
	}

	results := f.service.ReportBatch(context.Background(), reports)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.True(t, results[0].Result.Applied)

	assert.ErrorIs(t, results[1].Err, ErrInvalidCoordinate)
	assert.ErrorIs(t, results[2].Err, ErrUserNotFound)

	// The last report still applied despite earlier failures.
	assert.NoError(t, results[3].Err)
	assert.True(t, results[3].Result.Applied)
	assert.InDelta(t, 111.2, results[3].Result.DeltaMeters, 1.0)
}

func TestJourneyLifecycle(t *testing.T) {
	f := newJourneyFixture(t, models.StatusNotStarted)
	ctx := context.Background()

	user, err := f.service.StartJourney(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, user.PathayathiraiStatus)
	assert.True(t, user.IsTracking)

	// Starting twice is not a valid transition.
	_, err = f.service.StartJourney(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	user, err = f.service.CompleteJourney(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, user.PathayathiraiStatus)
	assert.False(t, user.IsTracking)

	// Completing again is rejected too.
	_, err = f.service.CompleteJourney(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestJourneyRestartResetsProgress(t *testing.T) {
	f := newJourneyFixture(t, models.StatusCompleted)
	ctx := context.Background()

	stored := f.users.users[f.user.ID]
	stored.TotalDistance = 42000
	stored.VisitedTemples = []models.VisitedTemple{
		{TempleID: primitive.NewObjectID(), VisitedAt: time.Now()},
	}

	user, err := f.service.StartJourney(ctx, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, user.PathayathiraiStatus)
	assert.Zero(t, user.TotalDistance)
	assert.Empty(t, user.VisitedTemples)
}

func TestJourneyRestartRequiresCompletion(t *testing.T) {
	ctx := context.Background()

	f := newJourneyFixture(t, models.StatusInProgress)
	_, err := f.service.RestartJourney(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f = newJourneyFixture(t, models.StatusCompleted)
	f.users.users[f.user.ID].TotalDistance = 42000

	user, err := f.service.RestartJourney(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, user.PathayathiraiStatus)
	assert.Zero(t, user.TotalDistance)
	assert.True(t, user.IsTracking)
}

func TestJourneyCompletionNotifies(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)

	_, err := f.service.CompleteJourney(context.Background(), f.user.ID)
	require.NoError(t, err)

	require.Len(t, f.push.sent, 1)
	assert.Equal(t, "device-token", f.push.sent[0].Token)
	assert.Equal(t, "journey_completed", f.push.sent[0].Data["type"])
}

func TestJourneyProgress(t *testing.T) {
	f := newJourneyFixture(t, models.StatusInProgress)
	ctx := context.Background()

	require.NoError(t, f.temples.Create(ctx, &models.Temple{Name: "A", Location: models.NewLocation(10.1, 77.1), Order: 1}))
	require.NoError(t, f.temples.Create(ctx, &models.Temple{Name: "B", Location: models.NewLocation(10.2, 77.2), Order: 2}))

	stored := f.users.users[f.user.ID]
	stored.TotalDistance = 1500
	stored.VisitedTemples = []models.VisitedTemple{
		{TempleID: f.temples.temples[0].ID, VisitedAt: time.Now()},
	}

	progress, err := f.service.Progress(ctx, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, progress.Status)
	assert.Equal(t, "1.5km", progress.FormattedDistance)
	assert.Equal(t, 1, progress.TemplesVisited)
	assert.Equal(t, 2, progress.TemplesTotal)
}
