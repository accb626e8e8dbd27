package interfaces

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)

	// ApplyPosition advances the user's journey by one position report. The
	// write is conditional on the stored position being strictly older than
	// pos, so duplicate and out-of-order reports leave the document
	// untouched; applied reports false in that case. deltaMeters is added
	// to total_distance atomically with the position swap.
	ApplyPosition(ctx context.Context, id primitive.ObjectID, pos models.Position, deltaMeters float64) (applied bool, err error)

	// TouchPosition refreshes only the stored position's timestamp, keeping
	// the anchored coordinates. Used for sub-threshold jitter so liveness
	// advances without accumulating drift.
	TouchPosition(ctx context.Context, id primitive.ObjectID, timestamp int64) (applied bool, err error)

	// AddVisitedTemple records a visit exactly once per temple.
	AddVisitedTemple(ctx context.Context, id primitive.ObjectID, visit models.VisitedTemple) (added bool, err error)

	// UpdateStatus moves the journey lifecycle from one status to another.
	// The write is conditional on the current status, so a stale caller
	// reports applied=false instead of clobbering a concurrent transition.
	// resetProgress zeroes total_distance and visited temples, used when a
	// completed journey restarts.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.PathayathiraiStatus, resetProgress bool) (applied bool, err error)

	SetTracking(ctx context.Context, id primitive.ObjectID, tracking bool) error
}
