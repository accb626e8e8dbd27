package interfaces

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/models"
)

type TempleRepository interface {
	Create(ctx context.Context, temple *models.Temple) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Temple, error)

	// List returns all temples in route order.
	List(ctx context.Context) ([]*models.Temple, error)

	// FindNear returns temples within radiusM meters of the point, nearest
	// first.
	FindNear(ctx context.Context, lat, lng, radiusM float64) ([]*models.Temple, error)
}
