package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"padayatra/internal/models"
	"padayatra/internal/repositories/interfaces"
	"padayatra/internal/services"
)

type templeRepository struct {
	collection *mongo.Collection
}

func NewTempleRepository(db *mongo.Database) interfaces.TempleRepository {
	return &templeRepository{
		collection: db.Collection("temples"),
	}
}

func (r *templeRepository) Create(ctx context.Context, temple *models.Temple) error {
	temple.ID = primitive.NewObjectID()
	temple.CreatedAt = time.Now()
	temple.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, temple)
	if err != nil {
		return fmt.Errorf("failed to create temple: %w", err)
	}
	return nil
}

func (r *templeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Temple, error) {
	var temple models.Temple
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&temple)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrTempleNotFound
		}
		return nil, fmt.Errorf("failed to get temple: %w", err)
	}
	return &temple, nil
}

func (r *templeRepository) List(ctx context.Context) ([]*models.Temple, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list temples: %w", err)
	}
	defer cursor.Close(ctx)

	var temples []*models.Temple
	if err := cursor.All(ctx, &temples); err != nil {
		return nil, fmt.Errorf("failed to decode temples: %w", err)
	}
	return temples, nil
}

// FindNear relies on the 2dsphere index on location; results come back
// nearest first.
func (r *templeRepository) FindNear(ctx context.Context, lat, lng, radiusM float64) ([]*models.Temple, error) {
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    models.NewLocation(lat, lng),
				"$maxDistance": radiusM,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find temples near point: %w", err)
	}
	defer cursor.Close(ctx)

	var temples []*models.Temple
	if err := cursor.All(ctx, &temples); err != nil {
		return nil, fmt.Errorf("failed to decode temples: %w", err)
	}
	return temples, nil
}
