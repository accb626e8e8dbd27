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

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.UserType == "" {
		user.UserType = models.UserTypePilgrim
	}
	if user.PathayathiraiStatus == "" {
		user.PathayathiraiStatus = models.StatusNotStarted
	}
	if user.VisitedTemples == nil {
		user.VisitedTemples = []models.VisitedTemple{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	query := bson.M{}
	if filter.GroupID != "" {
		query["group_id"] = filter.GroupID
	}
	if filter.UserType != "" {
		query["user_type"] = filter.UserType
	}
	if filter.TrackingOnly {
		query["is_tracking"] = true
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// ApplyPosition swaps the stored position and bumps total_distance in one
// conditional write. The filter only matches when the stored position is
// strictly older, so replayed and out-of-order reports fall through with
// ModifiedCount 0 instead of double-counting distance.
func (r *userRepository) ApplyPosition(ctx context.Context, id primitive.ObjectID, pos models.Position, deltaMeters float64) (bool, error) {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"current_location": nil},
			bson.M{"current_location.timestamp": bson.M{"$lt": pos.Timestamp}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"current_location": pos,
			"updated_at":       time.Now(),
		},
		"$inc": bson.M{"total_distance": deltaMeters},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to apply position: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *userRepository) TouchPosition(ctx context.Context, id primitive.ObjectID, timestamp int64) (bool, error) {
	filter := bson.M{
		"_id":                        id,
		"current_location.timestamp": bson.M{"$lt": timestamp},
	}
	update := bson.M{
		"$set": bson.M{
			"current_location.timestamp": timestamp,
			"updated_at":                 time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to touch position: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// AddVisitedTemple pushes the visit only when no entry for the temple exists
// yet, so re-entering the geofence never duplicates a visit.
func (r *userRepository) AddVisitedTemple(ctx context.Context, id primitive.ObjectID, visit models.VisitedTemple) (bool, error) {
	filter := bson.M{
		"_id":                      id,
		"visited_temples.temple_id": bson.M{"$ne": visit.TempleID},
	}
	update := bson.M{
		"$push": bson.M{"visited_temples": visit},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to record temple visit: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.PathayathiraiStatus, resetProgress bool) (bool, error) {
	set := bson.M{
		"pathayathirai_status": to,
		"updated_at":           time.Now(),
	}
	if resetProgress {
		set["total_distance"] = 0.0
		set["visited_temples"] = []models.VisitedTemple{}
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "pathayathirai_status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update journey status: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *userRepository) SetTracking(ctx context.Context, id primitive.ObjectID, tracking bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_tracking": tracking, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set tracking flag: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrUserNotFound
	}
	return nil
}
