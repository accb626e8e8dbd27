package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the tracking queries rely on: a 2dsphere
// index on temple locations for $near visit lookups, and lookup indexes on
// the user collection.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	templeIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys:    bson.D{{Key: "order", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := m.Collection("temples").Indexes().CreateMany(ctx, templeIndexes); err != nil {
		return fmt.Errorf("failed to create temple indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "group_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_tracking", Value: 1}},
		},
	}

	if _, err := m.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}
