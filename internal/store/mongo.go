package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/todolist/backend/internal/models"
)

// ActivityLimit caps how many events ListActivity returns.
const ActivityLimit = 50

// MongoActivityLog records account events in MongoDB.
type MongoActivityLog struct {
	col *mongo.Collection
}

func NewMongoActivityLog(db *mongo.Database) *MongoActivityLog {
	return &MongoActivityLog{col: db.Collection("activity")}
}

func (s *MongoActivityLog) Record(ctx context.Context, userID int64, kind string) error {
	_, err := s.col.InsertOne(ctx, models.Activity{UserID: userID, Kind: kind, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

func (s *MongoActivityLog) ListActivity(ctx context.Context, userID int64) ([]models.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(ActivityLimit)
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.Activity{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// NopActivityLog is used when MongoDB is not configured.
type NopActivityLog struct{}

func (NopActivityLog) Record(context.Context, int64, string) error { return nil }

func (NopActivityLog) ListActivity(context.Context, int64) ([]models.Activity, error) {
	return []models.Activity{}, nil
}
