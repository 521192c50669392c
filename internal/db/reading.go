package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// MongoReadingCollection implements ReadingCollection for MongoDB.
type MongoReadingCollection struct {
	Collection *mongo.Collection
}

// InsertReading inserts a usage reading.
func (c *MongoReadingCollection) InsertReading(ctx context.Context, reading *models.UsageReading) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if reading.ID.IsZero() {
		reading.ID = primitive.NewObjectID()
	}
	reading.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, reading)
	return err
}

// FindReadings returns readings matching filter, newest first. A zero limit returns all.
func (c *MongoReadingCollection) FindReadings(ctx context.Context, filter bson.M, limit int64) ([]models.UsageReading, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findAll[models.UsageReading](ctx, c.Collection, filter, opts)
}

// ReadingsBetween builds a filter for readings taken inside [from, to].
func ReadingsBetween(from, to time.Time) bson.M {
	return bson.M{"fecha": bson.M{"$gte": from, "$lte": to}}
}
