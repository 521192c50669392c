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

// DefaultHistoryLimit caps history queries that do not set a limit.
const DefaultHistoryLimit = 200

// HistoryQuery filters the audit trail.
type HistoryQuery struct {
	Ficha     string
	Module    models.HistoryModule
	EventType string
	From      *time.Time
	To        *time.Time
	Limit     int64
}

// Filter builds the Mongo filter for the query.
func (q HistoryQuery) Filter() bson.M {
	filter := bson.M{}
	if q.Ficha != "" {
		filter["ficha_equipo"] = q.Ficha
	}
	if q.Module != "" {
		filter["modulo"] = q.Module
	}
	if q.EventType != "" {
		filter["tipo_evento"] = q.EventType
	}
	if q.From != nil || q.To != nil {
		created := bson.M{}
		if q.From != nil {
			created["$gte"] = *q.From
		}
		if q.To != nil {
			created["$lte"] = *q.To
		}
		filter["created_at"] = created
	}
	return filter
}

// MongoHistoryCollection implements HistoryCollection for MongoDB.
type MongoHistoryCollection struct {
	Collection *mongo.Collection
}

// InsertEvent appends an event to the audit trail.
func (c *MongoHistoryCollection) InsertEvent(ctx context.Context, event *models.HistoryEvent) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	_, err := c.Collection.InsertOne(ctx, event)
	return err
}

// FindEvents returns events matching the query, newest first.
func (c *MongoHistoryCollection) FindEvents(ctx context.Context, query HistoryQuery) ([]models.HistoryEvent, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	return findAll[models.HistoryEvent](ctx, c.Collection, query.Filter(), opts)
}
