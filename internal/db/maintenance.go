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

// MongoScheduledCollection implements ScheduledMaintenanceCollection for MongoDB.
type MongoScheduledCollection struct {
	Collection *mongo.Collection
}

// InsertScheduled inserts a maintenance plan and sets its id and timestamps.
func (c *MongoScheduledCollection) InsertScheduled(ctx context.Context, m *models.ScheduledMaintenance) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	now := time.Now()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, m)
	return translate(err)
}

// FindScheduled returns maintenance plans matching filter, most urgent first.
func (c *MongoScheduledCollection) FindScheduled(ctx context.Context, filter bson.M) ([]models.ScheduledMaintenance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "horas_km_restante", Value: 1}, {Key: "ficha", Value: 1}})
	return findAll[models.ScheduledMaintenance](ctx, c.Collection, filter, opts)
}

// FindScheduledByID finds a maintenance plan by its ID.
func (c *MongoScheduledCollection) FindScheduledByID(ctx context.Context, id string) (*models.ScheduledMaintenance, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.ScheduledMaintenance](ctx, c.Collection, bson.M{"_id": oid})
}

// UpdateScheduled replaces the mutable fields of a maintenance plan.
func (c *MongoScheduledCollection) UpdateScheduled(ctx context.Context, id string, m models.ScheduledMaintenance) error {
	m.ID = primitive.NilObjectID
	m.UpdatedAt = time.Now()
	return setByID(ctx, c.Collection, id, m)
}

// SetScheduledFields applies a partial update to a maintenance plan.
func (c *MongoScheduledCollection) SetScheduledFields(ctx context.Context, id string, fields bson.M) error {
	update := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		update[k] = v
	}
	return setByID(ctx, c.Collection, id, update)
}

// DeleteScheduled deletes a maintenance plan by its ID.
func (c *MongoScheduledCollection) DeleteScheduled(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoCompletionCollection implements CompletionCollection for MongoDB.
type MongoCompletionCollection struct {
	Collection *mongo.Collection
}

// InsertCompletion inserts a completed maintenance record.
func (c *MongoCompletionCollection) InsertCompletion(ctx context.Context, completion *models.CompletedMaintenance) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if completion.ID.IsZero() {
		completion.ID = primitive.NewObjectID()
	}
	completion.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, completion)
	return err
}

// FindCompletions returns completed maintenance, newest first. A zero limit returns all.
func (c *MongoCompletionCollection) FindCompletions(ctx context.Context, filter bson.M, limit int64) ([]models.CompletedMaintenance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha_mantenimiento", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findAll[models.CompletedMaintenance](ctx, c.Collection, filter, opts)
}
