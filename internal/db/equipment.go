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

// MongoEquipmentCollection implements EquipmentCollection for MongoDB.
type MongoEquipmentCollection struct {
	Collection *mongo.Collection
}

// InsertEquipment inserts an equipment record and sets its id and timestamps.
func (c *MongoEquipmentCollection) InsertEquipment(ctx context.Context, equipment *models.Equipment) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	now := time.Now()
	if equipment.ID.IsZero() {
		equipment.ID = primitive.NewObjectID()
	}
	equipment.CreatedAt = now
	equipment.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, equipment)
	return translate(err)
}

// FindEquipment returns equipment matching filter, ordered by ficha.
func (c *MongoEquipmentCollection) FindEquipment(ctx context.Context, filter bson.M) ([]models.Equipment, error) {
	return findAll[models.Equipment](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "ficha", Value: 1}}))
}

// FindEquipmentByID finds an equipment record by its ID.
func (c *MongoEquipmentCollection) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Equipment](ctx, c.Collection, bson.M{"_id": oid})
}

// FindEquipmentByFicha finds an equipment record by its asset tag.
func (c *MongoEquipmentCollection) FindEquipmentByFicha(ctx context.Context, ficha string) (*models.Equipment, error) {
	return findOne[models.Equipment](ctx, c.Collection, bson.M{"ficha": ficha})
}

// UpdateEquipment replaces the mutable fields of an equipment record.
func (c *MongoEquipmentCollection) UpdateEquipment(ctx context.Context, id string, equipment models.Equipment) error {
	equipment.ID = primitive.NilObjectID
	equipment.UpdatedAt = time.Now()
	return setByID(ctx, c.Collection, id, equipment)
}

// DeleteEquipment deletes an equipment record by its ID.
func (c *MongoEquipmentCollection) DeleteEquipment(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}
