package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// EquipmentCollection defines the interface for equipment data operations.
type EquipmentCollection interface {
	InsertEquipment(ctx context.Context, equipment *models.Equipment) error
	FindEquipment(ctx context.Context, filter bson.M) ([]models.Equipment, error)
	FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error)
	FindEquipmentByFicha(ctx context.Context, ficha string) (*models.Equipment, error)
	UpdateEquipment(ctx context.Context, id string, equipment models.Equipment) error
	DeleteEquipment(ctx context.Context, id string) error
}

// ScheduledMaintenanceCollection defines the interface for maintenance plan operations.
type ScheduledMaintenanceCollection interface {
	InsertScheduled(ctx context.Context, m *models.ScheduledMaintenance) error
	FindScheduled(ctx context.Context, filter bson.M) ([]models.ScheduledMaintenance, error)
	FindScheduledByID(ctx context.Context, id string) (*models.ScheduledMaintenance, error)
	UpdateScheduled(ctx context.Context, id string, m models.ScheduledMaintenance) error
	SetScheduledFields(ctx context.Context, id string, fields bson.M) error
	DeleteScheduled(ctx context.Context, id string) error
}

// ReadingCollection defines the interface for usage reading operations.
type ReadingCollection interface {
	InsertReading(ctx context.Context, reading *models.UsageReading) error
	FindReadings(ctx context.Context, filter bson.M, limit int64) ([]models.UsageReading, error)
}

// CompletionCollection defines the interface for completed maintenance operations.
type CompletionCollection interface {
	InsertCompletion(ctx context.Context, completion *models.CompletedMaintenance) error
	FindCompletions(ctx context.Context, filter bson.M, limit int64) ([]models.CompletedMaintenance, error)
}

// HistoryCollection defines the interface for the audit trail.
type HistoryCollection interface {
	InsertEvent(ctx context.Context, event *models.HistoryEvent) error
	FindEvents(ctx context.Context, query HistoryQuery) ([]models.HistoryEvent, error)
}
