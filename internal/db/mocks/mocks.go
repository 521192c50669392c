// Package mocks provides testify mocks of the db collection interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var (
	_ db.EquipmentCollection            = (*EquipmentCollection)(nil)
	_ db.ScheduledMaintenanceCollection = (*ScheduledCollection)(nil)
	_ db.ReadingCollection              = (*ReadingCollection)(nil)
	_ db.CompletionCollection           = (*CompletionCollection)(nil)
	_ db.HistoryCollection              = (*HistoryCollection)(nil)
	_ db.UserCollection                 = (*UserCollection)(nil)
)

// EquipmentCollection mocks db.EquipmentCollection.
type EquipmentCollection struct {
	mock.Mock
}

func (m *EquipmentCollection) InsertEquipment(ctx context.Context, equipment *models.Equipment) error {
	return m.Called(ctx, equipment).Error(0)
}

func (m *EquipmentCollection) FindEquipment(ctx context.Context, filter bson.M) ([]models.Equipment, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]models.Equipment)
	return items, args.Error(1)
}

func (m *EquipmentCollection) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.Equipment)
	return item, args.Error(1)
}

func (m *EquipmentCollection) FindEquipmentByFicha(ctx context.Context, ficha string) (*models.Equipment, error) {
	args := m.Called(ctx, ficha)
	item, _ := args.Get(0).(*models.Equipment)
	return item, args.Error(1)
}

func (m *EquipmentCollection) UpdateEquipment(ctx context.Context, id string, equipment models.Equipment) error {
	return m.Called(ctx, id, equipment).Error(0)
}

func (m *EquipmentCollection) DeleteEquipment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// ScheduledCollection mocks db.ScheduledMaintenanceCollection.
type ScheduledCollection struct {
	mock.Mock
}

func (m *ScheduledCollection) InsertScheduled(ctx context.Context, item *models.ScheduledMaintenance) error {
	return m.Called(ctx, item).Error(0)
}

func (m *ScheduledCollection) FindScheduled(ctx context.Context, filter bson.M) ([]models.ScheduledMaintenance, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]models.ScheduledMaintenance)
	return items, args.Error(1)
}

func (m *ScheduledCollection) FindScheduledByID(ctx context.Context, id string) (*models.ScheduledMaintenance, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.ScheduledMaintenance)
	return item, args.Error(1)
}

func (m *ScheduledCollection) UpdateScheduled(ctx context.Context, id string, item models.ScheduledMaintenance) error {
	return m.Called(ctx, id, item).Error(0)
}

func (m *ScheduledCollection) SetScheduledFields(ctx context.Context, id string, fields bson.M) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *ScheduledCollection) DeleteScheduled(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// ReadingCollection mocks db.ReadingCollection.
type ReadingCollection struct {
	mock.Mock
}

func (m *ReadingCollection) InsertReading(ctx context.Context, reading *models.UsageReading) error {
	return m.Called(ctx, reading).Error(0)
}

func (m *ReadingCollection) FindReadings(ctx context.Context, filter bson.M, limit int64) ([]models.UsageReading, error) {
	args := m.Called(ctx, filter, limit)
	items, _ := args.Get(0).([]models.UsageReading)
	return items, args.Error(1)
}

// CompletionCollection mocks db.CompletionCollection.
type CompletionCollection struct {
	mock.Mock
}

func (m *CompletionCollection) InsertCompletion(ctx context.Context, completion *models.CompletedMaintenance) error {
	return m.Called(ctx, completion).Error(0)
}

func (m *CompletionCollection) FindCompletions(ctx context.Context, filter bson.M, limit int64) ([]models.CompletedMaintenance, error) {
	args := m.Called(ctx, filter, limit)
	items, _ := args.Get(0).([]models.CompletedMaintenance)
	return items, args.Error(1)
}

// HistoryCollection mocks db.HistoryCollection.
type HistoryCollection struct {
	mock.Mock
}

func (m *HistoryCollection) InsertEvent(ctx context.Context, event *models.HistoryEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *HistoryCollection) FindEvents(ctx context.Context, query db.HistoryQuery) ([]models.HistoryEvent, error) {
	args := m.Called(ctx, query)
	items, _ := args.Get(0).([]models.HistoryEvent)
	return items, args.Error(1)
}

// UserCollection mocks db.UserCollection.
type UserCollection struct {
	mock.Mock
}

func (m *UserCollection) InsertUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserCollection) FindUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	args := m.Called(ctx, filter)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *UserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	return m.Called(ctx, id, user).Error(0)
}

func (m *UserCollection) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
