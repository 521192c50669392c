package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/db/mocks"
	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []events.Topic
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic events.Topic, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) Close() {}

type fixture struct {
	equipment   *mocks.EquipmentCollection
	scheduled   *mocks.ScheduledCollection
	readings    *mocks.ReadingCollection
	completions *mocks.CompletionCollection
	history     *mocks.HistoryCollection
	users       *mocks.UserCollection
	publisher   *recordingPublisher
	svc         *FleetService
}

var testNow = time.Date(2024, 5, 8, 15, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		equipment:   new(mocks.EquipmentCollection),
		scheduled:   new(mocks.ScheduledCollection),
		readings:    new(mocks.ReadingCollection),
		completions: new(mocks.CompletionCollection),
		history:     new(mocks.HistoryCollection),
		users:       new(mocks.UserCollection),
		publisher:   &recordingPublisher{},
	}
	f.svc = NewFleetService(Deps{
		Equipment:   f.equipment,
		Scheduled:   f.scheduled,
		Readings:    f.readings,
		Completions: f.completions,
		History:     f.history,
		Users:       f.users,
		Publisher:   f.publisher,
		Location:    time.UTC,
	})
	f.svc.now = func() time.Time { return testNow }
	t.Cleanup(func() {
		f.equipment.AssertExpectations(t)
		f.scheduled.AssertExpectations(t)
		f.readings.AssertExpectations(t)
		f.completions.AssertExpectations(t)
		f.history.AssertExpectations(t)
	})
	return f
}

func scheduledPlan() *models.ScheduledMaintenance {
	return &models.ScheduledMaintenance{
		ID:               primitive.NewObjectID(),
		Ficha:            "AC-012",
		EquipmentName:    "Excavadora CAT 320",
		MaintenanceType:  "PM2 500 horas",
		Frequency:        500,
		CurrentUsage:     1400,
		LastUpdated:      "2024-05-01T08:00:00.000Z",
		LastServiceUsage: 1000,
		NextDue:          1500,
		Remaining:        100,
		Active:           true,
	}
}

func TestUpdateUsageReading(t *testing.T) {
	f := newFixture(t)
	plan := scheduledPlan()
	id := plan.ID.Hex()

	f.scheduled.On("FindScheduledByID", mock.Anything, id).Return(plan, nil)
	f.scheduled.On("SetScheduledFields", mock.Anything, id, bson.M{
		"horas_km_actuales":          1460.0,
		"fecha_ultima_actualizacion": "2024-05-08T15:30:00.000Z",
		"horas_km_restante":          40.0,
	}).Return(nil)
	f.readings.On("InsertReading", mock.Anything, mock.MatchedBy(func(r *models.UsageReading) bool {
		return r.Ficha == "AC-012" && r.Usage == 1460 && r.Increment == 60 &&
			r.PreviousUsage == 1400 && r.Remaining == 40 && r.Unit == models.UnitHours &&
			r.ResponsibleUser == DefaultActor && r.MaintenanceID == plan.ID
	})).Return(nil)
	f.history.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *models.HistoryEvent) bool {
		return e.EventType == models.EventReadingUpdated &&
			e.Module == models.HistoryModuleMaintenance &&
			e.Description == "Lectura actualizada a 1460 horas" &&
			*e.Ficha == "AC-012"
	})).Return(nil)

	result, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: id, Value: 1460})
	require.NoError(t, err)
	assert.Equal(t, 1460.0, result.Maintenance.CurrentUsage)
	assert.Equal(t, 40.0, result.Maintenance.Remaining)
	assert.Equal(t, 1500.0, result.Maintenance.NextDue)
	assert.Equal(t, []events.Topic{events.TopicReadings, events.TopicAlerts}, f.publisher.topics)
}

func TestUpdateUsageReading_NotesAndUnitOverride(t *testing.T) {
	f := newFixture(t)
	plan := scheduledPlan()
	id := plan.ID.Hex()
	at := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

	f.scheduled.On("FindScheduledByID", mock.Anything, id).Return(plan, nil)
	f.scheduled.On("SetScheduledFields", mock.Anything, id, mock.Anything).Return(nil)
	f.readings.On("InsertReading", mock.Anything, mock.MatchedBy(func(r *models.UsageReading) bool {
		return r.Unit == models.UnitKilometers && r.Date.Equal(at) && r.Notes == "Lectura de campo" && r.ResponsibleUser == "Juan Pérez"
	})).Return(nil)
	f.history.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *models.HistoryEvent) bool {
		return e.Description == "Lectura de campo" && e.ResponsibleUser == "Juan Pérez" && e.CreatedAt.Equal(at)
	})).Return(nil)

	result, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{
		MaintenanceID: id,
		Value:         1400,
		Date:          &at,
		User:          "Juan Pérez",
		Notes:         "  Lectura de campo ",
		Unit:          models.UnitKilometers,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Reading.Increment)
	assert.Equal(t, []events.Topic{events.TopicReadings}, f.publisher.topics)
}

func TestUpdateUsageReading_Rejections(t *testing.T) {
	t.Run("below current usage", func(t *testing.T) {
		f := newFixture(t)
		plan := scheduledPlan()
		f.scheduled.On("FindScheduledByID", mock.Anything, plan.ID.Hex()).Return(plan, nil)

		_, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: plan.ID.Hex(), Value: 1399})
		assert.ErrorIs(t, err, ErrReadingBelowCurrent)
		f.scheduled.AssertNotCalled(t, "SetScheduledFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("negative", func(t *testing.T) {
		f := newFixture(t)
		plan := scheduledPlan()
		f.scheduled.On("FindScheduledByID", mock.Anything, plan.ID.Hex()).Return(plan, nil)

		_, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: plan.ID.Hex(), Value: -1})
		assert.ErrorIs(t, err, ErrInvalidReading)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		f.scheduled.On("FindScheduledByID", mock.Anything, "missing").Return(nil, db.ErrInvalidID)

		_, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: "missing", Value: 10})
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		id := primitive.NewObjectID().Hex()
		f.scheduled.On("FindScheduledByID", mock.Anything, id).Return(nil, db.ErrNotFound)

		_, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: id, Value: 10})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mutation in flight", func(t *testing.T) {
		f := newFixture(t)
		require.True(t, f.svc.inflight.acquire("busy"))

		_, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: "busy", Value: 10})
		assert.ErrorIs(t, err, ErrMutationInFlight)

		f.svc.inflight.release("busy")
		assert.True(t, f.svc.inflight.acquire("busy"))
	})

	t.Run("id case does not bypass guard", func(t *testing.T) {
		f := newFixture(t)
		id := primitive.NewObjectID().Hex()

		unlock, err := f.svc.lock(id)
		require.NoError(t, err)

		_, err = f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: strings.ToUpper(id), Value: 10})
		assert.ErrorIs(t, err, ErrMutationInFlight)

		unlock()
		_, err = f.svc.lock(" " + strings.ToUpper(id))
		assert.NoError(t, err)
	})
}

func TestUpdateUsageReading_StoreFailure(t *testing.T) {
	f := newFixture(t)
	plan := scheduledPlan()
	id := plan.ID.Hex()

	f.scheduled.On("FindScheduledByID", mock.Anything, id).Return(plan, nil)
	f.scheduled.On("SetScheduledFields", mock.Anything, id, mock.Anything).Return(errors.New("connection reset"))

	_, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: id, Value: 1450})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, f.publisher.topics)

	assert.True(t, f.svc.inflight.acquire(id), "lock must be released after a failure")
}

func TestUpdateUsageReading_SideEffectFailuresAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	plan := scheduledPlan()
	id := plan.ID.Hex()

	f.scheduled.On("FindScheduledByID", mock.Anything, id).Return(plan, nil)
	f.scheduled.On("SetScheduledFields", mock.Anything, id, mock.Anything).Return(nil)
	f.readings.On("InsertReading", mock.Anything, mock.Anything).Return(nil)
	f.history.On("InsertEvent", mock.Anything, mock.Anything).Return(errors.New("history unavailable"))

	_, err := f.svc.UpdateUsageReading(context.Background(), ReadingInput{MaintenanceID: id, Value: 1420})
	assert.NoError(t, err)
}

func TestRegisterCompletedMaintenance(t *testing.T) {
	f := newFixture(t)
	plan := scheduledPlan()
	id := plan.ID.Hex()

	f.scheduled.On("FindScheduledByID", mock.Anything, id).Return(plan, nil)
	f.scheduled.On("SetScheduledFields", mock.Anything, id, mock.MatchedBy(func(fields bson.M) bool {
		return fields["proximo_mantenimiento"] == 2010.0 &&
			fields["horas_km_restante"] == 500.0 &&
			fields["horas_km_ultimo_mantenimiento"] == 1510.0 &&
			fields["horas_km_actuales"] == 1510.0
	})).Return(nil)
	f.completions.On("InsertCompletion", mock.Anything, mock.MatchedBy(func(c *models.CompletedMaintenance) bool {
		return c.UsageAtService == 1510 && c.PreviousUsage == 1000 && c.Increment == 510 &&
			c.NextDue == 2010 && c.FiltersUsed != nil && len(c.FiltersUsed) == 0
	})).Return(nil)
	f.history.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *models.HistoryEvent) bool {
		return e.EventType == models.EventMaintenanceCompleted &&
			e.Description == "Mantenimiento PM2 500 horas realizado para Excavadora CAT 320 (1510 horas)"
	})).Return(nil)

	result, err := f.svc.RegisterCompletedMaintenance(context.Background(), CompletionInput{MaintenanceID: id, Value: 1510})
	require.NoError(t, err)
	assert.Equal(t, 2010.0, result.Maintenance.NextDue)
	assert.Equal(t, 500.0, result.Maintenance.Remaining)
	require.NotNil(t, result.Maintenance.LastServiceDate)
	assert.Equal(t, "2024-05-08T15:30:00.000Z", *result.Maintenance.LastServiceDate)
	assert.Equal(t, []events.Topic{events.TopicCompletions}, f.publisher.topics)
}

func TestRegisterCompletedMaintenance_InvalidValue(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RegisterCompletedMaintenance(context.Background(), CompletionInput{MaintenanceID: "x", Value: -5})
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestUpdateSummary_DefaultsToCurrentWeek(t *testing.T) {
	f := newFixture(t)
	inside := scheduledPlan()
	inside.LastUpdated = "2024-05-07T10:00:00.000Z"
	outside := scheduledPlan()
	outside.LastUpdated = "2024-04-20T10:00:00.000Z"
	broken := scheduledPlan()
	broken.LastUpdated = "ayer"

	from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 8, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	f.readings.On("FindReadings", mock.Anything, db.ReadingsBetween(from, to), int64(0)).Return([]models.UsageReading{}, nil)
	f.scheduled.On("FindScheduled", mock.Anything, bson.M{}).
		Return([]models.ScheduledMaintenance{*inside, *outside, *broken}, nil)

	summary, err := f.svc.UpdateSummary(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02T00:00:00.000Z", summary.Desde)
	assert.Len(t, summary.Updated, 1)
	assert.Len(t, summary.Pending, 2)
}

func TestUpdateSummary_InvalidRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateSummary(context.Background(), "2024-05-09", "2024-05-01")
	assert.ErrorIs(t, err, ErrInvalidRange)
	var rangeErr *maintenance.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "Rango incorrecto", rangeErr.Title)

	_, err = f.svc.UpdateSummary(context.Background(), "2024-05-01", "")
	assert.ErrorIs(t, err, maintenance.ErrRangeMissing)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	overdue := scheduledPlan()
	overdue.Remaining = -10
	f.equipment.On("FindEquipment", mock.Anything, bson.M{}).Return([]models.Equipment{{Active: true}, {Active: false}}, nil)
	f.scheduled.On("FindScheduled", mock.Anything, bson.M{"activo": true}).Return([]models.ScheduledMaintenance{*overdue, *scheduledPlan()}, nil)
	f.readings.On("FindReadings", mock.Anything, bson.M{}, int64(5)).Return(nil, nil)
	f.completions.On("FindCompletions", mock.Anything, bson.M{}, int64(5)).Return(nil, nil)

	d, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.ActiveEquipment)
	assert.Equal(t, 1, d.Overdue)
	assert.True(t, d.CriticalAlert)
}

func TestSnapshot_EmptyCollections(t *testing.T) {
	f := newFixture(t)
	f.equipment.On("FindEquipment", mock.Anything, bson.M{}).Return(nil, nil)
	f.scheduled.On("FindScheduled", mock.Anything, bson.M{}).Return(nil, nil)
	f.readings.On("FindReadings", mock.Anything, bson.M{}, int64(SnapshotReadingLimit)).Return(nil, nil)

	snap, err := f.svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Equipment)
	assert.NotNil(t, snap.Scheduled)
	assert.NotNil(t, snap.Readings)
}

func TestSnapshot_Error(t *testing.T) {
	f := newFixture(t)
	f.equipment.On("FindEquipment", mock.Anything, bson.M{}).Return(nil, errors.New("timeout"))

	_, err := f.svc.Snapshot(context.Background())
	assert.ErrorContains(t, err, "load equipment")
}

func TestHistory_WithRange(t *testing.T) {
	f := newFixture(t)
	f.history.On("FindEvents", mock.Anything, mock.MatchedBy(func(q db.HistoryQuery) bool {
		return q.Ficha == "AC-012" && q.From != nil && q.To != nil &&
			q.From.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) &&
			q.To.Equal(time.Date(2024, 5, 3, 23, 59, 59, int(999*time.Millisecond), time.UTC))
	})).Return(nil, nil)

	items, err := f.svc.History(context.Background(), HistoryFilter{Ficha: " AC-012 ", Desde: "2024-05-01", Hasta: "2024-05-03"})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.svc.History(context.Background(), HistoryFilter{Desde: "2024-13-01", Hasta: "2024-05-03"})
	assert.ErrorIs(t, err, maintenance.ErrRangeUnparsable)
}

func TestCreateEquipment(t *testing.T) {
	t.Run("duplicate ficha", func(t *testing.T) {
		f := newFixture(t)
		f.equipment.On("FindEquipmentByFicha", mock.Anything, "AC-012").
			Return(&models.Equipment{ID: primitive.NewObjectID(), Ficha: "AC-012"}, nil)

		_, err := f.svc.CreateEquipment(context.Background(), models.Equipment{Ficha: " AC-012", Name: "Excavadora"}, "")
		assert.ErrorIs(t, err, ErrDuplicateFicha)
	})

	t.Run("missing name", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateEquipment(context.Background(), models.Equipment{Ficha: "AC-1"}, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("created", func(t *testing.T) {
		f := newFixture(t)
		f.equipment.On("FindEquipmentByFicha", mock.Anything, "AC-020").Return(nil, db.ErrNotFound)
		f.equipment.On("InsertEquipment", mock.Anything, mock.AnythingOfType("*models.Equipment")).Return(nil)
		f.history.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *models.HistoryEvent) bool {
			return e.EventType == models.EventEquipmentCreated && e.Description == "Se registró el equipo Tractor D6"
		})).Return(nil)

		e, err := f.svc.CreateEquipment(context.Background(), models.Equipment{Ficha: "AC-020", Name: "Tractor D6", Active: true}, "admin")
		require.NoError(t, err)
		assert.Equal(t, "AC-020", e.Ficha)
	})
}

func TestUpdateEquipment_KeepsIdentity(t *testing.T) {
	f := newFixture(t)
	existing := &models.Equipment{ID: primitive.NewObjectID(), Ficha: "AC-1", Name: "Viejo", CreatedAt: testNow.Add(-time.Hour)}
	id := existing.ID.Hex()
	f.equipment.On("FindEquipmentByID", mock.Anything, id).Return(existing, nil)
	f.equipment.On("UpdateEquipment", mock.Anything, id, mock.MatchedBy(func(e models.Equipment) bool {
		return e.ID == existing.ID && e.CreatedAt.Equal(existing.CreatedAt) && e.Name == "Nuevo"
	})).Return(nil)
	f.history.On("InsertEvent", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.UpdateEquipment(context.Background(), id, models.Equipment{Ficha: "AC-1", Name: "Nuevo"}, "")
	require.NoError(t, err)
}

func TestDeleteEquipment_NotFound(t *testing.T) {
	f := newFixture(t)
	f.equipment.On("FindEquipmentByID", mock.Anything, "abc").Return(nil, db.ErrNotFound)

	err := f.svc.DeleteEquipment(context.Background(), "abc", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateScheduled_Reschedules(t *testing.T) {
	f := newFixture(t)
	f.equipment.On("FindEquipmentByFicha", mock.Anything, "AC-012").Return(&models.Equipment{Name: "Excavadora CAT 320"}, nil)
	f.scheduled.On("InsertScheduled", mock.Anything, mock.MatchedBy(func(m *models.ScheduledMaintenance) bool {
		return m.NextDue == 1500 && m.Remaining == 300 && m.EquipmentName == "Excavadora CAT 320" &&
			m.LastUpdated == "2024-05-08T15:30:00.000Z"
	})).Return(nil)
	f.history.On("InsertEvent", mock.Anything, mock.Anything).Return(nil)

	m, err := f.svc.CreateScheduled(context.Background(), models.ScheduledMaintenance{
		Ficha:            "AC-012",
		MaintenanceType:  "PM2",
		Frequency:        500,
		CurrentUsage:     1200,
		LastServiceUsage: 1000,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 300.0, m.Remaining)
}

func TestCreateScheduled_Invalid(t *testing.T) {
	f := newFixture(t)
	for _, m := range []models.ScheduledMaintenance{
		{MaintenanceType: "PM1", Frequency: 250},
		{Ficha: "AC-1", Frequency: 250},
		{Ficha: "AC-1", MaintenanceType: "PM1"},
		{Ficha: "AC-1", MaintenanceType: "PM1", Frequency: 250, CurrentUsage: -1},
	} {
		_, err := f.svc.CreateScheduled(context.Background(), m, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestDeleteScheduled(t *testing.T) {
	f := newFixture(t)
	plan := scheduledPlan()
	id := plan.ID.Hex()
	f.scheduled.On("FindScheduledByID", mock.Anything, id).Return(plan, nil)
	f.scheduled.On("DeleteScheduled", mock.Anything, id).Return(nil)
	f.history.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *models.HistoryEvent) bool {
		return e.EventType == models.EventMaintenanceDeleted && e.Severity == models.SeverityWarning
	})).Return(nil)

	require.NoError(t, f.svc.DeleteScheduled(context.Background(), id, "admin"))
}

func TestRoutePlan_NormalizesInterval(t *testing.T) {
	f := newFixture(t)
	f.equipment.On("FindEquipment", mock.Anything, bson.M{}).Return([]models.Equipment{
		{Ficha: "AC-012", Brand: "Caterpillar", Model: "320"},
	}, nil)
	f.scheduled.On("FindScheduled", mock.Anything, bson.M{"activo": true}).Return([]models.ScheduledMaintenance{*scheduledPlan()}, nil)

	items, err := f.svc.RoutePlan(context.Background(), "pm2")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "PM2", items[0].IntervalCode)

	assert.Equal(t, maintenance.NoIntervalCode, normalizeInterval("sin mp"))
}

func TestActor(t *testing.T) {
	f := newFixture(t)
	f.users.On("FindUserByID", mock.Anything, "u1").Return(&models.User{Username: "jperez", FirstName: "Juan", LastName: "Pérez"}, nil)
	f.users.On("FindUserByID", mock.Anything, "u2").Return(nil, db.ErrNotFound)

	assert.Equal(t, "Juan Pérez", f.svc.Actor(context.Background(), "u1", "jperez"))
	assert.Equal(t, "fallback", f.svc.Actor(context.Background(), "u2", "fallback"))
	assert.Equal(t, DefaultActor, f.svc.Actor(context.Background(), "", ""))
}
