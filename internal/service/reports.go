package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// SnapshotReadingLimit caps the readings returned by Snapshot.
const SnapshotReadingLimit = 1000

// Snapshot is the fleet data set consumed by the maintenance screens.
type Snapshot struct {
	Equipment []models.Equipment            `json:"equipos"`
	Scheduled []models.ScheduledMaintenance `json:"mantenimientosProgramados"`
	Readings  []models.UsageReading         `json:"actualizacionesHorasKm"`
}

// Snapshot loads equipment, scheduled maintenance and the latest readings.
func (s *FleetService) Snapshot(ctx context.Context) (*Snapshot, error) {
	equipment, err := s.equipment.FindEquipment(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load equipment: %w", err)
	}
	scheduled, err := s.scheduled.FindScheduled(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load scheduled maintenance: %w", err)
	}
	readings, err := s.readings.FindReadings(ctx, bson.M{}, SnapshotReadingLimit)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}
	return &Snapshot{
		Equipment: nonNil(equipment),
		Scheduled: nonNil(scheduled),
		Readings:  nonNil(readings),
	}, nil
}

// Dashboard builds the fleet overview and refreshes the overdue gauge.
func (s *FleetService) Dashboard(ctx context.Context) (*maintenance.Dashboard, error) {
	equipment, err := s.equipment.FindEquipment(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load equipment: %w", err)
	}
	scheduled, err := s.scheduled.FindScheduled(ctx, bson.M{"activo": true})
	if err != nil {
		return nil, fmt.Errorf("load scheduled maintenance: %w", err)
	}
	readings, err := s.readings.FindReadings(ctx, bson.M{}, 5)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}
	completions, err := s.completions.FindCompletions(ctx, bson.M{}, 5)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	d := maintenance.BuildDashboard(equipment, scheduled, readings, completions)
	overdueMaintenance.Set(float64(d.Overdue))
	return &d, nil
}

// UpdateSummary partitions scheduled maintenance into updated and pending for
// the calendar days desde..hasta. Both empty selects the last seven days.
func (s *FleetService) UpdateSummary(ctx context.Context, desde, hasta string) (*maintenance.UpdateSummary, error) {
	if strings.TrimSpace(desde) == "" && strings.TrimSpace(hasta) == "" {
		desde, hasta = maintenance.CurrentWeek(s.now(), s.loc)
	}
	rng, err := maintenance.ValidateDateRange(desde, hasta, s.loc)
	if err != nil {
		return nil, wrapRange(err)
	}

	readings, err := s.readings.FindReadings(ctx, db.ReadingsBetween(rng.Start, rng.End), 0)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}
	scheduled, err := s.scheduled.FindScheduled(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load scheduled maintenance: %w", err)
	}

	summary := maintenance.BuildUpdateSummary(*rng, readings, scheduled)
	return &summary, nil
}

// RoutePlan lists the Caterpillar service route, optionally for one interval.
func (s *FleetService) RoutePlan(ctx context.Context, interval string) ([]maintenance.RouteItem, error) {
	equipment, err := s.equipment.FindEquipment(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load equipment: %w", err)
	}
	scheduled, err := s.scheduled.FindScheduled(ctx, bson.M{"activo": true})
	if err != nil {
		return nil, fmt.Errorf("load scheduled maintenance: %w", err)
	}
	return maintenance.BuildRoutePlan(equipment, scheduled, s.catalog, normalizeInterval(interval)), nil
}

// HistoryFilter selects audit events. Desde and Hasta are calendar days and
// must be given together.
type HistoryFilter struct {
	Ficha     string
	Module    models.HistoryModule
	EventType string
	Desde     string
	Hasta     string
	Limit     int64
}

// History returns audit events, newest first.
func (s *FleetService) History(ctx context.Context, f HistoryFilter) ([]models.HistoryEvent, error) {
	query := db.HistoryQuery{
		Ficha:     strings.TrimSpace(f.Ficha),
		Module:    f.Module,
		EventType: f.EventType,
		Limit:     f.Limit,
	}
	if f.Desde != "" || f.Hasta != "" {
		rng, err := maintenance.ValidateDateRange(f.Desde, f.Hasta, s.loc)
		if err != nil {
			return nil, wrapRange(err)
		}
		query.From = &rng.Start
		query.To = &rng.End
	}
	items, err := s.history.FindEvents(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return nonNil(items), nil
}

func normalizeInterval(interval string) string {
	interval = strings.TrimSpace(interval)
	if strings.EqualFold(interval, maintenance.NoIntervalCode) {
		return maintenance.NoIntervalCode
	}
	return strings.ToUpper(interval)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
