package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ListScheduled returns maintenance plans, most urgent first. An empty ficha
// returns every plan.
func (s *FleetService) ListScheduled(ctx context.Context, ficha string) ([]models.ScheduledMaintenance, error) {
	filter := bson.M{}
	if ficha != "" {
		filter["ficha"] = ficha
	}
	items, err := s.scheduled.FindScheduled(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list scheduled maintenance: %w", err)
	}
	return items, nil
}

// GetScheduled returns one maintenance plan.
func (s *FleetService) GetScheduled(ctx context.Context, id string) (*models.ScheduledMaintenance, error) {
	m, err := s.scheduled.FindScheduledByID(ctx, id)
	return m, mapStoreError(err)
}

// CreateScheduled stores a new plan with next due and remaining derived from
// the last service and the frequency.
func (s *FleetService) CreateScheduled(ctx context.Context, m models.ScheduledMaintenance, user string) (*models.ScheduledMaintenance, error) {
	if err := s.prepareScheduled(ctx, &m); err != nil {
		return nil, err
	}
	if m.LastUpdated == "" {
		m.LastUpdated = s.now().In(s.loc).Format(maintenance.TimestampLayout)
	}
	if err := s.scheduled.InsertScheduled(ctx, &m); err != nil {
		return nil, mapStoreError(err)
	}

	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventMaintenanceCreated,
		Module:          models.HistoryModuleMaintenance,
		Description:     fmt.Sprintf("Se creó el mantenimiento para %s", m.EquipmentName),
		Ficha:           stringPtr(m.Ficha),
		EquipmentName:   stringPtr(m.EquipmentName),
		ResponsibleUser: actorOrDefault(user),
		After:           m,
	})
	return &m, nil
}

// UpdateScheduled replaces the editable fields of a plan and reschedules it.
func (s *FleetService) UpdateScheduled(ctx context.Context, id string, m models.ScheduledMaintenance, user string) (*models.ScheduledMaintenance, error) {
	unlock, err := s.lock(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.scheduled.FindScheduledByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := s.prepareScheduled(ctx, &m); err != nil {
		return nil, err
	}
	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	if m.LastUpdated == "" {
		m.LastUpdated = existing.LastUpdated
	}
	if err := s.scheduled.UpdateScheduled(ctx, id, m); err != nil {
		return nil, mapStoreError(err)
	}

	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventMaintenanceUpdated,
		Module:          models.HistoryModuleMaintenance,
		Description:     fmt.Sprintf("Se actualizó el mantenimiento de %s", m.EquipmentName),
		Ficha:           stringPtr(m.Ficha),
		EquipmentName:   stringPtr(m.EquipmentName),
		ResponsibleUser: actorOrDefault(user),
		Before:          existing,
		After:           m,
	})
	return &m, nil
}

// DeleteScheduled removes a plan.
func (s *FleetService) DeleteScheduled(ctx context.Context, id, user string) error {
	unlock, err := s.lock(id)
	if err != nil {
		return err
	}
	defer unlock()

	existing, err := s.scheduled.FindScheduledByID(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}
	if err := s.scheduled.DeleteScheduled(ctx, id); err != nil {
		return mapStoreError(err)
	}

	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventMaintenanceDeleted,
		Module:          models.HistoryModuleMaintenance,
		Description:     fmt.Sprintf("Se eliminó el mantenimiento de %s", existing.EquipmentName),
		Ficha:           stringPtr(existing.Ficha),
		EquipmentName:   stringPtr(existing.EquipmentName),
		ResponsibleUser: actorOrDefault(user),
		Severity:        models.SeverityWarning,
		Before:          existing,
		Metadata:        map[string]interface{}{"accion": "eliminar"},
	})
	return nil
}

// prepareScheduled validates a plan, fills the equipment name from the fleet
// when missing and recomputes next due and remaining.
func (s *FleetService) prepareScheduled(ctx context.Context, m *models.ScheduledMaintenance) error {
	m.Ficha = strings.TrimSpace(m.Ficha)
	m.MaintenanceType = strings.TrimSpace(m.MaintenanceType)
	if m.Ficha == "" || m.MaintenanceType == "" {
		return fmt.Errorf("%w: ficha and tipoMantenimiento are required", ErrInvalidInput)
	}
	for _, v := range []float64{m.Frequency, m.CurrentUsage, m.LastServiceUsage} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: usage values must be non-negative", ErrInvalidInput)
		}
	}
	if m.Frequency == 0 {
		return fmt.Errorf("%w: frecuencia must be positive", ErrInvalidInput)
	}
	if m.EquipmentName == "" {
		if e, err := s.equipment.FindEquipmentByFicha(ctx, m.Ficha); err == nil {
			m.EquipmentName = e.Name
		}
	}
	maintenance.Reschedule(m)
	return nil
}
