package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ReadingInput is a new hour-meter or odometer value for a scheduled record.
type ReadingInput struct {
	MaintenanceID string
	Value         float64
	// Date defaults to now.
	Date  *time.Time
	User  string
	Notes string
	// Unit defaults to the one implied by the maintenance type.
	Unit models.Unit
}

// ReadingResult is the updated record and the stored reading.
type ReadingResult struct {
	Maintenance *models.ScheduledMaintenance `json:"mantenimiento"`
	Reading     *models.UsageReading         `json:"actualizacion"`
}

// UpdateUsageReading stores a new usage value for a scheduled record and
// recomputes what remains until its next service.
func (s *FleetService) UpdateUsageReading(ctx context.Context, in ReadingInput) (*ReadingResult, error) {
	unlock, err := s.lock(in.MaintenanceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := s.scheduled.FindScheduledByID(ctx, in.MaintenanceID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := maintenance.ValidateReading(in.Value, m.CurrentUsage); err != nil {
		return nil, err
	}

	at := s.eventTime(in.Date)
	unit := s.unitFor(in.Unit, m)
	user := actorOrDefault(in.User)
	before := *m

	outcome := maintenance.ApplyReading(m, in.Value, at)
	err = s.scheduled.SetScheduledFields(ctx, in.MaintenanceID, bson.M{
		"horas_km_actuales":          m.CurrentUsage,
		"fecha_ultima_actualizacion": m.LastUpdated,
		"horas_km_restante":          m.Remaining,
	})
	if err != nil {
		log.WithError(err).WithField("id", in.MaintenanceID).Error("Failed to update usage")
		return nil, fmt.Errorf("update usage: %w", mapStoreError(err))
	}

	name := m.EquipmentName
	reading := &models.UsageReading{
		MaintenanceID:   m.ID,
		Ficha:           m.Ficha,
		EquipmentName:   &name,
		Date:            at,
		Usage:           in.Value,
		Increment:       outcome.Increment,
		PreviousUsage:   outcome.PreviousUsage,
		Remaining:       outcome.Remaining,
		ResponsibleUser: user,
		Notes:           strings.TrimSpace(in.Notes),
		Unit:            unit,
	}
	if err := s.readings.InsertReading(ctx, reading); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"id":    in.MaintenanceID,
			"ficha": m.Ficha,
		}).Error("Usage updated but reading could not be stored")
		return nil, fmt.Errorf("store reading: %w", err)
	}
	readingsRecorded.Inc()

	description := reading.Notes
	if description == "" {
		description = fmt.Sprintf("Lectura actualizada a %s %s", formatNumber(in.Value), unit)
	}
	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventReadingUpdated,
		Module:          models.HistoryModuleMaintenance,
		Description:     description,
		Ficha:           stringPtr(m.Ficha),
		EquipmentName:   stringPtr(m.EquipmentName),
		ResponsibleUser: user,
		Before: bson.M{
			"horasKm":                  outcome.PreviousUsage,
			"fechaUltimaActualizacion": before.LastUpdated,
		},
		After: bson.M{
			"horasKm":       in.Value,
			"incremento":    outcome.Increment,
			"restante":      outcome.Remaining,
			"fecha":         m.LastUpdated,
			"observaciones": reading.Notes,
			"unidad":        unit,
		},
		Metadata: map[string]interface{}{
			"id":           in.MaintenanceID,
			"nombreEquipo": m.EquipmentName,
			"horasPrevias": outcome.PreviousUsage,
		},
		CreatedAt: at,
	})

	s.publish(ctx, events.TopicReadings, events.ReadingEvent{
		MaintenanceID: in.MaintenanceID,
		Ficha:         m.Ficha,
		Usage:         in.Value,
		Increment:     outcome.Increment,
		Remaining:     outcome.Remaining,
		Unit:          unit,
		User:          user,
		At:            at,
	})
	s.alertIfDue(ctx, m, unit)

	log.WithFields(log.Fields{
		"id":        in.MaintenanceID,
		"ficha":     m.Ficha,
		"usage":     in.Value,
		"remaining": outcome.Remaining,
	}).Info("Usage reading recorded")

	return &ReadingResult{Maintenance: m, Reading: reading}, nil
}

// CompletionInput registers a service carried out on a scheduled record.
type CompletionInput struct {
	MaintenanceID string
	Value         float64
	Date          *time.Time
	Notes         string
	Filters       []models.FilterUsage
	User          string
	Unit          models.Unit
}

// CompletionResult is the rescheduled record and the stored completion.
type CompletionResult struct {
	Maintenance *models.ScheduledMaintenance `json:"mantenimiento"`
	Completion  *models.CompletedMaintenance `json:"realizado"`
}

// RegisterCompletedMaintenance records a finished service and starts a new
// cycle: next due becomes value plus frequency.
func (s *FleetService) RegisterCompletedMaintenance(ctx context.Context, in CompletionInput) (*CompletionResult, error) {
	if math.IsNaN(in.Value) || math.IsInf(in.Value, 0) || in.Value < 0 {
		return nil, ErrInvalidReading
	}

	unlock, err := s.lock(in.MaintenanceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := s.scheduled.FindScheduledByID(ctx, in.MaintenanceID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	at := s.eventTime(in.Date)
	unit := s.unitFor(in.Unit, m)
	user := actorOrDefault(in.User)
	filters := in.Filters
	if filters == nil {
		filters = []models.FilterUsage{}
	}
	before := *m

	outcome := maintenance.ApplyCompletion(m, in.Value, at)
	err = s.scheduled.SetScheduledFields(ctx, in.MaintenanceID, bson.M{
		"fecha_ultimo_mantenimiento":    m.LastServiceDate,
		"horas_km_ultimo_mantenimiento": m.LastServiceUsage,
		"proximo_mantenimiento":         m.NextDue,
		"horas_km_restante":             m.Remaining,
		"horas_km_actuales":             m.CurrentUsage,
		"fecha_ultima_actualizacion":    m.LastUpdated,
	})
	if err != nil {
		log.WithError(err).WithField("id", in.MaintenanceID).Error("Failed to reschedule maintenance")
		return nil, fmt.Errorf("reschedule: %w", mapStoreError(err))
	}

	completion := &models.CompletedMaintenance{
		MaintenanceID:   m.ID,
		Ficha:           m.Ficha,
		EquipmentName:   m.EquipmentName,
		Date:            at,
		UsageAtService:  in.Value,
		PreviousUsage:   outcome.PreviousServiceUsage,
		Increment:       outcome.Increment,
		Notes:           strings.TrimSpace(in.Notes),
		FiltersUsed:     filters,
		ResponsibleUser: user,
		Unit:            unit,
		NextDue:         outcome.NextDue,
	}
	if err := s.completions.InsertCompletion(ctx, completion); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"id":    in.MaintenanceID,
			"ficha": m.Ficha,
		}).Error("Maintenance rescheduled but completion could not be stored")
		return nil, fmt.Errorf("store completion: %w", err)
	}
	completionsRecorded.Inc()

	description := completion.Notes
	if description == "" {
		description = fmt.Sprintf("Mantenimiento %s realizado para %s (%s %s)",
			m.MaintenanceType, m.EquipmentName, formatNumber(in.Value), unit)
	}
	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventMaintenanceCompleted,
		Module:          models.HistoryModuleMaintenance,
		Description:     description,
		Ficha:           stringPtr(m.Ficha),
		EquipmentName:   stringPtr(m.EquipmentName),
		ResponsibleUser: user,
		Before: bson.M{
			"horasKmUltimoMantenimiento": before.LastServiceUsage,
			"fechaUltimoMantenimiento":   before.LastServiceDate,
		},
		After: bson.M{
			"horasKmAlMomento":      in.Value,
			"incrementoDesdeUltimo": outcome.Increment,
			"filtrosUtilizados":     filters,
			"observaciones":         completion.Notes,
			"fechaMantenimiento":    m.LastUpdated,
			"unidad":                unit,
		},
		Metadata: map[string]interface{}{
			"id":                            in.MaintenanceID,
			"nombreEquipo":                  m.EquipmentName,
			"proximoMantenimientoCalculado": outcome.NextDue,
		},
		CreatedAt: at,
	})

	s.publish(ctx, events.TopicCompletions, events.CompletionEvent{
		MaintenanceID: in.MaintenanceID,
		Ficha:         m.Ficha,
		Usage:         in.Value,
		NextDue:       outcome.NextDue,
		Unit:          unit,
		User:          user,
		At:            at,
	})

	log.WithFields(log.Fields{
		"id":       in.MaintenanceID,
		"ficha":    m.Ficha,
		"usage":    in.Value,
		"next_due": outcome.NextDue,
	}).Info("Maintenance completed")

	return &CompletionResult{Maintenance: m, Completion: completion}, nil
}

func (s *FleetService) eventTime(date *time.Time) time.Time {
	if date == nil || date.IsZero() {
		return s.now().In(s.loc)
	}
	return date.In(s.loc)
}

func (s *FleetService) unitFor(requested models.Unit, m *models.ScheduledMaintenance) models.Unit {
	if requested == models.UnitHours || requested == models.UnitKilometers {
		return requested
	}
	return maintenance.UnitFor(m.MaintenanceType)
}

func actorOrDefault(user string) string {
	if user = strings.TrimSpace(user); user != "" {
		return user
	}
	return DefaultActor
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
