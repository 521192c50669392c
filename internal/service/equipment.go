package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// EquipmentFilter narrows ListEquipment. Zero values match everything.
type EquipmentFilter struct {
	Active   *bool
	Company  models.Company
	Category string
}

func (f EquipmentFilter) bson() bson.M {
	filter := bson.M{}
	if f.Active != nil {
		filter["activo"] = *f.Active
	}
	if f.Company != "" {
		filter["empresa"] = f.Company
	}
	if f.Category != "" {
		filter["categoria"] = f.Category
	}
	return filter
}

// ListEquipment returns the fleet ordered by ficha.
func (s *FleetService) ListEquipment(ctx context.Context, filter EquipmentFilter) ([]models.Equipment, error) {
	items, err := s.equipment.FindEquipment(ctx, filter.bson())
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return items, nil
}

// GetEquipment returns one asset.
func (s *FleetService) GetEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	e, err := s.equipment.FindEquipmentByID(ctx, id)
	return e, mapStoreError(err)
}

// CreateEquipment registers an asset. Fichas are unique.
func (s *FleetService) CreateEquipment(ctx context.Context, e models.Equipment, user string) (*models.Equipment, error) {
	normalizeEquipment(&e)
	if e.Ficha == "" || e.Name == "" {
		return nil, fmt.Errorf("%w: ficha and nombre are required", ErrInvalidInput)
	}
	if err := s.ensureFichaFree(ctx, e.Ficha, ""); err != nil {
		return nil, err
	}
	if err := s.equipment.InsertEquipment(ctx, &e); err != nil {
		return nil, mapStoreError(err)
	}

	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventEquipmentCreated,
		Module:          models.HistoryModuleEquipment,
		Description:     fmt.Sprintf("Se registró el equipo %s", e.Name),
		Ficha:           stringPtr(e.Ficha),
		EquipmentName:   stringPtr(e.Name),
		ResponsibleUser: actorOrDefault(user),
		After:           e,
	})
	log.WithFields(log.Fields{"ficha": e.Ficha, "id": e.ID.Hex()}).Info("Equipment created")
	return &e, nil
}

// UpdateEquipment replaces the editable fields of an asset.
func (s *FleetService) UpdateEquipment(ctx context.Context, id string, e models.Equipment, user string) (*models.Equipment, error) {
	normalizeEquipment(&e)
	if e.Ficha == "" || e.Name == "" {
		return nil, fmt.Errorf("%w: ficha and nombre are required", ErrInvalidInput)
	}
	existing, err := s.equipment.FindEquipmentByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if e.Ficha != existing.Ficha {
		if err := s.ensureFichaFree(ctx, e.Ficha, id); err != nil {
			return nil, err
		}
	}

	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	if err := s.equipment.UpdateEquipment(ctx, id, e); err != nil {
		return nil, mapStoreError(err)
	}

	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventEquipmentUpdated,
		Module:          models.HistoryModuleEquipment,
		Description:     fmt.Sprintf("Se actualizaron datos del equipo %s", e.Name),
		Ficha:           stringPtr(e.Ficha),
		EquipmentName:   stringPtr(e.Name),
		ResponsibleUser: actorOrDefault(user),
		Before:          existing,
		After:           e,
	})
	return &e, nil
}

// DeleteEquipment removes an asset. Its scheduled maintenance is kept.
func (s *FleetService) DeleteEquipment(ctx context.Context, id, user string) error {
	existing, err := s.equipment.FindEquipmentByID(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}
	if err := s.equipment.DeleteEquipment(ctx, id); err != nil {
		return mapStoreError(err)
	}

	s.recordHistory(ctx, &models.HistoryEvent{
		EventType:       models.EventEquipmentDeleted,
		Module:          models.HistoryModuleEquipment,
		Description:     fmt.Sprintf("Se eliminó el equipo %s", existing.Name),
		Ficha:           stringPtr(existing.Ficha),
		EquipmentName:   stringPtr(existing.Name),
		ResponsibleUser: actorOrDefault(user),
		Severity:        models.SeverityWarning,
		Before:          existing,
		Metadata:        map[string]interface{}{"accion": "eliminar"},
	})
	log.WithField("ficha", existing.Ficha).Info("Equipment deleted")
	return nil
}

func (s *FleetService) ensureFichaFree(ctx context.Context, ficha, ownID string) error {
	found, err := s.equipment.FindEquipmentByFicha(ctx, ficha)
	switch {
	case err == nil && found.ID.Hex() != ownID:
		return ErrDuplicateFicha
	case err == nil, errors.Is(mapStoreError(err), ErrNotFound):
		return nil
	default:
		return err
	}
}

func normalizeEquipment(e *models.Equipment) {
	e.Ficha = strings.TrimSpace(e.Ficha)
	e.Name = strings.TrimSpace(e.Name)
	if e.Active {
		e.InactiveReason = nil
	}
}
