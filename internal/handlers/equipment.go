package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/service"
)

// ListEquipment returns the fleet, filtered by ?activo=, ?empresa= and ?categoria=.
func (h *FleetHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.EquipmentFilter{
		Company:  models.Company(q.Get("empresa")),
		Category: q.Get("categoria"),
	}
	if raw := q.Get("activo"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "activo must be true or false", http.StatusBadRequest)
			return
		}
		filter.Active = &active
	}

	items, err := h.fleet.ListEquipment(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetEquipment returns one asset.
func (h *FleetHandler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	e, err := h.fleet.GetEquipment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEquipment adds an asset to the fleet.
func (h *FleetHandler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var e models.Equipment
	if !decodeJSON(w, r, &e) {
		return
	}
	created, err := h.fleet.CreateEquipment(r.Context(), e, h.actor(r, ""))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateEquipment replaces an asset.
func (h *FleetHandler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	var e models.Equipment
	if !decodeJSON(w, r, &e) {
		return
	}
	updated, err := h.fleet.UpdateEquipment(r.Context(), chi.URLParam(r, "id"), e, h.actor(r, ""))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteEquipment removes an asset.
func (h *FleetHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	if err := h.fleet.DeleteEquipment(r.Context(), chi.URLParam(r, "id"), h.actor(r, "")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
