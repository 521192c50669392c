package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ListScheduled returns maintenance plans, optionally for one ?ficha=.
func (h *FleetHandler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	items, err := h.fleet.ListScheduled(r.Context(), r.URL.Query().Get("ficha"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FleetHandler) GetScheduled(w http.ResponseWriter, r *http.Request) {
	m, err := h.fleet.GetScheduled(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *FleetHandler) CreateScheduled(w http.ResponseWriter, r *http.Request) {
	var m models.ScheduledMaintenance
	if !decodeJSON(w, r, &m) {
		return
	}
	created, err := h.fleet.CreateScheduled(r.Context(), m, h.actor(r, ""))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *FleetHandler) UpdateScheduled(w http.ResponseWriter, r *http.Request) {
	var m models.ScheduledMaintenance
	if !decodeJSON(w, r, &m) {
		return
	}
	updated, err := h.fleet.UpdateScheduled(r.Context(), chi.URLParam(r, "id"), m, h.actor(r, ""))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *FleetHandler) DeleteScheduled(w http.ResponseWriter, r *http.Request) {
	if err := h.fleet.DeleteScheduled(r.Context(), chi.URLParam(r, "id"), h.actor(r, "")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
