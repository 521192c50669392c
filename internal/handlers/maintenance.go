package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/service"
)

// FleetService is the set of fleet operations the HTTP layer exposes.
type FleetService interface {
	Location() *time.Location
	Actor(ctx context.Context, userID, fallback string) string

	Snapshot(ctx context.Context) (*service.Snapshot, error)
	Dashboard(ctx context.Context) (*maintenance.Dashboard, error)
	UpdateSummary(ctx context.Context, desde, hasta string) (*maintenance.UpdateSummary, error)
	RoutePlan(ctx context.Context, interval string) ([]maintenance.RouteItem, error)
	History(ctx context.Context, f service.HistoryFilter) ([]models.HistoryEvent, error)

	UpdateUsageReading(ctx context.Context, in service.ReadingInput) (*service.ReadingResult, error)
	RegisterCompletedMaintenance(ctx context.Context, in service.CompletionInput) (*service.CompletionResult, error)

	ListEquipment(ctx context.Context, f service.EquipmentFilter) ([]models.Equipment, error)
	GetEquipment(ctx context.Context, id string) (*models.Equipment, error)
	CreateEquipment(ctx context.Context, e models.Equipment, user string) (*models.Equipment, error)
	UpdateEquipment(ctx context.Context, id string, e models.Equipment, user string) (*models.Equipment, error)
	DeleteEquipment(ctx context.Context, id, user string) error

	ListScheduled(ctx context.Context, ficha string) ([]models.ScheduledMaintenance, error)
	GetScheduled(ctx context.Context, id string) (*models.ScheduledMaintenance, error)
	CreateScheduled(ctx context.Context, m models.ScheduledMaintenance, user string) (*models.ScheduledMaintenance, error)
	UpdateScheduled(ctx context.Context, id string, m models.ScheduledMaintenance, user string) (*models.ScheduledMaintenance, error)
	DeleteScheduled(ctx context.Context, id, user string) error
}

var _ FleetService = (*service.FleetService)(nil)

// FleetHandler serves equipment, maintenance plans and reports.
type FleetHandler struct {
	fleet FleetService
}

// NewFleetHandler creates a fleet handler.
func NewFleetHandler(fleet FleetService) *FleetHandler {
	return &FleetHandler{fleet: fleet}
}

// readingRequest is the body of POST /maintenance/{id}/readings.
type readingRequest struct {
	HorasKm            *float64    `json:"horasKm" validate:"required"`
	Fecha              string      `json:"fecha"`
	UsuarioResponsable string      `json:"usuarioResponsable" validate:"max=120"`
	Observaciones      string      `json:"observaciones" validate:"max=2000"`
	Unidad             models.Unit `json:"unidad" validate:"omitempty,oneof=horas km"`
}

// completionRequest is the body of POST /maintenance/{id}/completions.
type completionRequest struct {
	HorasKm            *float64             `json:"horasKm" validate:"required"`
	Fecha              string               `json:"fecha"`
	Observaciones      string               `json:"observaciones" validate:"max=2000"`
	FiltrosUtilizados  []models.FilterUsage `json:"filtrosUtilizados" validate:"dive"`
	UsuarioResponsable string               `json:"usuarioResponsable" validate:"max=120"`
	Unidad             models.Unit          `json:"unidad" validate:"omitempty,oneof=horas km"`
}

// Data returns equipment, scheduled maintenance and recent readings.
func (h *FleetHandler) Data(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.fleet.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// UpdateReading records a new hour-meter or odometer value.
func (h *FleetHandler) UpdateReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := h.parseFecha(w, req.Fecha)
	if !ok {
		return
	}

	result, err := h.fleet.UpdateUsageReading(r.Context(), service.ReadingInput{
		MaintenanceID: chi.URLParam(r, "id"),
		Value:         *req.HorasKm,
		Date:          date,
		User:          h.actor(r, req.UsuarioResponsable),
		Notes:         req.Observaciones,
		Unit:          req.Unidad,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RegisterCompletion records a finished service and reschedules the plan.
func (h *FleetHandler) RegisterCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := h.parseFecha(w, req.Fecha)
	if !ok {
		return
	}

	result, err := h.fleet.RegisterCompletedMaintenance(r.Context(), service.CompletionInput{
		MaintenanceID: chi.URLParam(r, "id"),
		Value:         *req.HorasKm,
		Date:          date,
		Notes:         req.Observaciones,
		Filters:       req.FiltrosUtilizados,
		User:          h.actor(r, req.UsuarioResponsable),
		Unit:          req.Unidad,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Dashboard returns the fleet overview.
func (h *FleetHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.fleet.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdatesReport partitions plans into updated and pending for ?desde=&hasta=.
func (h *FleetHandler) UpdatesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.fleet.UpdateSummary(r.Context(), q.Get("desde"), q.Get("hasta"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RoutePlan returns the Caterpillar service route, optionally for ?intervalo=.
func (h *FleetHandler) RoutePlan(w http.ResponseWriter, r *http.Request) {
	items, err := h.fleet.RoutePlan(r.Context(), r.URL.Query().Get("intervalo"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"intervalo": r.URL.Query().Get("intervalo"),
		"total":     len(items),
		"items":     items,
	})
}

// History returns audit events filtered by ficha, modulo, tipo and date range.
func (h *FleetHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var limit int64
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 1000 {
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := h.fleet.History(r.Context(), service.HistoryFilter{
		Ficha:     q.Get("ficha"),
		Module:    models.HistoryModule(q.Get("modulo")),
		EventType: q.Get("tipo"),
		Desde:     q.Get("desde"),
		Hasta:     q.Get("hasta"),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FleetHandler) parseFecha(w http.ResponseWriter, fecha string) (*time.Time, bool) {
	if fecha == "" {
		return nil, true
	}
	t, ok := maintenance.ParseTimestamp(fecha, h.fleet.Location())
	if !ok {
		http.Error(w, "Invalid fecha", http.StatusBadRequest)
		return nil, false
	}
	return &t, true
}

// actor picks the responsible user: the body value, else the caller's name.
func (h *FleetHandler) actor(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return service.DefaultActor
	}
	return h.fleet.Actor(r.Context(), claims.UserID, claims.Username)
}
