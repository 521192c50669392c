// Package service implements the fleet maintenance operations on top of the
// db collections: usage readings, completed services, plan and equipment
// management, reports and the audit trail.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// DefaultActor is recorded when a mutation has no identifiable user.
const DefaultActor = "Equipo de mantenimiento"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrMutationInFlight = errors.New("another update for this maintenance is in progress")
	ErrInvalidRange     = errors.New("invalid date range")
	ErrDuplicateFicha   = errors.New("ficha already registered")
	ErrInvalidInput     = errors.New("invalid input")

	ErrInvalidReading      = maintenance.ErrInvalidReading
	ErrReadingBelowCurrent = maintenance.ErrReadingBelowCurrent
)

var (
	readingsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_usage_readings_total",
		Help: "Usage readings recorded.",
	})
	completionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_maintenance_completed_total",
		Help: "Completed maintenance registrations.",
	})
	mutationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_mutation_conflicts_total",
		Help: "Mutations rejected because the same record was already being updated.",
	})
	sideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_side_effect_failures_total",
		Help: "Best-effort history or event writes that failed.",
	}, []string{"kind"})
	overdueMaintenance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_maintenance_overdue",
		Help: "Scheduled maintenance with no remaining usage, as of the last dashboard build.",
	})
)

// Deps groups the collaborators of FleetService. Publisher, Catalog, Users
// and Location are optional.
type Deps struct {
	Equipment   db.EquipmentCollection
	Scheduled   db.ScheduledMaintenanceCollection
	Readings    db.ReadingCollection
	Completions db.CompletionCollection
	History     db.HistoryCollection
	Users       db.UserCollection
	Catalog     maintenance.CatalogSource
	Publisher   events.Publisher
	Location    *time.Location
}

// FleetService coordinates persistence, history and event publication.
type FleetService struct {
	equipment   db.EquipmentCollection
	scheduled   db.ScheduledMaintenanceCollection
	readings    db.ReadingCollection
	completions db.CompletionCollection
	history     db.HistoryCollection
	users       db.UserCollection
	catalog     maintenance.CatalogSource
	publisher   events.Publisher
	loc         *time.Location
	now         func() time.Time
	inflight    *keyedGuard
}

// NewFleetService creates the service.
func NewFleetService(deps Deps) *FleetService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &FleetService{
		equipment:   deps.Equipment,
		scheduled:   deps.Scheduled,
		readings:    deps.Readings,
		completions: deps.Completions,
		history:     deps.History,
		users:       deps.Users,
		catalog:     deps.Catalog,
		publisher:   publisher,
		loc:         loc,
		now:         time.Now,
		inflight:    newKeyedGuard(),
	}
}

// Location returns the zone used for calendar-day arithmetic.
func (s *FleetService) Location() *time.Location {
	return s.loc
}

// Actor resolves the display name recorded on history and readings for userID.
func (s *FleetService) Actor(ctx context.Context, userID, fallback string) string {
	if s.users != nil && userID != "" {
		if user, err := s.users.FindUserByID(ctx, userID); err == nil {
			if name := user.DisplayName(); name != "" {
				return name
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return DefaultActor
}

// keyedGuard rejects concurrent work on the same key.
type keyedGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newKeyedGuard() *keyedGuard {
	return &keyedGuard{active: make(map[string]struct{})}
}

func (g *keyedGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

func (g *keyedGuard) release(key string) {
	g.mu.Lock()
	delete(g.active, key)
	g.mu.Unlock()
}

// lock claims id for the duration of a mutation. Hex ids are case
// insensitive, so the guard key is normalized.
func (s *FleetService) lock(id string) (func(), error) {
	key := guardKey(id)
	if !s.inflight.acquire(key) {
		mutationConflicts.Inc()
		log.WithField("id", id).Warn("Rejected concurrent maintenance mutation")
		return nil, ErrMutationInFlight
	}
	return func() { s.inflight.release(key) }, nil
}

func guardKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// mapStoreError converts db errors to service errors.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, db.ErrInvalidID):
		return ErrInvalidID
	case errors.Is(err, db.ErrDuplicate):
		return ErrDuplicateFicha
	default:
		return err
	}
}

// recordHistory writes an audit event. Failures are logged, never returned.
func (s *FleetService) recordHistory(ctx context.Context, event *models.HistoryEvent) {
	if s.history == nil {
		return
	}
	if event.Severity == "" {
		event.Severity = models.SeverityInfo
	}
	if event.ResponsibleUser == "" {
		event.ResponsibleUser = DefaultActor
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if err := s.history.InsertEvent(ctx, event); err != nil {
		sideEffectFailures.WithLabelValues("history").Inc()
		log.WithError(err).WithFields(log.Fields{
			"event": event.EventType,
			"ficha": optionalString(event.Ficha),
		}).Error("Failed to record history event")
	}
}

// publish sends an event. Failures are logged, never returned.
func (s *FleetService) publish(ctx context.Context, topic events.Topic, payload interface{}) {
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		sideEffectFailures.WithLabelValues("event").Inc()
		log.WithError(err).WithField("topic", topic).Warn("Failed to publish event")
	}
}

// alertIfDue publishes an alert when a plan is overdue or close to it.
func (s *FleetService) alertIfDue(ctx context.Context, m *models.ScheduledMaintenance, unit models.Unit) {
	if m.Remaining > maintenance.DueSoonThreshold {
		return
	}
	severity := models.SeverityWarning
	if m.Remaining <= 0 {
		severity = models.SeverityCritical
	}
	s.publish(ctx, events.TopicAlerts, events.AlertEvent{
		MaintenanceID:   m.ID.Hex(),
		Ficha:           m.Ficha,
		MaintenanceType: m.MaintenanceType,
		Remaining:       m.Remaining,
		Unit:            unit,
		Severity:        severity,
		At:              s.now(),
	})
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func stringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func wrapRange(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRange, err)
}
