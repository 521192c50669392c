package maintenance

import (
	"math"
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

const (
	// CriticalPendingThreshold flags pending records this close to their next service.
	CriticalPendingThreshold = 25
	summaryHighlights        = 3
)

// UpdatedEntry pairs a record refreshed inside the window with its reading, if any.
type UpdatedEntry struct {
	Maintenance models.ScheduledMaintenance `json:"mantenimiento"`
	Event       *models.UsageReading        `json:"evento"`
}

// UpdateSummary splits scheduled maintenance into updated and pending for a window.
type UpdateSummary struct {
	Desde           string                        `json:"desde"`
	Hasta           string                        `json:"hasta"`
	Updated         []UpdatedEntry                `json:"actualizados"`
	Pending         []models.ScheduledMaintenance `json:"pendientes"`
	Coverage        int                           `json:"coberturaSemanal"`
	CriticalPending []models.ScheduledMaintenance `json:"pendientesCriticos"`
	LatestReadings  []UpdatedEntry                `json:"ultimasLecturas"`
	PriorityPending []models.ScheduledMaintenance `json:"pendientesPrioritarios"`
}

// BuildUpdateSummary partitions scheduled records by whether their last update
// falls inside rng. Records with a missing or unparsable last-update date are
// always pending.
func BuildUpdateSummary(rng DateRange, readings []models.UsageReading, scheduled []models.ScheduledMaintenance) UpdateSummary {
	loc := rng.Start.Location()

	byFicha := make(map[string][]models.UsageReading)
	for _, r := range readings {
		if r.Date.IsZero() || !rng.Contains(r.Date) {
			continue
		}
		byFicha[r.Ficha] = append(byFicha[r.Ficha], r)
	}

	summary := UpdateSummary{
		Desde:           rng.Desde,
		Hasta:           rng.Hasta,
		Updated:         []UpdatedEntry{},
		Pending:         []models.ScheduledMaintenance{},
		CriticalPending: []models.ScheduledMaintenance{},
	}

	for _, m := range scheduled {
		last, ok := ParseTimestamp(m.LastUpdated, loc)
		if !ok {
			summary.Pending = append(summary.Pending, m)
			continue
		}
		day := StartOfDay(last, loc)
		if day.Before(rng.Start) || day.After(rng.End) {
			summary.Pending = append(summary.Pending, m)
			continue
		}
		summary.Updated = append(summary.Updated, UpdatedEntry{
			Maintenance: m,
			Event:       closestSameDay(byFicha[m.Ficha], last, loc),
		})
	}

	if len(scheduled) > 0 {
		summary.Coverage = int(math.Floor(float64(len(summary.Updated))*100/float64(len(scheduled)) + 0.5))
	}
	for _, m := range summary.Pending {
		if m.Remaining <= CriticalPendingThreshold {
			summary.CriticalPending = append(summary.CriticalPending, m)
		}
	}

	latest := append([]UpdatedEntry(nil), summary.Updated...)
	sort.SliceStable(latest, func(i, j int) bool {
		return eventUnix(latest[i].Event) > eventUnix(latest[j].Event)
	})
	summary.LatestReadings = head(latest, summaryHighlights)

	priority := append([]models.ScheduledMaintenance(nil), summary.Pending...)
	sort.SliceStable(priority, func(i, j int) bool {
		return priority[i].Remaining < priority[j].Remaining
	})
	summary.PriorityPending = head(priority, summaryHighlights)

	return summary
}

func closestSameDay(events []models.UsageReading, at time.Time, loc *time.Location) *models.UsageReading {
	var best *models.UsageReading
	var bestGap time.Duration
	for i := range events {
		if !SameDay(events[i].Date, at, loc) {
			continue
		}
		gap := events[i].Date.Sub(at)
		if gap < 0 {
			gap = -gap
		}
		if best == nil || gap < bestGap {
			e := events[i]
			best, bestGap = &e, gap
		}
	}
	return best
}

func eventUnix(e *models.UsageReading) int64 {
	if e == nil {
		return 0
	}
	return e.Date.UnixMilli()
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}
