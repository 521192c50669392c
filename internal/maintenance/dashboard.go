package maintenance

import (
	"sort"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

const (
	upcomingLimit = 8
	recentLimit   = 5
)

// UpcomingItem is a scheduled record decorated for display.
type UpcomingItem struct {
	Maintenance  models.ScheduledMaintenance `json:"mantenimiento"`
	IntervalCode string                      `json:"intervalo"`
	Unit         models.Unit                 `json:"unidad"`
	Variant      Variant                     `json:"variante"`
	Label        string                      `json:"etiqueta"`
}

// Dashboard is the executive summary of the fleet.
type Dashboard struct {
	ActiveEquipment   int                           `json:"equiposActivos"`
	InactiveEquipment int                           `json:"equiposInactivos"`
	TotalScheduled    int                           `json:"totalProgramados"`
	Overdue           int                           `json:"vencidos"`
	DueSoon           int                           `json:"proximos"`
	OnTrack           int                           `json:"enRegla"`
	Pending           int                           `json:"mantenimientosPendientes"`
	Next              *UpcomingItem                 `json:"proximoMantenimiento"`
	CriticalAlert     bool                          `json:"alertaCritica"`
	Upcoming          []UpcomingItem                `json:"proximosMantenimientos"`
	RecentReadings    []models.UsageReading         `json:"ultimasActualizaciones"`
	RecentCompletions []models.CompletedMaintenance `json:"mantenimientosRecientes"`
}

// Decorate attaches interval, unit and badge data to a scheduled record.
func Decorate(m models.ScheduledMaintenance) UpcomingItem {
	unit := UnitFor(m.MaintenanceType)
	remaining := m.Remaining
	return UpcomingItem{
		Maintenance:  m,
		IntervalCode: ResolveIntervalCode(&m),
		Unit:         unit,
		Variant:      RemainingVariant(&remaining),
		Label:        FormatRemainingLabel(&remaining, unit),
	}
}

// BuildDashboard aggregates fleet counts and the most urgent maintenance.
func BuildDashboard(
	equipment []models.Equipment,
	scheduled []models.ScheduledMaintenance,
	readings []models.UsageReading,
	completions []models.CompletedMaintenance,
) Dashboard {
	d := Dashboard{
		TotalScheduled: len(scheduled),
		Upcoming:       []UpcomingItem{},
	}
	for _, e := range equipment {
		if e.Active {
			d.ActiveEquipment++
		}
	}
	d.InactiveEquipment = len(equipment) - d.ActiveEquipment

	for _, m := range scheduled {
		switch {
		case m.Remaining <= 0:
			d.Overdue++
		case m.Remaining <= DueSoonThreshold:
			d.DueSoon++
		default:
			d.OnTrack++
		}
		if m.Remaining <= DueSoonThreshold {
			d.Pending++
		}
	}

	sorted := append([]models.ScheduledMaintenance(nil), scheduled...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Remaining < sorted[j].Remaining
	})
	for _, m := range head(sorted, upcomingLimit) {
		d.Upcoming = append(d.Upcoming, Decorate(m))
	}
	for _, m := range sorted {
		if m.Active {
			next := Decorate(m)
			d.Next = &next
			d.CriticalAlert = m.Remaining <= CriticalPendingThreshold
			break
		}
	}

	recentReadings := append([]models.UsageReading(nil), readings...)
	sort.SliceStable(recentReadings, func(i, j int) bool {
		return recentReadings[i].Date.After(recentReadings[j].Date)
	})
	d.RecentReadings = head(recentReadings, recentLimit)

	recentCompletions := append([]models.CompletedMaintenance(nil), completions...)
	sort.SliceStable(recentCompletions, func(i, j int) bool {
		return recentCompletions[i].Date.After(recentCompletions[j].Date)
	})
	d.RecentCompletions = head(recentCompletions, recentLimit)

	return d
}
