package maintenance

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// DueSoonThreshold is the remaining usage at or below which a record is close to due.
const DueSoonThreshold = 50

var (
	ErrInvalidReading      = errors.New("reading must be a finite, non-negative number")
	ErrReadingBelowCurrent = errors.New("reading is lower than the current usage")
)

// Variant is the badge style used to render remaining usage.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSecondary   Variant = "secondary"
	VariantDestructive Variant = "destructive"
)

// RemainingVariant picks the badge style for a remaining value. nil means unknown.
func RemainingVariant(remaining *float64) Variant {
	switch {
	case remaining == nil:
		return VariantSecondary
	case *remaining <= 0:
		return VariantDestructive
	case *remaining <= DueSoonThreshold:
		return VariantSecondary
	default:
		return VariantDefault
	}
}

// FormatRemainingLabel renders a remaining value for people, e.g. "120 horas restantes".
func FormatRemainingLabel(remaining *float64, unit models.Unit) string {
	if unit == "" {
		unit = models.UnitHours
	}
	if remaining == nil {
		return "Sin dato"
	}
	if *remaining <= 0 {
		magnitude := math.Abs(roundHalfUp(*remaining))
		if magnitude > 0 {
			return fmt.Sprintf("Vencido (%s %s)", formatAmount(magnitude), unit)
		}
		return "Vencido"
	}
	return fmt.Sprintf("%s %s restantes", formatAmount(roundHalfUp(*remaining)), unit)
}

// UnitFor infers the usage unit from a free-text maintenance type.
func UnitFor(maintenanceType string) models.Unit {
	if strings.Contains(strings.ToLower(maintenanceType), "km") {
		return models.UnitKilometers
	}
	return models.UnitHours
}

// Reschedule recomputes the next due usage and the remaining usage after a
// plan is created or edited.
func Reschedule(m *models.ScheduledMaintenance) {
	m.NextDue = m.LastServiceUsage + m.Frequency
	m.Remaining = m.NextDue - m.CurrentUsage
}

// ValidateReading checks a new usage value against the record's current usage.
func ValidateReading(value, current float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return ErrInvalidReading
	}
	if value < current {
		return ErrReadingBelowCurrent
	}
	return nil
}

// ReadingOutcome is what a reading changed on a scheduled record.
type ReadingOutcome struct {
	PreviousUsage float64
	Increment     float64
	Remaining     float64
}

// ApplyReading moves the record's usage to value and recomputes what is left
// before the next service. Remaining never goes below zero.
func ApplyReading(m *models.ScheduledMaintenance, value float64, at time.Time) ReadingOutcome {
	previous := m.CurrentUsage
	remaining := math.Max(m.NextDue-value, 0)
	m.CurrentUsage = value
	m.Remaining = remaining
	m.LastUpdated = at.Format(TimestampLayout)
	return ReadingOutcome{
		PreviousUsage: previous,
		Increment:     value - previous,
		Remaining:     remaining,
	}
}

// CompletionOutcome is what registering a completed service changed on a record.
type CompletionOutcome struct {
	PreviousServiceUsage float64
	Increment            float64
	NextDue              float64
	Remaining            float64
}

// ApplyCompletion resets the cycle of a record serviced at value.
func ApplyCompletion(m *models.ScheduledMaintenance, value float64, at time.Time) CompletionOutcome {
	previous := m.LastServiceUsage
	next := value + m.Frequency
	remaining := math.Max(next-value, 0)
	date := at.Format(TimestampLayout)

	m.LastServiceDate = &date
	m.LastServiceUsage = value
	m.NextDue = next
	m.Remaining = remaining
	m.CurrentUsage = value
	m.LastUpdated = date
	return CompletionOutcome{
		PreviousServiceUsage: previous,
		Increment:            value - previous,
		NextDue:              next,
		Remaining:            remaining,
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
