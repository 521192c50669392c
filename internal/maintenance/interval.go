// Package maintenance holds the scheduling rules shared by the API and reports:
// interval classification, remaining-usage math, date windows and summaries.
package maintenance

import (
	"regexp"
	"strings"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

var intervalCodePattern = regexp.MustCompile(`(?i)(PM\d)`)

// intervalLadder maps a frequency ceiling to its preventive-maintenance tier.
var intervalLadder = []struct {
	limit float64
	code  string
}{
	{250, "PM1"},
	{500, "PM2"},
	{1000, "PM3"},
	{2000, "PM4"},
}

// ResolveIntervalCode classifies a scheduled maintenance into PM1..PM4.
// A code written in the maintenance type wins over the frequency ladder.
// It returns "" when nothing matches.
func ResolveIntervalCode(m *models.ScheduledMaintenance) string {
	if m == nil {
		return ""
	}
	if match := intervalCodePattern.FindStringSubmatch(m.MaintenanceType); match != nil {
		return strings.ToUpper(match[1])
	}
	if m.Frequency == 0 {
		return ""
	}
	for _, step := range intervalLadder {
		if m.Frequency <= step.limit {
			return step.code
		}
	}
	return ""
}
