package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

func weekRange(t *testing.T) DateRange {
	t.Helper()
	rng, ok := NormalizeDateRange("2024-01-01", "2024-01-07", time.UTC)
	require.True(t, ok)
	return *rng
}

func TestBuildUpdateSummary_Partition(t *testing.T) {
	rng := weekRange(t)
	scheduled := []models.ScheduledMaintenance{
		{Ficha: "AC-001", LastUpdated: "2024-01-03T10:00:00Z", Remaining: 120},
		{Ficha: "AC-002", LastUpdated: "2023-12-20T10:00:00Z", Remaining: 10},
		{Ficha: "AC-003", LastUpdated: "no registrada", Remaining: 40},
		{Ficha: "AC-004", LastUpdated: "", Remaining: 300},
		{Ficha: "AC-005", LastUpdated: "2024-01-07", Remaining: 80},
	}
	readings := []models.UsageReading{
		{Ficha: "AC-001", Date: time.Date(2024, 1, 3, 7, 0, 0, 0, time.UTC), Usage: 1000},
		{Ficha: "AC-001", Date: time.Date(2024, 1, 3, 9, 45, 0, 0, time.UTC), Usage: 1004},
		{Ficha: "AC-001", Date: time.Date(2024, 1, 2, 9, 59, 0, 0, time.UTC), Usage: 990},
		{Ficha: "AC-002", Date: time.Date(2023, 12, 20, 10, 0, 0, 0, time.UTC), Usage: 500},
	}

	summary := BuildUpdateSummary(rng, readings, scheduled)

	require.Len(t, summary.Updated, 2)
	assert.Equal(t, "AC-001", summary.Updated[0].Maintenance.Ficha)
	require.NotNil(t, summary.Updated[0].Event)
	assert.Equal(t, 1004.0, summary.Updated[0].Event.Usage, "closest same-day reading is paired")
	assert.Equal(t, "AC-005", summary.Updated[1].Maintenance.Ficha)
	assert.Nil(t, summary.Updated[1].Event)

	pending := make([]string, 0, len(summary.Pending))
	for _, m := range summary.Pending {
		pending = append(pending, m.Ficha)
	}
	assert.Equal(t, []string{"AC-002", "AC-003", "AC-004"}, pending)

	assert.Equal(t, 40, summary.Coverage)
	require.Len(t, summary.CriticalPending, 1)
	assert.Equal(t, "AC-002", summary.CriticalPending[0].Ficha)
	assert.Equal(t, "AC-002", summary.PriorityPending[0].Ficha)
	assert.Equal(t, "AC-001", summary.LatestReadings[0].Maintenance.Ficha)
	assert.Equal(t, rng.Desde, summary.Desde)
	assert.Equal(t, rng.Hasta, summary.Hasta)
}

func TestBuildUpdateSummary_UnparsableAlwaysPending(t *testing.T) {
	ranges := [][2]string{
		{"2024-01-01", "2024-01-07"},
		{"1970-01-01", "2100-12-31"},
	}
	for _, r := range ranges {
		rng, ok := NormalizeDateRange(r[0], r[1], time.UTC)
		require.True(t, ok)
		summary := BuildUpdateSummary(*rng, nil, []models.ScheduledMaintenance{
			{Ficha: "X-1", LastUpdated: "31/31/2024"},
		})
		assert.Empty(t, summary.Updated)
		require.Len(t, summary.Pending, 1)
	}
}

func TestBuildUpdateSummary_Empty(t *testing.T) {
	summary := BuildUpdateSummary(weekRange(t), nil, nil)
	assert.NotNil(t, summary.Updated)
	assert.NotNil(t, summary.Pending)
	assert.NotNil(t, summary.LatestReadings)
	assert.Equal(t, 0, summary.Coverage)
}
