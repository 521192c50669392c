package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-maintenance/internal/catalog"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

type stubCatalog struct {
	data  *catalog.EquipmentData
	calls []string
}

func (s *stubCatalog) LookupWithSerial(model, serial string) *catalog.EquipmentData {
	s.calls = append(s.calls, model+"/"+serial)
	return s.data
}

func sampleCatalogData() *catalog.EquipmentData {
	return &catalog.EquipmentData{
		Intervals: []catalog.Interval{
			{Code: "PM1", Description: "Muestras de fluidos"},
			{Code: "PM2", Description: "Cambio de aceite"},
		},
		TasksByInterval: map[string][]string{
			"PM2": {"Cambiar aceite", "Cambiar filtro"},
		},
		PartsByInterval: map[string][]catalog.ModelIntervalPart{
			"PM2": {{Part: catalog.Part{PartNumber: "322-3155", Description: "Filtro de aceite"}}},
		},
		SpecialMaintenance: []catalog.SpecialMaintenance{
			{IntervalCode: "PM2", SuggestedOwner: "Técnico senior"},
		},
	}
}

func TestBuildRoutePlan(t *testing.T) {
	training := "Operador certificado"
	equipment := []models.Equipment{
		{Ficha: "CAT-1", Name: "Excavadora", Brand: "Caterpillar", Model: "320", SerialNumber: "HEX00010"},
		{Ficha: "CAT-2", Name: "Retro", Brand: "CAT", Model: "416F", MinimumTraining: &training},
		{Ficha: "VOL-1", Name: "Camión", Brand: "Volvo"},
	}
	scheduled := []models.ScheduledMaintenance{
		{Ficha: "CAT-1", MaintenanceType: "PM2", Remaining: 40, NextDue: 1500},
		{Ficha: "CAT-2", Frequency: 5000, Remaining: 10},
		{Ficha: "VOL-1", MaintenanceType: "PM1", Remaining: 1},
		{Ficha: "GHOST", MaintenanceType: "PM1", Remaining: 0},
	}
	source := &stubCatalog{data: sampleCatalogData()}

	plan := BuildRoutePlan(equipment, scheduled, source, "")

	require.Len(t, plan, 2)
	assert.Equal(t, "CAT-2", plan[0].Ficha)
	assert.Equal(t, NoIntervalCode, plan[0].IntervalCode)
	assert.Equal(t, "Sin descripción", plan[0].IntervalDescription)
	assert.Empty(t, plan[0].Tasks)
	assert.Equal(t, training, plan[0].Training)

	assert.Equal(t, "CAT-1", plan[1].Ficha)
	assert.Equal(t, "PM2", plan[1].IntervalCode)
	assert.Equal(t, "Cambio de aceite", plan[1].IntervalDescription)
	assert.Equal(t, []string{"Cambiar aceite", "Cambiar filtro"}, plan[1].Tasks)
	assert.Equal(t, []string{"322-3155 · Filtro de aceite"}, plan[1].Kit)
	assert.Equal(t, "Técnico senior", plan[1].Training)
	assert.Equal(t, 1500.0, plan[1].NextDue)
	assert.Contains(t, source.calls, "320/HEX00010")
}

func TestBuildRoutePlan_IntervalFilter(t *testing.T) {
	equipment := []models.Equipment{
		{Ficha: "CAT-1", Brand: "Caterpillar"},
		{Ficha: "CAT-2", Brand: "Caterpillar"},
	}
	scheduled := []models.ScheduledMaintenance{
		{Ficha: "CAT-1", MaintenanceType: "PM2"},
		{Ficha: "CAT-2", MaintenanceType: "PM3"},
	}

	plan := BuildRoutePlan(equipment, scheduled, nil, "PM3")
	require.Len(t, plan, 1)
	assert.Equal(t, "CAT-2", plan[0].Ficha)
	assert.Equal(t, "Asignar técnico certificado", plan[0].Training)
	assert.Equal(t, []string{}, plan[0].Kit)
}
