package maintenance

import (
	"sort"

	"github.com/ukydev/fleet-maintenance/internal/catalog"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

const (
	NoIntervalCode         = "Sin MP"
	noIntervalDescription  = "Sin descripción"
	defaultTrainingMessage = "Asignar técnico certificado"
)

// CatalogSource resolves Caterpillar catalog data for a model and serial.
type CatalogSource interface {
	LookupWithSerial(model, serial string) *catalog.EquipmentData
}

// RouteItem is one stop of the Caterpillar service route.
type RouteItem struct {
	Ficha               string   `json:"ficha"`
	Name                string   `json:"nombre"`
	Category            string   `json:"categoria"`
	IntervalCode        string   `json:"intervalo"`
	IntervalDescription string   `json:"intervaloDescripcion"`
	Remaining           float64  `json:"restante"`
	NextDue             float64  `json:"proximo"`
	Tasks               []string `json:"tareas"`
	Kit                 []string `json:"kit"`
	Training            string   `json:"capacitacion"`
}

// BuildRoutePlan lists the scheduled maintenance of Caterpillar equipment with
// the tasks and parts kit of its interval, most urgent first. A non-empty
// interval keeps only the items of that interval.
func BuildRoutePlan(
	equipment []models.Equipment,
	scheduled []models.ScheduledMaintenance,
	source CatalogSource,
	interval string,
) []RouteItem {
	byFicha := make(map[string]models.Equipment, len(equipment))
	for _, e := range equipment {
		if _, seen := byFicha[e.Ficha]; !seen {
			byFicha[e.Ficha] = e
		}
	}

	items := []RouteItem{}
	for i := range scheduled {
		m := &scheduled[i]
		e, ok := byFicha[m.Ficha]
		if !ok || !e.IsCaterpillar() {
			continue
		}
		code := ResolveIntervalCode(m)
		if code == "" {
			code = NoIntervalCode
		}
		if interval != "" && code != interval {
			continue
		}

		var data *catalog.EquipmentData
		if source != nil {
			data = source.LookupWithSerial(e.Model, e.SerialNumber)
		}
		items = append(items, RouteItem{
			Ficha:               e.Ficha,
			Name:                e.Name,
			Category:            e.Category,
			IntervalCode:        code,
			IntervalDescription: intervalDescription(data, code),
			Remaining:           m.Remaining,
			NextDue:             m.NextDue,
			Tasks:               tasksFor(data, code),
			Kit:                 kitFor(data, code),
			Training:            trainingFor(e, data, code),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Remaining < items[j].Remaining
	})
	return items
}

func intervalDescription(data *catalog.EquipmentData, code string) string {
	if data == nil {
		return noIntervalDescription
	}
	if i, ok := data.IntervalByCode(code); ok {
		return i.Description
	}
	return noIntervalDescription
}

func tasksFor(data *catalog.EquipmentData, code string) []string {
	if data == nil || len(data.TasksByInterval[code]) == 0 {
		return []string{}
	}
	return append([]string(nil), data.TasksByInterval[code]...)
}

func kitFor(data *catalog.EquipmentData, code string) []string {
	kit := []string{}
	if data == nil {
		return kit
	}
	for _, p := range data.PartsByInterval[code] {
		kit = append(kit, p.Part.PartNumber+" · "+p.Part.Description)
	}
	return kit
}

func trainingFor(e models.Equipment, data *catalog.EquipmentData, code string) string {
	if e.MinimumTraining != nil && *e.MinimumTraining != "" {
		return *e.MinimumTraining
	}
	if data != nil {
		for _, s := range data.SpecialMaintenance {
			if s.IntervalCode == code && s.SuggestedOwner != "" {
				return s.SuggestedOwner
			}
		}
	}
	return defaultTrainingMessage
}
