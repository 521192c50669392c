// Package catalog serves the static Caterpillar maintenance catalog: PM
// intervals, per-model tasks, parts kits and special procedures.
package catalog

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed caterpillar.yaml
var caterpillarYAML []byte

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// Interval is a preventive-maintenance tier.
type Interval struct {
	ID          int    `yaml:"id" json:"id"`
	Code        string `yaml:"codigo" json:"codigo"`
	Name        string `yaml:"nombre" json:"nombre"`
	Hours       int    `yaml:"horas_intervalo" json:"horas_intervalo"`
	Description string `yaml:"descripcion" json:"descripcion"`
}

// Model describes a Caterpillar model and the serial range it applies to.
type Model struct {
	ID                int     `json:"id"`
	Name              string  `json:"modelo"`
	Category          string  `json:"categoria"`
	SerialFrom        *string `json:"serie_desde"`
	SerialTo          *string `json:"serie_hasta"`
	Engine            string  `json:"motor"`
	EngineOilCapacity float64 `json:"capacidad_aceite_motor"`
	HydraulicCapacity float64 `json:"capacidad_hidraulico"`
	CoolantCapacity   float64 `json:"capacidad_refrigerante"`
	Notes             *string `json:"notas"`
}

// Part is a catalog part number.
type Part struct {
	ID          int    `json:"id"`
	PartNumber  string `json:"numero_parte"`
	Description string `json:"descripcion"`
	Type        string `json:"tipo"`
}

// ModelIntervalPart links a part to the interval of a model that consumes it.
type ModelIntervalPart struct {
	ID         int      `json:"id"`
	ModelID    int      `json:"modelo_id"`
	IntervalID int      `json:"intervalo_id"`
	PartID     int      `json:"pieza_id"`
	Quantity   int      `json:"cantidad"`
	Notes      *string  `json:"notas"`
	Part       Part     `json:"pieza"`
	Interval   Interval `json:"intervalo"`
}

// Attachment is a document linked to a special procedure.
type Attachment struct {
	Label string `yaml:"label" json:"label"`
	URL   string `yaml:"url" json:"url"`
}

// SpecialMaintenance is a model-specific procedure tied to an interval.
type SpecialMaintenance struct {
	ID             string       `yaml:"id" json:"id"`
	IntervalCode   string       `yaml:"intervalo_codigo" json:"intervaloCodigo"`
	Description    string       `yaml:"descripcion" json:"descripcion"`
	Reference      string       `yaml:"referencia" json:"referencia,omitempty"`
	Attachments    []Attachment `yaml:"adjuntos" json:"adjuntos,omitempty"`
	SuggestedOwner string       `yaml:"responsable_sugerido" json:"responsableSugerido,omitempty"`
}

// EquipmentData is everything the catalog knows for one model.
// Values returned by the catalog are shared and must be treated as read-only.
type EquipmentData struct {
	Model              *Model                         `json:"modelo"`
	Intervals          []Interval                     `json:"intervalos"`
	PartsByInterval    map[string][]ModelIntervalPart `json:"piezasPorIntervalo"`
	TasksByInterval    map[string][]string            `json:"tareasPorIntervalo"`
	SpecialMaintenance []SpecialMaintenance           `json:"mantenimientosEspeciales"`
}

// IntervalByCode finds an interval by its PM code.
func (d *EquipmentData) IntervalByCode(code string) (Interval, bool) {
	for _, i := range d.Intervals {
		if i.Code == code {
			return i, true
		}
	}
	return Interval{}, false
}

// ModelAliases lists the names a model is recognised by.
type ModelAliases struct {
	Model   string   `json:"modelo"`
	Aliases []string `json:"aliases"`
}

type capacities struct {
	EngineOil float64 `yaml:"aceite_motor"`
	Hydraulic float64 `yaml:"hidraulico"`
	Coolant   float64 `yaml:"refrigerante"`
}

type serialRange struct {
	From  string `yaml:"desde"`
	To    string `yaml:"hasta"`
	Notes string `yaml:"notas"`
}

type partConfig struct {
	Interval    string `yaml:"intervalo"`
	PartNumber  string `yaml:"numero_parte"`
	Description string `yaml:"descripcion"`
	Type        string `yaml:"tipo"`
	Quantity    int    `yaml:"cantidad"`
	Notes       string `yaml:"notas"`
}

type modelConfig struct {
	ID         int                  `yaml:"id"`
	Name       string               `yaml:"modelo"`
	Aliases    []string             `yaml:"aliases"`
	Category   string               `yaml:"categoria"`
	Engine     string               `yaml:"motor"`
	Capacities capacities           `yaml:"capacidades"`
	Serial     *serialRange         `yaml:"serie"`
	Tasks      map[string][]string  `yaml:"tareas"`
	Parts      []partConfig         `yaml:"piezas"`
	Special    []SpecialMaintenance `yaml:"mantenimientos_especiales"`
}

type document struct {
	Intervals []Interval    `yaml:"intervalos"`
	Models    []modelConfig `yaml:"modelos"`
}

// Catalog resolves model names to catalog data. Lookups are memoized.
type Catalog struct {
	intervals []Interval
	models    []modelConfig
	data      map[int]*EquipmentData
	cache     *cache.Cache
}

// New loads the embedded Caterpillar catalog. A zero ttl keeps memoized lookups forever.
func New(ttl time.Duration) (*Catalog, error) {
	return Parse(caterpillarYAML, ttl)
}

// Parse builds a catalog from a YAML document.
func Parse(raw []byte, ttl time.Duration) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Intervals) == 0 {
		return nil, fmt.Errorf("parse catalog: no intervals defined")
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	c := &Catalog{
		intervals: doc.Intervals,
		models:    doc.Models,
		data:      make(map[int]*EquipmentData, len(doc.Models)),
		cache:     cache.New(ttl, 10*time.Minute),
	}

	partID, relationID := 1, 1
	for _, cfg := range doc.Models {
		data, err := c.build(cfg, &partID, &relationID)
		if err != nil {
			return nil, err
		}
		c.data[cfg.ID] = data
	}
	log.WithFields(log.Fields{
		"models":    len(doc.Models),
		"intervals": len(doc.Intervals),
	}).Debug("Caterpillar catalog loaded")
	return c, nil
}

func (c *Catalog) build(cfg modelConfig, partID, relationID *int) (*EquipmentData, error) {
	intervalsByCode := make(map[string]Interval, len(c.intervals))
	for _, i := range c.intervals {
		intervalsByCode[i.Code] = i
	}

	model := &Model{
		ID:                cfg.ID,
		Name:              cfg.Name,
		Category:          cfg.Category,
		Engine:            cfg.Engine,
		EngineOilCapacity: cfg.Capacities.EngineOil,
		HydraulicCapacity: cfg.Capacities.Hydraulic,
		CoolantCapacity:   cfg.Capacities.Coolant,
	}
	if cfg.Serial != nil {
		model.SerialFrom = optional(cfg.Serial.From)
		model.SerialTo = optional(cfg.Serial.To)
		model.Notes = optional(cfg.Serial.Notes)
	}

	parts := make(map[string][]ModelIntervalPart)
	for _, p := range cfg.Parts {
		interval, ok := intervalsByCode[p.Interval]
		if !ok {
			return nil, fmt.Errorf("parse catalog: model %s references unknown interval %q", cfg.Name, p.Interval)
		}
		quantity := p.Quantity
		if quantity == 0 {
			quantity = 1
		}
		part := Part{ID: *partID, PartNumber: p.PartNumber, Description: p.Description, Type: p.Type}
		parts[interval.Code] = append(parts[interval.Code], ModelIntervalPart{
			ID:         *relationID,
			ModelID:    cfg.ID,
			IntervalID: interval.ID,
			PartID:     part.ID,
			Quantity:   quantity,
			Notes:      optional(p.Notes),
			Part:       part,
			Interval:   interval,
		})
		*partID++
		*relationID++
	}

	tasks := cfg.Tasks
	if tasks == nil {
		tasks = map[string][]string{}
	}
	special := cfg.Special
	if special == nil {
		special = []SpecialMaintenance{}
	}
	return &EquipmentData{
		Model:              model,
		Intervals:          append([]Interval(nil), c.intervals...),
		PartsByInterval:    parts,
		TasksByInterval:    tasks,
		SpecialMaintenance: special,
	}, nil
}

// Lookup returns the catalog entry for a model name or alias, or nil.
func (c *Catalog) Lookup(model string) *EquipmentData {
	return c.LookupWithSerial(model, "")
}

// LookupWithSerial resolves a model and, when several models share the name,
// picks the one whose serial range contains serial. It falls back to the first
// match.
func (c *Catalog) LookupWithSerial(model, serial string) *EquipmentData {
	key := Normalize(model) + "|" + strings.ToUpper(strings.TrimSpace(serial))
	if cached, ok := c.cache.Get(key); ok {
		data, _ := cached.(*EquipmentData)
		return data
	}

	candidates := c.match(model)
	var selected *modelConfig
	if serial != "" && len(candidates) > 1 {
		for _, cfg := range candidates {
			if inSerialRange(cfg, serial) {
				selected = cfg
				break
			}
		}
	}
	if selected == nil && len(candidates) > 0 {
		selected = candidates[0]
	}

	var data *EquipmentData
	if selected != nil {
		data = c.data[selected.ID]
	}
	c.cache.SetDefault(key, data)
	return data
}

// Intervals returns the base PM intervals.
func (c *Catalog) Intervals() []Interval {
	return append([]Interval(nil), c.intervals...)
}

// Aliases lists every model with the aliases it answers to.
func (c *Catalog) Aliases() []ModelAliases {
	out := make([]ModelAliases, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, ModelAliases{Model: m.Name, Aliases: append([]string(nil), m.Aliases...)})
	}
	return out
}

func (c *Catalog) match(model string) []*modelConfig {
	normalized := Normalize(model)
	if normalized == "" {
		return nil
	}
	var out []*modelConfig
	for i := range c.models {
		cfg := &c.models[i]
		if Normalize(cfg.Name) == normalized {
			out = append(out, cfg)
			continue
		}
		for _, alias := range cfg.Aliases {
			a := Normalize(alias)
			if a != "" && (a == normalized || strings.Contains(normalized, a)) {
				out = append(out, cfg)
				break
			}
		}
	}
	return out
}

func inSerialRange(cfg *modelConfig, serial string) bool {
	if cfg.Serial == nil || cfg.Serial.From == "" {
		return false
	}
	serial = strings.ToUpper(strings.TrimSpace(serial))
	if serial < cfg.Serial.From {
		return false
	}
	return cfg.Serial.To == "" || serial <= cfg.Serial.To
}

// Normalize folds accents and case and drops everything but letters and digits,
// so "Excavadora 320 GC" and "excavadora-320gc" compare equal.
func Normalize(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(folded), "")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
