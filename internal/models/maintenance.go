package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Unit is the usage unit a maintenance plan is tracked in.
type Unit string

const (
	UnitHours      Unit = "horas"
	UnitKilometers Unit = "km"
)

// ScheduledMaintenance represents a preventive maintenance plan for one asset.
// LastUpdated and LastServiceDate are kept as ISO strings because imported
// records may carry dates that do not parse.
type ScheduledMaintenance struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Ficha            string             `json:"ficha" bson:"ficha"`
	EquipmentName    string             `json:"nombreEquipo" bson:"nombre_equipo"`
	MaintenanceType  string             `json:"tipoMantenimiento" bson:"tipo_mantenimiento"` // free text, e.g. "PM2 500 horas"
	Frequency        float64            `json:"frecuencia" bson:"frecuencia"`
	CurrentUsage     float64            `json:"horasKmActuales" bson:"horas_km_actuales"`
	LastUpdated      string             `json:"fechaUltimaActualizacion" bson:"fecha_ultima_actualizacion"`
	LastServiceDate  *string            `json:"fechaUltimoMantenimiento" bson:"fecha_ultimo_mantenimiento,omitempty"`
	LastServiceUsage float64            `json:"horasKmUltimoMantenimiento" bson:"horas_km_ultimo_mantenimiento"`
	NextDue          float64            `json:"proximoMantenimiento" bson:"proximo_mantenimiento"`
	Remaining        float64            `json:"horasKmRestante" bson:"horas_km_restante"`
	Active           bool               `json:"activo" bson:"activo"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updated_at"`
}

// FilterUsage is a part consumed during a completed maintenance.
type FilterUsage struct {
	InventoryID *string `json:"idInventario,omitempty" bson:"id_inventario,omitempty"`
	Name        string  `json:"nombre" bson:"nombre" validate:"required"`
	Quantity    int     `json:"cantidad" bson:"cantidad" validate:"gte=1"`
}

// CompletedMaintenance records a maintenance that was carried out.
type CompletedMaintenance struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MaintenanceID   primitive.ObjectID `json:"mantenimientoId" bson:"mantenimiento_id"`
	Ficha           string             `json:"ficha" bson:"ficha"`
	EquipmentName   string             `json:"nombreEquipo" bson:"nombre_equipo"`
	Date            time.Time          `json:"fechaMantenimiento" bson:"fecha_mantenimiento"`
	UsageAtService  float64            `json:"horasKmAlMomento" bson:"horas_km_al_momento"`
	PreviousUsage   float64            `json:"horasPrevias" bson:"horas_previas"`
	Increment       float64            `json:"incrementoDesdeUltimo" bson:"incremento_desde_ultimo"`
	Notes           string             `json:"observaciones" bson:"observaciones"`
	FiltersUsed     []FilterUsage      `json:"filtrosUtilizados" bson:"filtros_utilizados"`
	ResponsibleUser string             `json:"usuarioResponsable" bson:"usuario_responsable"`
	Unit            Unit               `json:"unidad" bson:"unidad"`
	NextDue         float64            `json:"proximoMantenimientoCalculado" bson:"proximo_mantenimiento"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
}
