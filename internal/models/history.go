package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryModule groups history events by the area of the app that produced them.
type HistoryModule string

const (
	HistoryModuleEquipment   HistoryModule = "equipos"
	HistoryModuleMaintenance HistoryModule = "mantenimientos"
	HistoryModuleSystem      HistoryModule = "sistema"
)

// History event types.
const (
	EventEquipmentCreated     = "equipo_creado"
	EventEquipmentUpdated     = "equipo_actualizado"
	EventEquipmentDeleted     = "equipo_eliminado"
	EventMaintenanceCreated   = "mantenimiento_creado"
	EventMaintenanceUpdated   = "mantenimiento_actualizado"
	EventMaintenanceDeleted   = "mantenimiento_eliminado"
	EventMaintenanceCompleted = "mantenimiento_realizado"
	EventReadingUpdated       = "lectura_actualizada"
)

// Severity is the importance level of a history event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// HistoryEvent is an audit record written for every mutation.
type HistoryEvent struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	EventType       string                 `bson:"tipo_evento" json:"tipoEvento"`
	Module          HistoryModule          `bson:"modulo" json:"modulo"`
	Description     string                 `bson:"descripcion" json:"descripcion"`
	Ficha           *string                `bson:"ficha_equipo,omitempty" json:"fichaEquipo"`
	EquipmentName   *string                `bson:"nombre_equipo,omitempty" json:"nombreEquipo"`
	ResponsibleUser string                 `bson:"usuario_responsable" json:"usuarioResponsable"`
	Severity        Severity               `bson:"nivel_importancia" json:"nivelImportancia"`
	Before          interface{}            `bson:"datos_antes,omitempty" json:"datosAntes"`
	After           interface{}            `bson:"datos_despues,omitempty" json:"datosDespues"`
	Metadata        map[string]interface{} `bson:"metadata,omitempty" json:"metadata"`
	CreatedAt       time.Time              `bson:"created_at" json:"createdAt"`
}
