package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UsageReading is an hour-meter or odometer reading taken for an asset.
type UsageReading struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MaintenanceID   primitive.ObjectID `bson:"mantenimiento_id" json:"mantenimientoId"`
	Ficha           string             `bson:"ficha" json:"ficha"`
	EquipmentName   *string            `bson:"nombre_equipo,omitempty" json:"nombreEquipo"`
	Date            time.Time          `bson:"fecha" json:"fecha"`
	Usage           float64            `bson:"horas_km" json:"horasKm"`
	Increment       float64            `bson:"incremento" json:"incremento"`
	PreviousUsage   float64            `bson:"horas_previas" json:"horasPrevias"`
	Remaining       float64            `bson:"restante" json:"restante"`
	ResponsibleUser string             `bson:"usuario_responsable" json:"usuarioResponsable"`
	Notes           string             `bson:"observaciones,omitempty" json:"observaciones,omitempty"`
	Unit            Unit               `bson:"unidad" json:"unidad"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
}
