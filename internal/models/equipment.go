package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company names an equipment owner. CompanySold marks an asset that left the fleet.
type Company string

const (
	CompanyGroup Company = "ALITO GROUP SRL"
	CompanyEIRL  Company = "ALITO EIRL"
	CompanySold  Company = "VENDIDO"
)

// Equipment represents a fleet asset identified by its ficha.
type Equipment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Ficha           string             `bson:"ficha" json:"ficha" validate:"required,max=32"`
	Name            string             `bson:"nombre" json:"nombre" validate:"required"`
	Brand           string             `bson:"marca" json:"marca"`
	Model           string             `bson:"modelo" json:"modelo"`
	SerialNumber    string             `bson:"numero_serie" json:"numeroSerie"`
	Plate           string             `bson:"placa" json:"placa"`
	Category        string             `bson:"categoria" json:"categoria"`
	Company         Company            `bson:"empresa" json:"empresa"`
	Active          bool               `bson:"activo" json:"activo"`
	InactiveReason  *string            `bson:"motivo_inactividad,omitempty" json:"motivoInactividad"`
	MinimumTraining *string            `bson:"capacitacion_minima,omitempty" json:"capacitacionMinima,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsCaterpillar reports whether the asset brand refers to Caterpillar.
func (e *Equipment) IsCaterpillar() bool {
	return strings.Contains(strings.ToLower(e.Brand), "cat")
}

// IsAvailable reports whether the asset is active and still owned.
func (e *Equipment) IsAvailable() bool {
	return e.Active && e.Company != CompanySold
}
