package model

import "time"

// Club owns courts and receives reservation payments through its own
// MercadoPago credential. The credential is stored sealed (AES-GCM) and is
// never serialized to JSON. Featured is a time-boxed promotional flag set by
// an approved promotion payment and cleared by the sweeper once
// FeaturedUntil passes.
type Club struct {
	ID            string     `json:"_id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name          string     `json:"nombre" bson:"nombre" validate:"required,min=2,max=100"`
	Email         string     `json:"email" bson:"email" validate:"required,email"`
	Phone         string     `json:"telefono" bson:"telefono" validate:"required"`
	Latitude      *float64   `json:"latitud,omitempty" bson:"latitud,omitempty"`
	Longitude     *float64   `json:"longitud,omitempty" bson:"longitud,omitempty"`
	Province      string     `json:"provincia" bson:"provincia" validate:"required"`
	Locality      string     `json:"localidad" bson:"localidad" validate:"required"`
	SealedMPToken string     `json:"-" bson:"mercadoPagoAccessToken,omitempty"`
	Featured      bool       `json:"destacado" bson:"destacado"`
	FeaturedUntil *time.Time `json:"destacadoHasta" bson:"destacadoHasta"`
	LastPaymentID *string    `json:"idUltimaTransaccion,omitempty" bson:"idUltimaTransaccion,omitempty"`
	Active        bool       `json:"activo" bson:"activo"`
}

type ClubUpdate struct {
	Name      string   `json:"nombre,omitempty" validate:"omitempty,min=2,max=100"`
	Phone     string   `json:"telefono,omitempty"`
	Province  string   `json:"provincia,omitempty"`
	Locality  string   `json:"localidad,omitempty"`
	Latitude  *float64 `json:"latitud,omitempty"`
	Longitude *float64 `json:"longitud,omitempty"`
}
