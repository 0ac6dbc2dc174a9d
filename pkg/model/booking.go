package model

import "time"

// Booking is a durable reservation record ("turno"). One document exists per
// (court, date, time) natural key; whether the slot is actually taken is
// determined by the nullable reserving-party fields, not by document
// existence. Cancelling a booking nulls those fields instead of deleting the
// document, which keeps the natural-key uniqueness guard in place for
// rebooking.
type Booking struct {
	ID          string     `json:"_id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Sport       string     `json:"deporte" bson:"deporte" validate:"required,min=2,max=40"`
	Date        string     `json:"fecha" bson:"fecha" validate:"required,isodate"`
	Time        string     `json:"hora" bson:"hora" validate:"required,hhmm"`
	ClubEmail   string     `json:"club" bson:"club" validate:"required,max=100"`
	CourtID     string     `json:"canchaId" bson:"canchaId" validate:"required"`
	Price       float64    `json:"precio" bson:"precio" validate:"required,min=0"`
	HolderName  *string    `json:"usuarioReservado" bson:"usuarioReservado"`
	HolderEmail *string    `json:"emailReservado" bson:"emailReservado"`
	HolderPhone *string    `json:"telefonoReservado,omitempty" bson:"telefonoReservado,omitempty"`
	UserID      *string    `json:"usuarioId,omitempty" bson:"usuarioId,omitempty" validate:"omitempty,mongodb"`
	Paid        bool       `json:"pagado" bson:"pagado"`
	PaymentID   *string    `json:"pagoId" bson:"pagoId"`
	PaymentKind *string    `json:"pagoMetodo" bson:"pagoMetodo"`
	PaidAt      *time.Time `json:"fechaPago" bson:"fechaPago"`
}

// Occupied reports whether the slot behind this booking is currently taken.
func (b *Booking) Occupied() bool {
	return b.HolderName != nil || b.HolderEmail != nil
}

type BookingUpdate struct {
	Sport       string   `json:"deporte,omitempty" validate:"omitempty,min=2,max=40"`
	Date        string   `json:"fecha,omitempty" validate:"omitempty,isodate"`
	Time        string   `json:"hora,omitempty" validate:"omitempty,hhmm"`
	Price       *float64 `json:"precio,omitempty" validate:"omitempty,min=0"`
	HolderName  *string  `json:"usuarioReservado,omitempty"`
	HolderEmail *string  `json:"emailReservado,omitempty" validate:"omitempty,email"`
	Paid        *bool    `json:"pagado,omitempty"`
}

// PaymentMethod values accepted on direct reservation.
const (
	PaymentMethodOnline = "online"
	PaymentMethodCash   = "efectivo"
)

// ReserveRequest is the payload for a direct reservation. The price is never
// taken from the client; it is recomputed from the court configuration.
type ReserveRequest struct {
	CourtID       string  `json:"canchaId" validate:"required,mongodb"`
	Date          string  `json:"fecha" validate:"required,isodate"`
	Time          string  `json:"hora" validate:"required,hhmm"`
	HolderName    string  `json:"usuarioReservado" validate:"required,min=2,max=100"`
	HolderEmail   string  `json:"emailReservado" validate:"required,email"`
	HolderPhone   string  `json:"telefonoReservado,omitempty"`
	UserID        *string `json:"usuarioId,omitempty" validate:"omitempty,mongodb"`
	PaymentMethod string  `json:"metodoPago,omitempty" validate:"omitempty,oneof=online efectivo"`
}

// ReserveResult carries the persisted booking plus, for online payment, the
// checkout link the client must follow.
type ReserveResult struct {
	Booking     *Booking `json:"turno"`
	CheckoutURL string   `json:"checkoutUrl,omitempty"`
}
