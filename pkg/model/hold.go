package model

import "time"

// Hold lifecycle states. PENDING is the only non-terminal state.
const (
	HoldPending   = "PENDING"
	HoldConfirmed = "CONFIRMED"
	HoldCancelled = "CANCELLED"
	HoldExpired   = "EXPIRED"
)

// Hold is a provisional, OTP-protected reservation ("reserva") that becomes
// a durable Booking once confirmed by email code before its expiry. The
// one-time code is cleared on confirmation.
type Hold struct {
	ID           string    `json:"_id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CourtID      string    `json:"canchaId" bson:"canchaId" validate:"required"`
	UserID       *string   `json:"usuarioId,omitempty" bson:"usuarioId,omitempty" validate:"omitempty,mongodb"`
	Date         string    `json:"fecha" bson:"fecha" validate:"required,isodate"`
	Time         string    `json:"hora" bson:"hora" validate:"required,hhmm"`
	Status       string    `json:"estado" bson:"estado" validate:"required,oneof=PENDING CONFIRMED CANCELLED EXPIRED"`
	Code         *string   `json:"-" bson:"codigoOTP"`
	ExpiresAt    time.Time `json:"expiresAt" bson:"expiresAt" validate:"required"`
	ContactEmail string    `json:"emailContacto" bson:"emailContacto" validate:"required,email"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Terminal reports whether the hold can no longer transition.
func (h *Hold) Terminal() bool {
	return h.Status != HoldPending
}

// HoldRequest is the payload for creating an OTP hold.
type HoldRequest struct {
	CourtID      string  `json:"canchaId" validate:"required,mongodb"`
	Date         string  `json:"fecha" validate:"required,isodate"`
	Time         string  `json:"hora" validate:"required,hhmm"`
	ContactEmail string  `json:"emailContacto" validate:"required,email"`
	UserID       *string `json:"usuarioId,omitempty" validate:"omitempty,mongodb"`
}

// ConfirmRequest carries the one-time code typed by the user.
type ConfirmRequest struct {
	Code string `json:"codigoOTP" validate:"required,len=6,numeric"`
}

// ResendRequest regenerates the code for a hold addressed by id or, when the
// id is unknown to the client, by the contact email (most recent pending
// hold wins).
type ResendRequest struct {
	ID    string `json:"id,omitempty" validate:"omitempty,mongodb"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
