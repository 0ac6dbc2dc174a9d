package model

import "time"

// PaymentEvent records a processed webhook delivery. The unique PaymentID
// index gives the reconciliation engine its at-most-once guarantee: the
// record is inserted before any side effect, and a duplicate-key error on
// insert means the event was already handled.
type PaymentEvent struct {
	ID          string    `json:"_id,omitempty" bson:"_id,omitempty"`
	PaymentID   string    `json:"paymentId" bson:"paymentId" validate:"required"`
	ProcessedAt time.Time `json:"processedAt" bson:"processedAt"`
}
