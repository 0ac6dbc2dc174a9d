package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is an event envelope. The key is the booking or payment natural
// key so all events for one entity land on the same partition.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Header keys carried on every event
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
)

// Event types published by the platform
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingPaid      = "booking.paid"
	EventClubFeatured     = "club.featured"
	EventPaymentRejected  = "payment.rejected"
)

// NewEvent builds a message with the standard envelope headers. The payload
// is JSON-encoded; encoding failures surface at publish time as an empty
// value.
func NewEvent(eventType, key string, payload any) Message {
	value, _ := json.Marshal(payload)

	now := time.Now()
	return Message{
		Key:   key,
		Value: value,
		Headers: map[string]string{
			HeaderEventID:   uuid.New().String(),
			HeaderEventType: eventType,
			HeaderSource:    "turnolibre",
			HeaderTimestamp: now.Format(time.RFC3339),
		},
		Timestamp: now,
	}
}

// DecodeValue decodes the message value into the provided struct
func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

// GetEventType returns the event type header
func (m *Message) GetEventType() string {
	return m.Headers[HeaderEventType]
}
