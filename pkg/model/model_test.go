package model

import (
	"testing"
	"time"
)

func TestCourt_DurationMinutes(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		expected int
	}{
		{"unset coerces to default", 0, 60},
		{"negative coerces to default", -30, 60},
		{"explicit value kept", 90, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Court{SlotDuration: tt.duration}
			if got := c.DurationMinutes(); got != tt.expected {
				t.Errorf("DurationMinutes() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestBooking_Occupied(t *testing.T) {
	name := "Ana"
	email := "ana@example.com"

	tests := []struct {
		name     string
		booking  Booking
		expected bool
	}{
		{"vacant", Booking{}, false},
		{"name only", Booking{HolderName: &name}, true},
		{"email only", Booking{HolderEmail: &email}, true},
		{"both", Booking{HolderName: &name, HolderEmail: &email}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.booking.Occupied(); got != tt.expected {
				t.Errorf("Occupied() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHold_Terminal(t *testing.T) {
	for _, status := range []string{HoldConfirmed, HoldCancelled, HoldExpired} {
		h := &Hold{Status: status, ExpiresAt: time.Now()}
		if !h.Terminal() {
			t.Errorf("Terminal() = false for %s, want true", status)
		}
	}

	h := &Hold{Status: HoldPending}
	if h.Terminal() {
		t.Errorf("Terminal() = true for PENDING, want false")
	}
}
