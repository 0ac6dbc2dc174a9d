package availability

import (
	"testing"

	"turnolibre/pkg/model"
)

func TestResolvePrice_NightRule(t *testing.T) {
	cutover := 20
	nightPrice := 5000.0
	court := &model.Court{
		BasePrice:     3000,
		NightFromHour: &cutover,
		NightPrice:    &nightPrice,
	}

	tests := []struct {
		hour     int
		expected float64
	}{
		{19, 3000},
		{20, 5000},
		{23, 5000},
		{0, 3000},
	}

	for _, tt := range tests {
		if got := ResolvePrice(court, tt.hour); got != tt.expected {
			t.Errorf("ResolvePrice(hour=%d) = %f, want %f", tt.hour, got, tt.expected)
		}
	}
}

func TestResolvePrice_NoCutover(t *testing.T) {
	court := &model.Court{BasePrice: 3000}

	for hour := 0; hour < 24; hour++ {
		if got := ResolvePrice(court, hour); got != 3000 {
			t.Errorf("ResolvePrice(hour=%d) = %f, want base price", hour, got)
		}
	}
}

func TestResolvePrice_InvalidNightPriceIsInert(t *testing.T) {
	cutover := 20

	// cutover without a night price
	court := &model.Court{BasePrice: 3000, NightFromHour: &cutover}
	if got := ResolvePrice(court, 22); got != 3000 {
		t.Errorf("ResolvePrice = %f, want base price when night price is unset", got)
	}

	// negative night price disables the rule
	negative := -1.0
	court.NightPrice = &negative
	if got := ResolvePrice(court, 22); got != 3000 {
		t.Errorf("ResolvePrice = %f, want base price when night price is negative", got)
	}
}

func TestPriceAt(t *testing.T) {
	cutover := 20
	nightPrice := 5000.0
	court := &model.Court{
		BasePrice:     3000,
		NightFromHour: &cutover,
		NightPrice:    &nightPrice,
	}

	// minutes are irrelevant to the day/night decision
	got, err := PriceAt(court, "19:59")
	if err != nil || got != 3000 {
		t.Errorf("PriceAt(19:59) = %f, %v; want 3000", got, err)
	}

	got, err = PriceAt(court, "20:00")
	if err != nil || got != 5000 {
		t.Errorf("PriceAt(20:00) = %f, %v; want 5000", got, err)
	}

	if _, err := PriceAt(court, "not-a-time"); err == nil {
		t.Errorf("PriceAt should fail on malformed time")
	}
}
