package availability

import (
	"context"
	"testing"
	"time"

	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
)

type mockCourtSource struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.Court, error)
	findByClubFunc func(ctx context.Context, clubEmail string) ([]*model.Court, error)
}

func (m *mockCourtSource) FindByID(ctx context.Context, id string) (*model.Court, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Court", id)
}

func (m *mockCourtSource) FindByClub(ctx context.Context, clubEmail string) ([]*model.Court, error) {
	if m.findByClubFunc != nil {
		return m.findByClubFunc(ctx, clubEmail)
	}
	return []*model.Court{}, nil
}

type mockBookingSource struct {
	findByDateRangeFunc func(ctx context.Context, from, to string) ([]*model.Booking, error)
}

func (m *mockBookingSource) FindByDateRange(ctx context.Context, from, to string) ([]*model.Booking, error) {
	if m.findByDateRangeFunc != nil {
		return m.findByDateRangeFunc(ctx, from, to)
	}
	return []*model.Booking{}, nil
}

type mockClubSource struct {
	findByEmailFunc func(ctx context.Context, email string) (*model.Club, error)
}

func (m *mockClubSource) FindByEmail(ctx context.Context, email string) (*model.Club, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, apperrors.NotFound("Club")
}

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		Location: time.UTC,
	}
}

func testCourt() *model.Court {
	return &model.Court{
		ID:        "c1",
		Name:      "Cancha 1",
		Sport:     "padel",
		BasePrice: 3000,
		OpenFrom:  "09:00",
		OpenUntil: "11:00",
		Weekdays:  []string{"lunes"},
		ClubEmail: "club@example.com",
	}
}

func TestCourtWeek_MatchesOccupiedBooking(t *testing.T) {
	holder := "Ana"
	holderEmail := "ana@example.com"
	paymentID := "pay-1"

	courts := &mockCourtSource{
		findByIDFunc: func(ctx context.Context, id string) (*model.Court, error) {
			return testCourt(), nil
		},
	}
	bookings := &mockBookingSource{
		findByDateRangeFunc: func(ctx context.Context, from, to string) ([]*model.Booking, error) {
			return []*model.Booking{
				{
					ID:          "b1",
					Sport:       "padel",
					Date:        "2025-01-06",
					Time:        "09:00",
					ClubEmail:   "Club Norte", // legacy: display name instead of email
					CourtID:     "c1",
					Price:       3000,
					HolderName:  &holder,
					HolderEmail: &holderEmail,
					Paid:        true,
					PaymentID:   &paymentID,
				},
			}, nil
		},
	}
	clubs := &mockClubSource{
		findByEmailFunc: func(ctx context.Context, email string) (*model.Club, error) {
			return &model.Club{Name: "Club Norte", Email: "club@example.com"}, nil
		},
	}

	svc := NewAvailabilityService(courts, bookings, clubs, testConfig(),
		fixedClock{t: time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)})

	slots, err := svc.CourtWeek(context.Background(), "c1", "")
	if err != nil {
		t.Fatalf("CourtWeek() error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}

	taken := slots[0]
	if !taken.Occupied {
		t.Errorf("slot at 09:00 should be occupied")
	}
	if taken.BookingID == nil || *taken.BookingID != "b1" {
		t.Errorf("BookingID = %v, want b1", taken.BookingID)
	}
	if taken.HolderName == nil || *taken.HolderName != "Ana" {
		t.Errorf("HolderName = %v, want Ana", taken.HolderName)
	}
	if !taken.Paid {
		t.Errorf("Paid should carry over from the booking")
	}

	vacant := slots[1]
	if vacant.Occupied || vacant.BookingID != nil {
		t.Errorf("slot at 10:00 should be vacant with nil BookingID")
	}
}

func TestCourtWeek_CancelledBookingIsVacant(t *testing.T) {
	courts := &mockCourtSource{
		findByIDFunc: func(ctx context.Context, id string) (*model.Court, error) {
			return testCourt(), nil
		},
	}
	bookings := &mockBookingSource{
		findByDateRangeFunc: func(ctx context.Context, from, to string) ([]*model.Booking, error) {
			// cancelled: party fields nulled, document kept
			return []*model.Booking{
				{
					ID:        "b1",
					Sport:     "padel",
					Date:      "2025-01-06",
					Time:      "09:00",
					ClubEmail: "club@example.com",
					CourtID:   "c1",
					Price:     3000,
				},
			}, nil
		},
	}

	svc := NewAvailabilityService(courts, bookings, &mockClubSource{}, testConfig(),
		fixedClock{t: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)})

	slots, err := svc.CourtWeek(context.Background(), "c1", "")
	if err != nil {
		t.Fatalf("CourtWeek() error: %v", err)
	}
	for _, s := range slots {
		if s.Occupied {
			t.Errorf("slot %s %s should be vacant", s.Date, s.Time)
		}
	}
}

func TestCourtWeek_InvalidDate(t *testing.T) {
	svc := NewAvailabilityService(&mockCourtSource{}, &mockBookingSource{}, &mockClubSource{},
		testConfig(), fixedClock{t: time.Now()})

	_, err := svc.CourtWeek(context.Background(), "c1", "10/01/2025")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeInvalidInput)
	}
}

func TestClubWeek_AggregatesCourts(t *testing.T) {
	second := testCourt()
	second.ID = "c2"
	second.Name = "Cancha 2"

	courts := &mockCourtSource{
		findByClubFunc: func(ctx context.Context, clubEmail string) ([]*model.Court, error) {
			return []*model.Court{testCourt(), second}, nil
		},
	}

	svc := NewAvailabilityService(courts, &mockBookingSource{}, &mockClubSource{},
		testConfig(), fixedClock{t: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)})

	slots, err := svc.ClubWeek(context.Background(), "club@example.com", "")
	if err != nil {
		t.Fatalf("ClubWeek() error: %v", err)
	}
	if len(slots) != 4 {
		t.Errorf("got %d slots, want 4 (2 per court)", len(slots))
	}
}

func TestCourtWeek_EmptyID(t *testing.T) {
	svc := NewAvailabilityService(&mockCourtSource{}, &mockBookingSource{}, &mockClubSource{},
		testConfig(), fixedClock{t: time.Now()})

	_, err := svc.CourtWeek(context.Background(), "", "")
	if err == nil {
		t.Fatal("expected error for empty court ID")
	}
}
