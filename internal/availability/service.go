package availability

import (
	"context"
	"time"

	"turnolibre/pkg/clock"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/model"
)

// CourtSource and friends are the read-side slices of the domain
// repositories this view needs. The reconciler never writes.
type CourtSource interface {
	FindByID(ctx context.Context, id string) (*model.Court, error)
	FindByClub(ctx context.Context, clubEmail string) ([]*model.Court, error)
}

type BookingSource interface {
	FindByDateRange(ctx context.Context, from, to string) ([]*model.Booking, error)
}

type ClubSource interface {
	FindByEmail(ctx context.Context, email string) (*model.Club, error)
}

// ViewSlot is a grid slot annotated with its occupancy state. BookingID is
// the real stored identifier when a matching occupied booking exists, nil
// for vacant slots.
type ViewSlot struct {
	Slot
	BookingID   *string `json:"turnoId"`
	Occupied    bool    `json:"ocupado"`
	HolderName  *string `json:"usuarioReservado,omitempty"`
	HolderEmail *string `json:"emailReservado,omitempty"`
	Paid        bool    `json:"pagado"`
	PaymentID   *string `json:"pagoId,omitempty"`
}

type AvailabilityService interface {
	CourtWeek(ctx context.Context, courtID string, refDate string) ([]*ViewSlot, error)
	ClubWeek(ctx context.Context, clubEmail string, refDate string) ([]*ViewSlot, error)
}

type availabilityService struct {
	courts   CourtSource
	bookings BookingSource
	clubs    ClubSource
	cfg      *config.Config
	clk      clock.Clock
}

func NewAvailabilityService(
	courts CourtSource,
	bookings BookingSource,
	clubs ClubSource,
	cfg *config.Config,
	clk clock.Clock,
) AvailabilityService {
	return &availabilityService{
		courts:   courts,
		bookings: bookings,
		clubs:    clubs,
		cfg:      cfg,
		clk:      clk,
	}
}

func (s *availabilityService) CourtWeek(ctx context.Context, courtID string, refDate string) ([]*ViewSlot, error) {
	if courtID == "" {
		return nil, apperrors.InvalidInput("Court ID cannot be empty")
	}

	weekStart, err := s.resolveWeek(refDate)
	if err != nil {
		return nil, err
	}

	court, err := s.courts.FindByID(ctx, courtID)
	if err != nil {
		return nil, err
	}

	return s.reconcile(ctx, []*model.Court{court}, weekStart)
}

func (s *availabilityService) ClubWeek(ctx context.Context, clubEmail string, refDate string) ([]*ViewSlot, error) {
	if clubEmail == "" {
		return nil, apperrors.InvalidInput("Club email cannot be empty")
	}

	weekStart, err := s.resolveWeek(refDate)
	if err != nil {
		return nil, err
	}

	courts, err := s.courts.FindByClub(ctx, clubEmail)
	if err != nil {
		return nil, err
	}

	return s.reconcile(ctx, courts, weekStart)
}

func (s *availabilityService) resolveWeek(refDate string) (time.Time, error) {
	ref := s.clk.Now().In(s.cfg.Location)
	if refDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", refDate, s.cfg.Location)
		if err != nil {
			return time.Time{}, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
		}
		ref = parsed
	}
	return WeekAnchor(ref), nil
}

// reconcile merges the generated grids with the week's persisted bookings.
// Matching tolerates two legacy storage quirks: the booking's club field may
// hold either the club's email or its display name, and court references may
// differ in representation, so both sides compare as strings.
func (s *availabilityService) reconcile(ctx context.Context, courts []*model.Court, weekStart time.Time) ([]*ViewSlot, error) {
	from := weekStart.Format("2006-01-02")
	to := weekStart.AddDate(0, 0, 6).Format("2006-01-02")

	bookings, err := s.bookings.FindByDateRange(ctx, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for availability view",
			"from", from,
			"to", to,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load bookings", err)
	}

	clubIdentities := make(map[string][]string)

	view := []*ViewSlot{}
	for _, court := range courts {
		identities, ok := clubIdentities[court.ClubEmail]
		if !ok {
			identities = s.clubIdentities(ctx, court.ClubEmail)
			clubIdentities[court.ClubEmail] = identities
		}

		for slot := range Grid(court, weekStart) {
			vs := &ViewSlot{Slot: slot}
			if b := matchBooking(bookings, slot, identities); b != nil {
				id := b.ID
				vs.BookingID = &id
				vs.Occupied = true
				vs.HolderName = b.HolderName
				vs.HolderEmail = b.HolderEmail
				vs.Paid = b.Paid
				vs.PaymentID = b.PaymentID
			}
			view = append(view, vs)
		}
	}

	return view, nil
}

// clubIdentities returns the strings a booking's club field may legally
// carry for this club. A failed lookup degrades to email-only matching.
func (s *availabilityService) clubIdentities(ctx context.Context, clubEmail string) []string {
	identities := []string{clubEmail}
	club, err := s.clubs.FindByEmail(ctx, clubEmail)
	if err == nil && club.Name != "" {
		identities = append(identities, club.Name)
	}
	return identities
}

func matchBooking(bookings []*model.Booking, slot Slot, clubIdentities []string) *model.Booking {
	for _, b := range bookings {
		if !b.Occupied() {
			continue
		}
		if b.Sport != slot.Sport || b.Date != slot.Date || b.Time != slot.Time {
			continue
		}
		if b.CourtID != slot.CourtID {
			continue
		}
		for _, identity := range clubIdentities {
			if b.ClubEmail == identity {
				return b
			}
		}
	}
	return nil
}
