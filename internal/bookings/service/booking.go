package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"turnolibre/internal/availability"
	bookingserrors "turnolibre/internal/bookings/errors"
	"turnolibre/internal/bookings/repository"
	"turnolibre/internal/bookings/validator"
	"turnolibre/pkg/client"
	"turnolibre/pkg/clock"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/kafka"
	"turnolibre/pkg/model"
	"turnolibre/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
)

// CourtSource resolves the live court configuration the price is computed
// from. Wired to the courts service.
type CourtSource interface {
	GetByID(ctx context.Context, id string) (*model.Court, error)
}

// ClubSource resolves the club owning a court, including its sealed payment
// credential. Wired to the clubs service.
type ClubSource interface {
	GetByEmail(ctx context.Context, email string) (*model.Club, error)
}

// UserSource resolves registered users for the phone lookup on direct
// reservation. Optional; may be nil.
type UserSource interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// HoldSource lists a user's pending OTP holds for the combined user view.
// Optional; may be nil.
type HoldSource interface {
	PendingByEmail(ctx context.Context, email string) ([]*model.Hold, error)
}

// CheckoutClient creates checkout preferences for online payment. Wired to
// the MercadoPago client.
type CheckoutClient interface {
	CreatePreference(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error)
}

// Unsealer opens a club's sealed payment credential.
type Unsealer interface {
	Open(sealed string) (string, error)
}

// UserReservations is the combined user view: durable bookings plus holds
// still waiting for email confirmation.
type UserReservations struct {
	Bookings []*model.Booking `json:"turnos"`
	Pending  []*model.Hold    `json:"reservasPendientes"`
}

type BookingService interface {
	Reserve(ctx context.Context, req *model.ReserveRequest) (*model.ReserveResult, error)
	PromoteHold(ctx context.Context, hold *model.Hold) (*model.Booking, error)
	Cancel(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string) error
	RecordPayment(ctx context.Context, id, paymentID, method string, paidAt time.Time) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) error
	UserView(ctx context.Context, email string) (*UserReservations, error)
	ClubView(ctx context.Context, clubEmail string) ([]*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	courts    CourtSource
	clubs     ClubSource
	users     UserSource
	holds     HoldSource
	checkout  CheckoutClient
	sealer    Unsealer
	publisher kafka.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	clk       clock.Clock
}

func NewBookingService(
	repo repository.BookingRepository,
	courts CourtSource,
	clubs ClubSource,
	users UserSource,
	holds HoldSource,
	checkout CheckoutClient,
	sealer Unsealer,
	publisher kafka.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
	clk clock.Clock,
) BookingService {
	return &bookingService{
		repo:      repo,
		courts:    courts,
		clubs:     clubs,
		users:     users,
		holds:     holds,
		checkout:  checkout,
		sealer:    sealer,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		clk:       clk,
	}
}

func (s *bookingService) Reserve(ctx context.Context, req *model.ReserveRequest) (*model.ReserveResult, error) {
	s.sanitizeReserve(req)

	if err := s.validator.ValidateReserve(req); err != nil {
		s.cfg.Log.Warn("Reservation validation failed",
			"court_id", req.CourtID,
			"date", req.Date,
			"time", req.Time,
			"error", err,
		)
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	court, err := s.courts.GetByID(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}

	price, err := availability.PriceAt(court, req.Time)
	if err != nil {
		return nil, apperrors.InvalidInput("Requested time is not a valid slot time")
	}

	phone := req.HolderPhone
	if phone == "" && s.users != nil {
		if user, err := s.users.GetByEmail(ctx, req.HolderEmail); err == nil {
			phone = user.Phone
		}
	}

	if s.cfg.SlotConflictPolicy == config.ConflictPolicyReject {
		existing, err := s.repo.FindByNaturalKey(ctx, req.CourtID, req.Date, req.Time)
		if err != nil && !errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.Internal("Failed to check slot occupancy", err)
		}
		if existing != nil && existing.Occupied() {
			return nil, apperrors.Conflict("Slot is already reserved")
		}
	}

	booking := &model.Booking{
		Sport:     court.Sport,
		Date:      req.Date,
		Time:      req.Time,
		ClubEmail: court.ClubEmail,
		CourtID:   req.CourtID,
		Price:     price,
		Paid:      false,
	}
	booking.HolderName = &req.HolderName
	booking.HolderEmail = &req.HolderEmail
	if phone != "" {
		booking.HolderPhone = &phone
	}
	booking.UserID = req.UserID
	if req.PaymentMethod != "" {
		method := req.PaymentMethod
		booking.PaymentKind = &method
	}

	if err := s.repo.Upsert(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotTaken) {
			return nil, apperrors.Conflict("Slot is already reserved")
		}
		s.cfg.Log.Error("Failed to persist reservation",
			"court_id", req.CourtID,
			"date", req.Date,
			"time", req.Time,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to persist reservation", err)
	}

	result := &model.ReserveResult{Booking: booking}

	if req.PaymentMethod == model.PaymentMethodOnline {
		checkoutURL, err := s.createCheckout(ctx, court, booking)
		if err != nil {
			return nil, err
		}
		result.CheckoutURL = checkoutURL
	}

	s.publish(kafka.EventBookingConfirmed, booking)

	s.cfg.Log.Info("Reservation created successfully",
		"id", booking.ID,
		"court_id", booking.CourtID,
		"date", booking.Date,
		"time", booking.Time,
		"price", booking.Price,
	)
	return result, nil
}

// PromoteHold turns a confirmed OTP hold into a durable booking. The price
// and club identity come from the live court configuration, never from the
// hold.
func (s *bookingService) PromoteHold(ctx context.Context, hold *model.Hold) (*model.Booking, error) {
	court, err := s.courts.GetByID(ctx, hold.CourtID)
	if err != nil {
		return nil, err
	}

	price, err := availability.PriceAt(court, hold.Time)
	if err != nil {
		return nil, apperrors.InvalidInput("Hold time is not a valid slot time")
	}

	email := hold.ContactEmail
	booking := &model.Booking{
		Sport:       court.Sport,
		Date:        hold.Date,
		Time:        hold.Time,
		ClubEmail:   court.ClubEmail,
		CourtID:     hold.CourtID,
		Price:       price,
		HolderName:  &email,
		HolderEmail: &email,
		UserID:      hold.UserID,
	}

	if err := s.repo.Upsert(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotTaken) {
			return nil, apperrors.Conflict("Slot is already reserved")
		}
		s.cfg.Log.Error("Failed to promote hold to booking",
			"hold_id", hold.ID,
			"court_id", hold.CourtID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to promote hold to booking", err)
	}

	s.publish(kafka.EventBookingConfirmed, booking)

	s.cfg.Log.Info("Hold promoted to booking",
		"hold_id", hold.ID,
		"booking_id", booking.ID,
		"court_id", booking.CourtID,
		"date", booking.Date,
		"time", booking.Time,
	)
	return booking, nil
}

// Cancel frees the slot by nulling the reserving-party fields. The document
// stays so the natural-key guard keeps working for rebooking; payment audit
// fields are preserved.
func (s *bookingService) Cancel(ctx context.Context, id string) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !booking.Occupied() {
		return apperrors.InvalidState("Booking is not currently reserved")
	}

	updates := bson.M{
		"usuarioReservado":  nil,
		"emailReservado":    nil,
		"telefonoReservado": nil,
		"usuarioId":         nil,
		"pagado":            false,
		"pagoMetodo":        nil,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return apperrors.Internal("Failed to cancel booking", err)
	}

	s.publish(kafka.EventBookingCancelled, booking)

	s.cfg.Log.Info("Booking cancelled successfully", "id", id)
	return nil
}

func (s *bookingService) MarkPaid(ctx context.Context, id string) error {
	_, err := s.RecordPayment(ctx, id, "", model.PaymentMethodCash, s.clk.Now())
	return err
}

// RecordPayment stamps the payment audit fields exactly once. The boolean
// reports whether this call did the stamping; a booking already marked paid
// is left untouched so retried webhooks cannot move fechaPago.
func (s *bookingService) RecordPayment(ctx context.Context, id, paymentID, method string, paidAt time.Time) (bool, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if booking.Paid {
		return false, nil
	}

	updates := bson.M{
		"pagado":    true,
		"fechaPago": paidAt,
	}
	if paymentID != "" {
		updates["pagoId"] = paymentID
	}
	if method != "" {
		updates["pagoMetodo"] = method
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return false, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to record booking payment",
			"id", id,
			"payment_id", paymentID,
			"error", err,
		)
		return false, apperrors.Internal("Failed to record booking payment", err)
	}

	// Stamp the snapshot so the published event carries the audit fields
	// just written, not the pre-payment document.
	booking.Paid = true
	booking.PaidAt = &paidAt
	if paymentID != "" {
		booking.PaymentID = &paymentID
	}
	if method != "" {
		booking.PaymentKind = &method
	}
	s.publish(kafka.EventBookingPaid, booking)

	s.cfg.Log.Info("Booking payment recorded",
		"id", id,
		"payment_id", paymentID,
		"method", method,
	)
	return true, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetByPaymentID(ctx context.Context, paymentID string) (*model.Booking, error) {
	if paymentID == "" {
		return nil, apperrors.InvalidInput("Payment ID cannot be empty")
	}

	booking, err := s.repo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", paymentID)
		}
		return nil, apperrors.Internal("Failed to retrieve booking by payment", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindAll(sharedCtx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return apperrors.Validation("Booking update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	doc := s.buildUpdateDocument(existing, updates)
	if len(doc) == 0 {
		return nil
	}

	if err := s.repo.Update(ctx, id, doc); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return apperrors.Internal("Failed to update booking", err)
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	return nil
}

func (s *bookingService) UserView(ctx context.Context, email string) (*UserReservations, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Email cannot be empty")
	}

	bookings, err := s.repo.FindByHolderEmail(ctx, email)
	if err != nil {
		s.cfg.Log.Error("Failed to list user bookings", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to retrieve user reservations", err)
	}

	view := &UserReservations{Bookings: bookings}

	if s.holds != nil {
		pending, err := s.holds.PendingByEmail(ctx, email)
		if err != nil {
			s.cfg.Log.Error("Failed to list user pending holds", "email", email, "error", err)
			return nil, apperrors.Internal("Failed to retrieve user reservations", err)
		}
		view.Pending = pending
	}

	return view, nil
}

func (s *bookingService) ClubView(ctx context.Context, clubEmail string) ([]*model.Booking, error) {
	clubEmail = sanitizer.NormalizeEmail(clubEmail)
	if clubEmail == "" {
		return nil, apperrors.InvalidInput("Club email cannot be empty")
	}

	// Legacy documents stored the club display name in the club field, so
	// the lookup matches on both identities when the club resolves.
	identities := []string{clubEmail}
	if club, err := s.clubs.GetByEmail(ctx, clubEmail); err == nil && club.Name != "" {
		identities = append(identities, club.Name)
	}

	bookings, err := s.repo.FindByClubChronological(ctx, identities)
	if err != nil {
		s.cfg.Log.Error("Failed to list club bookings", "club_email", clubEmail, "error", err)
		return nil, apperrors.Internal("Failed to retrieve club reservations", err)
	}

	return bookings, nil
}

// --- Helpers ---

func (s *bookingService) sanitizeReserve(req *model.ReserveRequest) {
	req.HolderName = sanitizer.NormalizeName(req.HolderName)
	req.HolderEmail = sanitizer.NormalizeEmail(req.HolderEmail)
	if req.HolderPhone != "" {
		req.HolderPhone = sanitizer.NormalizePhone(req.HolderPhone)
	}
	req.PaymentMethod = sanitizer.TrimAndNormalize(req.PaymentMethod)
}

func (s *bookingService) createCheckout(ctx context.Context, court *model.Court, booking *model.Booking) (string, error) {
	club, err := s.clubs.GetByEmail(ctx, court.ClubEmail)
	if err != nil {
		return "", err
	}
	if club.SealedMPToken == "" {
		return "", apperrors.Conflict("Club has no payment credential configured")
	}

	token, err := s.sealer.Open(club.SealedMPToken)
	if err != nil {
		s.cfg.Log.Error("Failed to open club payment credential",
			"club_email", club.Email,
			"error", err,
		)
		return "", apperrors.Internal("Failed to access club payment credential", err)
	}

	pref, err := s.checkout.CreatePreference(ctx, token, &client.PreferenceRequest{
		Items: []client.PreferenceItem{{
			Title:     fmt.Sprintf("%s %s %s", court.Name, booking.Date, booking.Time),
			Quantity:  1,
			UnitPrice: booking.Price,
		}},
		ExternalReference: booking.ID,
		BackURLs: &client.BackURLs{
			Success: s.cfg.FrontURL + "/pago/exito",
			Failure: s.cfg.FrontURL + "/pago/error",
			Pending: s.cfg.FrontURL + "/pago/pendiente",
		},
		AutoReturn: "approved",
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create checkout preference",
			"booking_id", booking.ID,
			"club_email", club.Email,
			"error", err,
		)
		return "", err
	}

	return pref.InitPoint, nil
}

func (s *bookingService) buildUpdateDocument(existing *model.Booking, updates *model.BookingUpdate) bson.M {
	doc := bson.M{}

	if updates.Sport != "" {
		doc["deporte"] = updates.Sport
	}
	if updates.Date != "" {
		doc["fecha"] = updates.Date
	}
	if updates.Time != "" {
		doc["hora"] = updates.Time
	}
	if updates.Price != nil {
		doc["precio"] = *updates.Price
	}
	if updates.HolderName != nil {
		doc["usuarioReservado"] = *updates.HolderName
	}
	if updates.HolderEmail != nil {
		doc["emailReservado"] = sanitizer.NormalizeEmail(*updates.HolderEmail)
	}
	if updates.Paid != nil {
		doc["pagado"] = *updates.Paid
	}

	return doc
}

func (s *bookingService) publish(eventType string, booking *model.Booking) {
	if s.publisher == nil {
		return
	}
	key := fmt.Sprintf("%s/%s/%s", booking.CourtID, booking.Date, booking.Time)
	if err := s.publisher.Publish(context.Background(), kafka.NewEvent(eventType, key, booking)); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
