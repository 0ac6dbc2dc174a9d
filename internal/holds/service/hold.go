package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	holdserrors "turnolibre/internal/holds/errors"
	"turnolibre/internal/holds/repository"
	"turnolibre/internal/holds/validator"
	"turnolibre/pkg/clock"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/model"
	"turnolibre/pkg/sanitizer"
)

// CourtSource verifies the court a hold points at actually exists. Wired to
// the courts service.
type CourtSource interface {
	GetByID(ctx context.Context, id string) (*model.Court, error)
}

// BookingPromoter turns a confirmed hold into a durable booking. Wired to
// the bookings service.
type BookingPromoter interface {
	PromoteHold(ctx context.Context, hold *model.Hold) (*model.Booking, error)
}

// Mailer delivers the one-time code. Wired to the SMTP client.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type HoldService interface {
	Create(ctx context.Context, req *model.HoldRequest) (*model.Hold, error)
	GetByID(ctx context.Context, id string) (*model.Hold, error)
	Confirm(ctx context.Context, id, code string) (*model.Booking, error)
	Resend(ctx context.Context, req *model.ResendRequest) (*model.Hold, error)
	Cancel(ctx context.Context, id string) error
	PendingByEmail(ctx context.Context, email string) ([]*model.Hold, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type holdService struct {
	repo      repository.HoldRepository
	courts    CourtSource
	bookings  BookingPromoter
	mailer    Mailer
	validator *validator.HoldValidator
	cfg       *config.Config
	clk       clock.Clock
}

func NewHoldService(
	repo repository.HoldRepository,
	courts CourtSource,
	bookings BookingPromoter,
	mailer Mailer,
	validator *validator.HoldValidator,
	cfg *config.Config,
	clk clock.Clock,
) HoldService {
	return &holdService{
		repo:      repo,
		courts:    courts,
		bookings:  bookings,
		mailer:    mailer,
		validator: validator,
		cfg:       cfg,
		clk:       clk,
	}
}

func (s *holdService) Create(ctx context.Context, req *model.HoldRequest) (*model.Hold, error) {
	req.ContactEmail = sanitizer.NormalizeEmail(req.ContactEmail)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Hold validation failed",
			"court_id", req.CourtID,
			"date", req.Date,
			"time", req.Time,
			"error", err,
		)
		return nil, apperrors.Validation("Hold validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	court, err := s.courts.GetByID(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate confirmation code", err)
	}

	now := s.clk.Now()
	hold := &model.Hold{
		CourtID:      req.CourtID,
		UserID:       req.UserID,
		Date:         req.Date,
		Time:         req.Time,
		Status:       model.HoldPending,
		Code:         &code,
		ExpiresAt:    now.Add(s.cfg.HoldTTL),
		ContactEmail: req.ContactEmail,
		CreatedAt:    now,
	}

	if err := s.repo.Create(ctx, hold); err != nil {
		s.cfg.Log.Error("Failed to create hold",
			"court_id", req.CourtID,
			"email", req.ContactEmail,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create hold", err)
	}

	s.sendCode(hold, court.Name)

	s.cfg.Log.Info("Hold created successfully",
		"id", hold.ID,
		"court_id", hold.CourtID,
		"date", hold.Date,
		"time", hold.Time,
		"expires_at", hold.ExpiresAt,
	)
	return hold, nil
}

func (s *holdService) GetByID(ctx context.Context, id string) (*model.Hold, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	hold, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, holdserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Hold", id)
		}
		if errors.Is(err, holdserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid hold ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve hold", err)
	}

	return hold, nil
}

// Confirm checks the failure modes in a fixed order so the client always
// learns the most specific one: missing hold, terminal state, expiry, then
// code mismatch. A wrong code mutates nothing.
func (s *holdService) Confirm(ctx context.Context, id, code string) (*model.Booking, error) {
	hold, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if hold.Terminal() {
		return nil, apperrors.InvalidState(fmt.Sprintf("Hold is already %s", hold.Status))
	}

	if s.clk.Now().After(hold.ExpiresAt) {
		if err := s.repo.Update(ctx, id, bson.M{"estado": model.HoldExpired}); err != nil {
			s.cfg.Log.Warn("Failed to mark overdue hold expired", "id", id, "error", err)
		}
		return nil, apperrors.Expired("Hold has expired")
	}

	if hold.Code == nil || *hold.Code != code {
		return nil, apperrors.InvalidCode("Confirmation code is incorrect")
	}

	// Promotion and the state flip commit together; a failure on either
	// side rolls the other back, so there is never a booking without a
	// CONFIRMED hold or the reverse.
	var booking *model.Booking
	txErr := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		promoted, err := s.bookings.PromoteHold(sessCtx, hold)
		if err != nil {
			return err
		}
		booking = promoted
		return s.repo.Update(sessCtx, id, bson.M{"estado": model.HoldConfirmed, "codigoOTP": nil})
	})
	if txErr != nil {
		s.cfg.Log.Error("Failed to promote hold on confirmation",
			"id", id,
			"court_id", hold.CourtID,
			"error", txErr,
		)
		if apperrors.IsAppError(txErr) {
			return nil, txErr
		}
		return nil, apperrors.Internal("Failed to promote hold on confirmation", txErr)
	}

	s.cfg.Log.Info("Hold confirmed successfully",
		"id", id,
		"booking_id", booking.ID,
	)
	return booking, nil
}

func (s *holdService) Resend(ctx context.Context, req *model.ResendRequest) (*model.Hold, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)

	if err := s.validator.ValidateResend(req); err != nil {
		return nil, apperrors.Validation("Resend validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	var hold *model.Hold
	var err error
	if req.ID != "" {
		hold, err = s.GetByID(ctx, req.ID)
	} else {
		hold, err = s.latestPending(ctx, req.Email)
	}
	if err != nil {
		return nil, err
	}

	if hold.Terminal() {
		return nil, apperrors.InvalidState(fmt.Sprintf("Hold is already %s", hold.Status))
	}

	// A lapsed hold cannot be revived with a fresh code; the slot may have
	// been taken by someone else in the meantime.
	if s.clk.Now().After(hold.ExpiresAt) {
		if err := s.repo.Update(ctx, hold.ID, bson.M{"estado": model.HoldExpired}); err != nil {
			s.cfg.Log.Warn("Failed to mark overdue hold expired", "id", hold.ID, "error", err)
		}
		return nil, apperrors.Expired("Hold has expired")
	}

	code, err := generateCode()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate confirmation code", err)
	}

	expiresAt := s.clk.Now().Add(s.cfg.HoldTTL)
	if err := s.repo.Update(ctx, hold.ID, bson.M{"codigoOTP": code, "expiresAt": expiresAt}); err != nil {
		s.cfg.Log.Error("Failed to refresh hold code", "id", hold.ID, "error", err)
		return nil, apperrors.Internal("Failed to refresh hold code", err)
	}

	hold.Code = &code
	hold.ExpiresAt = expiresAt
	s.sendCode(hold, "")

	s.cfg.Log.Info("Hold code resent", "id", hold.ID, "expires_at", expiresAt)
	return hold, nil
}

func (s *holdService) Cancel(ctx context.Context, id string) error {
	hold, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if hold.Terminal() {
		return apperrors.InvalidState(fmt.Sprintf("Hold is already %s", hold.Status))
	}

	if err := s.repo.Update(ctx, id, bson.M{"estado": model.HoldCancelled}); err != nil {
		s.cfg.Log.Error("Failed to cancel hold", "id", id, "error", err)
		return apperrors.Internal("Failed to cancel hold", err)
	}

	s.cfg.Log.Info("Hold cancelled successfully", "id", id)
	return nil
}

func (s *holdService) PendingByEmail(ctx context.Context, email string) ([]*model.Hold, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Email cannot be empty")
	}

	holds, err := s.repo.FindPendingByEmail(ctx, email)
	if err != nil {
		s.cfg.Log.Error("Failed to list pending holds", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to retrieve pending holds", err)
	}

	return holds, nil
}

func (s *holdService) ExpireStale(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireStale(ctx, s.clk.Now())
	if err != nil {
		s.cfg.Log.Error("Failed to expire stale holds", "error", err)
		return 0, apperrors.Internal("Failed to expire stale holds", err)
	}

	if count > 0 {
		s.cfg.Log.Info("Expired stale holds", "count", count)
	}
	return count, nil
}

func (s *holdService) latestPending(ctx context.Context, email string) (*model.Hold, error) {
	hold, err := s.repo.FindLatestPendingByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, holdserrors.ErrNotFound) {
			return nil, apperrors.NotFound("No pending hold for this email")
		}
		return nil, apperrors.Internal("Failed to retrieve pending hold", err)
	}
	return hold, nil
}

// sendCode delivers the confirmation email without blocking the state
// transition; delivery failures are logged, never surfaced.
func (s *holdService) sendCode(hold *model.Hold, courtName string) {
	if s.mailer == nil || hold.Code == nil {
		return
	}

	loc := s.cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	code := *hold.Code
	link := fmt.Sprintf("%s/reservas/confirmar?id=%s&codigo=%s", s.cfg.FrontURL, hold.ID, code)
	subject := "Confirmá tu reserva"
	body := fmt.Sprintf(
		"<p>Tu código de confirmación es <strong>%s</strong>.</p>"+
			"<p>Reserva para el %s a las %s%s.</p>"+
			"<p><a href=%q>Confirmar reserva</a> (vence %s).</p>",
		code, hold.Date, hold.Time, courtSuffix(courtName), link,
		hold.ExpiresAt.In(loc).Format("15:04"),
	)

	to := hold.ContactEmail
	go func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			s.cfg.Log.Error("Failed to send hold confirmation email",
				"hold_id", hold.ID,
				"email", to,
				"error", err,
			)
		}
	}()
}

func courtSuffix(name string) string {
	if name == "" {
		return ""
	}
	return " en " + name
}

// generateCode draws a uniform 6-digit code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
