package service

import (
	"context"
	"errors"
	"time"

	"turnolibre/internal/payments/repository"
	"turnolibre/pkg/client"
	"turnolibre/pkg/clock"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/kafka"
	"turnolibre/pkg/model"
)

// PaymentFetcher looks up full payment details at the processor. Wired to
// the MercadoPago client.
type PaymentFetcher interface {
	FetchPayment(ctx context.Context, accessToken, paymentID string) (*client.Payment, error)
}

// BookingTarget is the slice of the bookings service the engine needs to
// resolve and stamp a paid booking.
type BookingTarget interface {
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*model.Booking, error)
	RecordPayment(ctx context.Context, id, paymentID, method string, paidAt time.Time) (bool, error)
}

// ClubTarget resolves clubs and activates the featured promotion.
type ClubTarget interface {
	GetByEmail(ctx context.Context, email string) (*model.Club, error)
	SetFeatured(ctx context.Context, email, paymentID string) error
}

// Unsealer opens a club's sealed processor credential.
type Unsealer interface {
	Open(sealed string) (string, error)
}

type PaymentService interface {
	ReconcileBooking(ctx context.Context, clubEmail, paymentID string) error
	ReconcileFeatured(ctx context.Context, paymentID string) error
}

type paymentService struct {
	events    repository.PaymentEventRepository
	fetcher   PaymentFetcher
	bookings  BookingTarget
	clubs     ClubTarget
	sealer    Unsealer
	publisher kafka.Publisher
	cfg       *config.Config
	clk       clock.Clock
}

func NewPaymentService(
	events repository.PaymentEventRepository,
	fetcher PaymentFetcher,
	bookings BookingTarget,
	clubs ClubTarget,
	sealer Unsealer,
	publisher kafka.Publisher,
	cfg *config.Config,
	clk clock.Clock,
) PaymentService {
	return &paymentService{
		events:    events,
		fetcher:   fetcher,
		bookings:  bookings,
		clubs:     clubs,
		sealer:    sealer,
		publisher: publisher,
		cfg:       cfg,
		clk:       clk,
	}
}

// ReconcileBooking applies a booking-payment webhook. The PaymentEvent guard
// is written before any side effect; a failure after the guard surfaces as
// an error so the processor retries, accepting a small window where the
// retry no-ops against the guard. Rejected and cancelled payments are a
// deliberate no-op.
func (s *paymentService) ReconcileBooking(ctx context.Context, clubEmail, paymentID string) error {
	if done, err := s.guard(ctx, paymentID); done || err != nil {
		return err
	}

	token, err := s.clubToken(ctx, clubEmail)
	if err != nil {
		return err
	}

	payment, err := s.fetcher.FetchPayment(ctx, token, paymentID)
	if err != nil {
		s.cfg.Log.Error("Failed to fetch payment",
			"payment_id", paymentID,
			"club_email", clubEmail,
			"error", err,
		)
		return err
	}

	booking, err := s.resolveBooking(ctx, payment, paymentID)
	if err != nil {
		return err
	}

	switch payment.Status {
	case client.PaymentStatusApproved:
		stamped, err := s.bookings.RecordPayment(ctx, booking.ID, paymentID, payment.PaymentMethodID, s.clk.Now())
		if err != nil {
			return err
		}
		s.cfg.Log.Info("Booking payment reconciled",
			"booking_id", booking.ID,
			"payment_id", paymentID,
			"stamped", stamped,
		)
	case client.PaymentStatusRejected:
		s.publish(kafka.EventPaymentRejected, paymentID, payment)
		s.cfg.Log.Info("Rejected payment left without corrective action",
			"booking_id", booking.ID,
			"payment_id", paymentID,
		)
	default:
		s.cfg.Log.Info("Payment not in a final state, nothing to apply",
			"booking_id", booking.ID,
			"payment_id", paymentID,
			"status", payment.Status,
		)
	}

	return nil
}

// ReconcileFeatured applies a promotion-payment webhook. The platform
// credential is used and the club travels as external_reference.
func (s *paymentService) ReconcileFeatured(ctx context.Context, paymentID string) error {
	if done, err := s.guard(ctx, paymentID); done || err != nil {
		return err
	}

	if s.cfg.MPAccessToken == "" {
		return apperrors.Internal("Platform payment credential is not configured", nil)
	}

	payment, err := s.fetcher.FetchPayment(ctx, s.cfg.MPAccessToken, paymentID)
	if err != nil {
		s.cfg.Log.Error("Failed to fetch promotion payment",
			"payment_id", paymentID,
			"error", err,
		)
		return err
	}

	club, err := s.clubs.GetByEmail(ctx, payment.ExternalReference)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve club for promotion payment",
			"payment_id", paymentID,
			"external_reference", payment.ExternalReference,
			"error", err,
		)
		return err
	}

	switch payment.Status {
	case client.PaymentStatusApproved:
		if err := s.clubs.SetFeatured(ctx, club.Email, paymentID); err != nil {
			return err
		}
		s.publish(kafka.EventClubFeatured, club.Email, club)
		s.cfg.Log.Info("Club promotion reconciled",
			"email", club.Email,
			"payment_id", paymentID,
		)
	case client.PaymentStatusRejected:
		s.publish(kafka.EventPaymentRejected, paymentID, payment)
		s.cfg.Log.Info("Rejected promotion payment left without corrective action",
			"email", club.Email,
			"payment_id", paymentID,
		)
	default:
		s.cfg.Log.Info("Promotion payment not in a final state, nothing to apply",
			"email", club.Email,
			"payment_id", paymentID,
			"status", payment.Status,
		)
	}

	return nil
}

// guard records the idempotency row. done=true means this delivery was
// already handled and the caller should acknowledge without side effects.
func (s *paymentService) guard(ctx context.Context, paymentID string) (bool, error) {
	err := s.events.Record(ctx, paymentID)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		s.cfg.Log.Info("Duplicate payment delivery ignored", "payment_id", paymentID)
		return true, nil
	}
	s.cfg.Log.Error("Failed to record payment event", "payment_id", paymentID, "error", err)
	return false, apperrors.Internal("Failed to record payment event", err)
}

func (s *paymentService) clubToken(ctx context.Context, clubEmail string) (string, error) {
	club, err := s.clubs.GetByEmail(ctx, clubEmail)
	if err != nil {
		return "", err
	}

	if club.SealedMPToken != "" {
		token, err := s.sealer.Open(club.SealedMPToken)
		if err != nil {
			s.cfg.Log.Error("Failed to open club payment credential",
				"club_email", club.Email,
				"error", err,
			)
			return "", apperrors.Internal("Failed to access club payment credential", err)
		}
		return token, nil
	}

	if s.cfg.MPAccessToken != "" {
		return s.cfg.MPAccessToken, nil
	}

	return "", apperrors.Internal("No payment credential available for club", nil)
}

// resolveBooking prefers the external reference written at checkout time and
// falls back to the stored payment id for deliveries that arrive after a
// manual stamp.
func (s *paymentService) resolveBooking(ctx context.Context, payment *client.Payment, paymentID string) (*model.Booking, error) {
	if payment.ExternalReference != "" {
		booking, err := s.bookings.GetByID(ctx, payment.ExternalReference)
		if err == nil {
			return booking, nil
		}
		code := apperrors.AsAppError(err).Code
		if code != apperrors.CodeNotFound && code != apperrors.CodeInvalidInput {
			return nil, err
		}
	}

	booking, err := s.bookings.GetByPaymentID(ctx, paymentID)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve booking for payment",
			"payment_id", paymentID,
			"external_reference", payment.ExternalReference,
			"error", err,
		)
		return nil, err
	}
	return booking, nil
}

func (s *paymentService) publish(eventType, key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), kafka.NewEvent(eventType, key, payload)); err != nil {
		s.cfg.Log.Warn("Failed to publish payment event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
	}
}
