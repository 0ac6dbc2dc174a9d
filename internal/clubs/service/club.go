package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	clubserrors "turnolibre/internal/clubs/errors"
	"turnolibre/internal/clubs/repository"
	"turnolibre/internal/clubs/validator"
	"turnolibre/pkg/client"
	"turnolibre/pkg/clock"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/model"
	"turnolibre/pkg/sanitizer"
)

// CheckoutClient creates the featured-promotion checkout preference with the
// platform credential.
type CheckoutClient interface {
	CreatePreference(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error)
}

// CredentialSealer seals and opens the per-club MercadoPago access token.
type CredentialSealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type ClubService interface {
	Create(ctx context.Context, club *model.Club) error
	GetByEmail(ctx context.Context, email string) (*model.Club, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Club, error)
	Update(ctx context.Context, email string, updates *model.ClubUpdate) error
	SetMPCredential(ctx context.Context, email, accessToken string) error
	FeaturedCheckout(ctx context.Context, email string) (string, error)
	SetFeatured(ctx context.Context, email, paymentID string) error
	ExpireFeatured(ctx context.Context) (int64, error)
}

type clubService struct {
	repo      repository.ClubRepository
	checkout  CheckoutClient
	sealer    CredentialSealer
	validator *validator.ClubValidator
	cfg       *config.Config
	clk       clock.Clock
}

func NewClubService(
	repo repository.ClubRepository,
	checkout CheckoutClient,
	sealer CredentialSealer,
	validator *validator.ClubValidator,
	cfg *config.Config,
	clk clock.Clock,
) ClubService {
	return &clubService{
		repo:      repo,
		checkout:  checkout,
		sealer:    sealer,
		validator: validator,
		cfg:       cfg,
		clk:       clk,
	}
}

func (s *clubService) Create(ctx context.Context, club *model.Club) error {
	s.sanitize(club)
	club.Active = true
	club.Featured = false
	club.FeaturedUntil = nil

	if err := s.validator.Validate(club); err != nil {
		s.cfg.Log.Warn("Club validation failed",
			"name", club.Name,
			"email", club.Email,
			"error", err,
		)
		return apperrors.Validation("Club validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, club); err != nil {
		s.cfg.Log.Error("Failed to create club",
			"email", club.Email,
			"error", err,
		)
		return apperrors.Internal("Failed to create club", err)
	}

	s.cfg.Log.Info("Club created successfully",
		"id", club.ID,
		"name", club.Name,
		"email", club.Email,
	)
	return nil
}

func (s *clubService) GetByEmail(ctx context.Context, email string) (*model.Club, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Club email cannot be empty")
	}

	club, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, clubserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Club", email)
		}
		s.cfg.Log.Error("Failed to get club by email", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to retrieve club", err)
	}

	return club, nil
}

func (s *clubService) List(ctx context.Context, filter repository.ListFilter) ([]*model.Club, error) {
	filter.Province = sanitizer.TrimAndNormalize(filter.Province)
	filter.Locality = sanitizer.TrimAndNormalize(filter.Locality)
	filter.Name = sanitizer.TrimAndNormalize(filter.Name)

	clubs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list clubs",
			"province", filter.Province,
			"locality", filter.Locality,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve clubs", err)
	}

	return clubs, nil
}

func (s *clubService) Update(ctx context.Context, email string, updates *model.ClubUpdate) error {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("Club email cannot be empty")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Club update validation failed", "email", email, "error", err)
		return apperrors.Validation("Club update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	doc := bson.M{}
	if updates.Name != "" {
		doc["nombre"] = updates.Name
	}
	if updates.Phone != "" {
		doc["telefono"] = updates.Phone
	}
	if updates.Province != "" {
		doc["provincia"] = updates.Province
	}
	if updates.Locality != "" {
		doc["localidad"] = updates.Locality
	}
	if updates.Latitude != nil {
		doc["latitud"] = *updates.Latitude
	}
	if updates.Longitude != nil {
		doc["longitud"] = *updates.Longitude
	}
	if len(doc) == 0 {
		return nil
	}

	if err := s.repo.UpdateByEmail(ctx, email, doc); err != nil {
		if errors.Is(err, clubserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Club", email)
		}
		s.cfg.Log.Error("Failed to update club", "email", email, "error", err)
		return apperrors.Internal("Failed to update club", err)
	}

	s.cfg.Log.Info("Club updated successfully", "email", email)
	return nil
}

// SetMPCredential stores the club's MercadoPago access token sealed. The
// plaintext token is never persisted or logged.
func (s *clubService) SetMPCredential(ctx context.Context, email, accessToken string) error {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("Club email cannot be empty")
	}
	if accessToken == "" {
		return apperrors.InvalidInput("Access token cannot be empty")
	}

	sealed, err := s.sealer.Seal(accessToken)
	if err != nil {
		s.cfg.Log.Error("Failed to seal club credential", "email", email, "error", err)
		return apperrors.Internal("Failed to store club credential", err)
	}

	if err := s.repo.UpdateByEmail(ctx, email, bson.M{"mercadoPagoAccessToken": sealed}); err != nil {
		if errors.Is(err, clubserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Club", email)
		}
		s.cfg.Log.Error("Failed to store club credential", "email", email, "error", err)
		return apperrors.Internal("Failed to store club credential", err)
	}

	s.cfg.Log.Info("Club payment credential stored", "email", email)
	return nil
}

// FeaturedCheckout creates a checkout link for the featured promotion using
// the platform credential; the club email travels as external_reference so
// the webhook can resolve it.
func (s *clubService) FeaturedCheckout(ctx context.Context, email string) (string, error) {
	club, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if s.cfg.MPAccessToken == "" {
		return "", apperrors.Conflict("Platform payment credential is not configured")
	}

	pref, err := s.checkout.CreatePreference(ctx, s.cfg.MPAccessToken, &client.PreferenceRequest{
		Items: []client.PreferenceItem{{
			Title:     fmt.Sprintf("Destacar club %s por %d días", club.Name, s.cfg.FeaturedDays),
			Quantity:  1,
			UnitPrice: s.cfg.FeaturedPrice,
		}},
		ExternalReference: club.Email,
		BackURLs: &client.BackURLs{
			Success: s.cfg.FrontURL + "/club/destacado/exito",
			Failure: s.cfg.FrontURL + "/club/destacado/error",
			Pending: s.cfg.FrontURL + "/club/destacado/pendiente",
		},
		AutoReturn: "approved",
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create featured checkout",
			"email", club.Email,
			"error", err,
		)
		return "", err
	}

	s.cfg.Log.Info("Featured checkout created",
		"email", club.Email,
		"price", s.cfg.FeaturedPrice,
		"days", s.cfg.FeaturedDays,
	)
	return pref.InitPoint, nil
}

// SetFeatured activates the promotion window. Called from webhook
// reconciliation on an approved promotion payment.
func (s *clubService) SetFeatured(ctx context.Context, email, paymentID string) error {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("Club email cannot be empty")
	}

	until := s.clk.Now().Add(time.Duration(s.cfg.FeaturedDays) * 24 * time.Hour)
	updates := bson.M{
		"destacado":      true,
		"destacadoHasta": until,
	}
	if paymentID != "" {
		updates["idUltimaTransaccion"] = paymentID
	}

	if err := s.repo.UpdateByEmail(ctx, email, updates); err != nil {
		if errors.Is(err, clubserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Club", email)
		}
		s.cfg.Log.Error("Failed to feature club", "email", email, "error", err)
		return apperrors.Internal("Failed to feature club", err)
	}

	s.cfg.Log.Info("Club featured",
		"email", email,
		"until", until,
		"payment_id", paymentID,
	)
	return nil
}

func (s *clubService) ExpireFeatured(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireFeatured(ctx, s.clk.Now())
	if err != nil {
		s.cfg.Log.Error("Failed to expire featured clubs", "error", err)
		return 0, apperrors.Internal("Failed to expire featured clubs", err)
	}

	if count > 0 {
		s.cfg.Log.Info("Expired featured clubs", "count", count)
	}
	return count, nil
}

func (s *clubService) sanitize(club *model.Club) {
	club.Name = sanitizer.NormalizeName(club.Name)
	club.Email = sanitizer.NormalizeEmail(club.Email)
	club.Phone = sanitizer.NormalizePhone(club.Phone)
	club.Province = sanitizer.TrimAndNormalize(club.Province)
	club.Locality = sanitizer.TrimAndNormalize(club.Locality)
}

func (s *clubService) sanitizeUpdate(updates *model.ClubUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Phone != "" {
		updates.Phone = sanitizer.NormalizePhone(updates.Phone)
	}
	if updates.Province != "" {
		updates.Province = sanitizer.TrimAndNormalize(updates.Province)
	}
	if updates.Locality != "" {
		updates.Locality = sanitizer.TrimAndNormalize(updates.Locality)
	}
}
