package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	courtserrors "turnolibre/internal/courts/errors"
	"turnolibre/internal/courts/repository"
	"turnolibre/internal/courts/validator"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/model"
	"turnolibre/pkg/sanitizer"
)

type CourtService interface {
	Create(ctx context.Context, court *model.Court) error
	GetByID(ctx context.Context, id string) (*model.Court, error)
	GetByClub(ctx context.Context, clubEmail string) ([]*model.Court, error)
	GetAll(ctx context.Context, sport string, limit int, offset int64) ([]*model.Court, int64, error)
	Update(ctx context.Context, id string, updates *model.CourtUpdate) error
	Delete(ctx context.Context, id string) error
}

type courtService struct {
	repo      repository.CourtRepository
	validator *validator.CourtValidator
	cfg       *config.Config
}

func NewCourtService(
	repo repository.CourtRepository,
	validator *validator.CourtValidator,
	cfg *config.Config,
) CourtService {
	return &courtService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *courtService) Create(ctx context.Context, court *model.Court) error {
	s.sanitize(court)
	s.applyDefaults(court)

	if err := s.validator.Validate(court); err != nil {
		s.cfg.Log.Warn("Court validation failed",
			"name", court.Name,
			"club_email", court.ClubEmail,
			"error", err,
		)
		return apperrors.Validation("Court validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, court); err != nil {
		s.cfg.Log.Error("Failed to create court",
			"name", court.Name,
			"club_email", court.ClubEmail,
			"error", err,
		)
		return apperrors.Internal("Failed to create court", err)
	}

	s.cfg.Log.Info("Court created successfully",
		"id", court.ID,
		"name", court.Name,
		"sport", court.Sport,
		"club_email", court.ClubEmail,
	)
	return nil
}

func (s *courtService) GetByID(ctx context.Context, id string) (*model.Court, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Court ID cannot be empty")
	}

	court, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, courtserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Court", id)
		}
		if errors.Is(err, courtserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid court ID format")
		}
		s.cfg.Log.Error("Failed to get court by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve court", err)
	}

	return court, nil
}

func (s *courtService) GetByClub(ctx context.Context, clubEmail string) ([]*model.Court, error) {
	clubEmail = sanitizer.NormalizeEmail(clubEmail)
	if clubEmail == "" {
		return nil, apperrors.InvalidInput("Club email cannot be empty")
	}

	courts, err := s.repo.FindByClub(ctx, clubEmail)
	if err != nil {
		s.cfg.Log.Error("Failed to get courts by club",
			"club_email", clubEmail,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve club courts", err)
	}

	return courts, nil
}

func (s *courtService) GetAll(ctx context.Context, sport string, limit int, offset int64) ([]*model.Court, int64, error) {
	sport = sanitizer.TrimAndNormalize(sport)
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var courts []*model.Court
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, sport)
		if err != nil {
			s.cfg.Log.Error("Failed to count courts", "error", err)
			errCount = apperrors.Internal("Failed to count courts", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		courts, err = s.repo.FindAll(sharedCtx, sport, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all courts",
				"sport", sport,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve courts", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return courts, count, nil
}

func (s *courtService) Update(ctx context.Context, id string, updates *model.CourtUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Court ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, courtserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Court", id)
		}
		if errors.Is(err, courtserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid court ID format")
		}
		return apperrors.Internal("Failed to check court existence", err)
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeCourtUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Court validation failed",
			"id", id,
			"name", merged.Name,
			"error", err,
		)
		return apperrors.Validation("Court validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, s.buildUpdateDocument(merged)); err != nil {
		if errors.Is(err, courtserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Court", id)
		}
		s.cfg.Log.Error("Failed to update court",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update court", err)
	}

	s.cfg.Log.Info("Court updated successfully", "id", id, "name", merged.Name)
	return nil
}

func (s *courtService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Court ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, courtserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Court", id)
		}
		if errors.Is(err, courtserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid court ID format")
		}
		s.cfg.Log.Error("Failed to delete court",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete court", err)
	}

	s.cfg.Log.Info("Court deleted successfully", "id", id)
	return nil
}

func (s *courtService) sanitize(court *model.Court) {
	court.Name = sanitizer.NormalizeName(court.Name)
	court.Sport = sanitizer.TrimAndNormalize(court.Sport)
	court.ClubEmail = sanitizer.NormalizeEmail(court.ClubEmail)
	court.Weekdays = sanitizer.NormalizeWeekdays(court.Weekdays)
}

func (s *courtService) sanitizeUpdate(updates *model.CourtUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Sport != "" {
		updates.Sport = sanitizer.TrimAndNormalize(updates.Sport)
	}
	if updates.Weekdays != nil {
		normalized := sanitizer.NormalizeWeekdays(*updates.Weekdays)
		updates.Weekdays = &normalized
	}
}

func (s *courtService) applyDefaults(court *model.Court) {
	if court.SlotDuration == 0 {
		court.SlotDuration = s.cfg.SlotDurationMin
	}
}

func (s *courtService) mergeCourtUpdates(existing *model.Court, updates *model.CourtUpdate) *model.Court {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Sport != "" {
		merged.Sport = updates.Sport
	}
	if updates.BasePrice != nil {
		merged.BasePrice = *updates.BasePrice
	}
	if updates.OpenFrom != "" {
		merged.OpenFrom = updates.OpenFrom
	}
	if updates.OpenUntil != "" {
		merged.OpenUntil = updates.OpenUntil
	}
	if updates.Weekdays != nil {
		merged.Weekdays = *updates.Weekdays
	}
	if updates.SlotDuration != nil {
		merged.SlotDuration = *updates.SlotDuration
	}
	if updates.NightFromHour != nil {
		merged.NightFromHour = updates.NightFromHour
	}
	if updates.NightPrice != nil {
		merged.NightPrice = updates.NightPrice
	}

	merged.ID = existing.ID
	merged.ClubEmail = existing.ClubEmail
	return &merged
}

// buildUpdateDocument writes the merged court back field by field. Night
// pricing fields are included even when nil so an update can clear them.
func (s *courtService) buildUpdateDocument(merged *model.Court) bson.M {
	return bson.M{
		"nombre":          merged.Name,
		"deporte":         merged.Sport,
		"precio":          merged.BasePrice,
		"horaDesde":       merged.OpenFrom,
		"horaHasta":       merged.OpenUntil,
		"diasDisponibles": merged.Weekdays,
		"duracionTurno":   merged.SlotDuration,
		"nocturnoDesde":   merged.NightFromHour,
		"precioNocturno":  merged.NightPrice,
	}
}
