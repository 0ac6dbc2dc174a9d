package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	userserrors "turnolibre/internal/users/errors"
	"turnolibre/internal/users/repository"
	"turnolibre/internal/users/validator"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/model"
	"turnolibre/pkg/sanitizer"
)

type UserService interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, email string, updates *model.UserUpdate) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(repo repository.UserRepository, validator *validator.UserValidator, cfg *config.Config) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *userService) Create(ctx context.Context, user *model.User) error {
	s.sanitize(user)
	user.Active = true

	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed",
			"email", user.Email,
			"error", err,
		)
		return apperrors.Validation("User validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.cfg.Log.Error("Failed to create user",
			"email", user.Email,
			"error", err,
		)
		return apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User created successfully",
		"id", user.ID,
		"email", user.Email,
	)
	return nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("User email cannot be empty")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", email)
		}
		s.cfg.Log.Error("Failed to get user by email", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) Update(ctx context.Context, email string, updates *model.UserUpdate) error {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("User email cannot be empty")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("User update validation failed", "email", email, "error", err)
		return apperrors.Validation("User update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	doc := bson.M{}
	if updates.Name != "" {
		doc["nombre"] = updates.Name
	}
	if updates.LastName != "" {
		doc["apellido"] = updates.LastName
	}
	if updates.Phone != "" {
		doc["telefono"] = updates.Phone
	}
	if len(doc) == 0 {
		return nil
	}

	if err := s.repo.UpdateByEmail(ctx, email, doc); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("User", email)
		}
		s.cfg.Log.Error("Failed to update user", "email", email, "error", err)
		return apperrors.Internal("Failed to update user", err)
	}

	s.cfg.Log.Info("User updated successfully", "email", email)
	return nil
}

func (s *userService) sanitize(user *model.User) {
	user.Name = sanitizer.NormalizeName(user.Name)
	user.LastName = sanitizer.NormalizeName(user.LastName)
	user.Email = sanitizer.NormalizeEmail(user.Email)
	user.Phone = sanitizer.NormalizePhone(user.Phone)
}

func (s *userService) sanitizeUpdate(updates *model.UserUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.LastName != "" {
		updates.LastName = sanitizer.NormalizeName(updates.LastName)
	}
	if updates.Phone != "" {
		updates.Phone = sanitizer.NormalizePhone(updates.Phone)
	}
}
