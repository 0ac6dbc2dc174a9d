package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	userserrors "turnolibre/internal/users/errors"
	"turnolibre/internal/users/validator"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
)

type fakeUserRepository struct {
	byEmail map[string]*model.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byEmail: map[string]*model.User{}}
}

func (f *fakeUserRepository) Create(ctx context.Context, user *model.User) error {
	user.ID = "507f1f77bcf86cd799439011"
	stored := *user
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, userserrors.ErrNotFound
}

func (f *fakeUserRepository) UpdateByEmail(ctx context.Context, email string, updates bson.M) error {
	u, ok := f.byEmail[email]
	if !ok {
		return userserrors.ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "nombre":
			u.Name = value.(string)
		case "apellido":
			u.LastName = value.(string)
		case "telefono":
			u.Phone = value.(string)
		}
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:          logger.New(logger.Config{Level: "error", Format: "json", Service: "test"}),
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

func testService(repo *fakeUserRepository) UserService {
	cfg := testConfig()
	return NewUserService(repo, validator.NewUserValidator(cfg.Log), cfg)
}

func TestCreate_NormalizesProfile(t *testing.T) {
	repo := newFakeUserRepository()
	svc := testService(repo)

	user := &model.User{
		Name:     "  bruno ",
		LastName: " díaz ",
		Email:    " Bruno@Example.COM ",
		Phone:    "011 5555-1234",
	}
	if err := svc.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if user.Email != "bruno@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Phone != "5491155551234" {
		t.Errorf("expected normalized phone, got %q", user.Phone)
	}
	if !user.Active {
		t.Error("expected user active on creation")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := testService(newFakeUserRepository())

	err := svc.Create(context.Background(), &model.User{Name: "Bruno"})
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	svc := testService(newFakeUserRepository())

	_, err := svc.GetByEmail(context.Background(), "nadie@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestUpdate_ChangesOnlyProvidedFields(t *testing.T) {
	repo := newFakeUserRepository()
	svc := testService(repo)

	_ = svc.Create(context.Background(), &model.User{
		Name:     "Bruno",
		LastName: "Díaz",
		Email:    "bruno@example.com",
		Phone:    "011 5555-1234",
	})

	if err := svc.Update(context.Background(), "bruno@example.com", &model.UserUpdate{Phone: "011 4444-9999"}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	stored, _ := repo.FindByEmail(context.Background(), "bruno@example.com")
	if stored.Phone != "5491144449999" {
		t.Errorf("expected updated phone, got %q", stored.Phone)
	}
	if stored.Name != "Bruno" {
		t.Errorf("expected name untouched, got %q", stored.Name)
	}
}

func TestUpdate_UnknownUser(t *testing.T) {
	svc := testService(newFakeUserRepository())

	err := svc.Update(context.Background(), "nadie@example.com", &model.UserUpdate{Name: "Alguien"})
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}
