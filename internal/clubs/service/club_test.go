package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	clubserrors "turnolibre/internal/clubs/errors"
	"turnolibre/internal/clubs/repository"
	"turnolibre/internal/clubs/validator"
	"turnolibre/pkg/client"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
	"turnolibre/pkg/sealer"
)

type fakeClubRepository struct {
	byEmail map[string]*model.Club
}

func newFakeClubRepository() *fakeClubRepository {
	return &fakeClubRepository{byEmail: map[string]*model.Club{}}
}

func (f *fakeClubRepository) Create(ctx context.Context, club *model.Club) error {
	club.ID = "507f1f77bcf86cd799439011"
	stored := *club
	f.byEmail[club.Email] = &stored
	return nil
}

func (f *fakeClubRepository) FindByEmail(ctx context.Context, email string) (*model.Club, error) {
	if c, ok := f.byEmail[email]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, clubserrors.ErrNotFound
}

func (f *fakeClubRepository) List(ctx context.Context, filter repository.ListFilter) ([]*model.Club, error) {
	var out []*model.Club
	for _, c := range f.byEmail {
		if filter.Province != "" && c.Province != filter.Province {
			continue
		}
		copy := *c
		out = append(out, &copy)
	}
	return out, nil
}

func (f *fakeClubRepository) UpdateByEmail(ctx context.Context, email string, updates bson.M) error {
	c, ok := f.byEmail[email]
	if !ok {
		return clubserrors.ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "nombre":
			c.Name = value.(string)
		case "telefono":
			c.Phone = value.(string)
		case "provincia":
			c.Province = value.(string)
		case "localidad":
			c.Locality = value.(string)
		case "mercadoPagoAccessToken":
			c.SealedMPToken = value.(string)
		case "destacado":
			c.Featured = value.(bool)
		case "destacadoHasta":
			if value == nil {
				c.FeaturedUntil = nil
			} else {
				t := value.(time.Time)
				c.FeaturedUntil = &t
			}
		case "idUltimaTransaccion":
			s := value.(string)
			c.LastPaymentID = &s
		}
	}
	return nil
}

func (f *fakeClubRepository) ExpireFeatured(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for _, c := range f.byEmail {
		if c.Featured && c.FeaturedUntil != nil && c.FeaturedUntil.Before(now) {
			c.Featured = false
			c.FeaturedUntil = nil
			count++
		}
	}
	return count, nil
}

type mockCheckout struct {
	CreatePreferenceFunc func(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error)
}

func (m *mockCheckout) CreatePreference(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error) {
	return m.CreatePreferenceFunc(ctx, accessToken, req)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var baseTime = time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

const testSealKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func testConfig() *config.Config {
	return &config.Config{
		Log:           logger.New(logger.Config{Level: "error", Format: "json", Service: "test"}),
		MPAccessToken: "platform-token",
		FeaturedDays:  30,
		FeaturedPrice: 4999,
		FrontURL:      "https://front.example.com",
	}
}

func testService(repo repository.ClubRepository, cfg *config.Config, checkout CheckoutClient) (ClubService, *sealer.Sealer) {
	sl, err := sealer.New(testSealKey)
	if err != nil {
		panic(err)
	}
	return NewClubService(repo, checkout, sl, validator.NewClubValidator(cfg.Log), cfg, fixedClock{t: baseTime}), sl
}

func seedClub(repo *fakeClubRepository) *model.Club {
	club := &model.Club{
		Name:     "Club Norte",
		Email:    "club@example.com",
		Phone:    "5491155551234",
		Province: "Buenos Aires",
		Locality: "La Plata",
		Active:   true,
	}
	_ = repo.Create(context.Background(), club)
	return club
}

func TestSetMPCredential_StoresSealedToken(t *testing.T) {
	repo := newFakeClubRepository()
	seedClub(repo)
	svc, sl := testService(repo, testConfig(), nil)

	if err := svc.SetMPCredential(context.Background(), "club@example.com", "APP_USR-secret"); err != nil {
		t.Fatalf("SetMPCredential() error: %v", err)
	}

	stored, _ := repo.FindByEmail(context.Background(), "club@example.com")
	if stored.SealedMPToken == "" || stored.SealedMPToken == "APP_USR-secret" {
		t.Fatalf("expected sealed token, got %q", stored.SealedMPToken)
	}
	opened, err := sl.Open(stored.SealedMPToken)
	if err != nil || opened != "APP_USR-secret" {
		t.Errorf("sealed token must round-trip, got %q (%v)", opened, err)
	}
}

func TestSetMPCredential_UnknownClub(t *testing.T) {
	repo := newFakeClubRepository()
	svc, _ := testService(repo, testConfig(), nil)

	err := svc.SetMPCredential(context.Background(), "nadie@example.com", "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestFeaturedCheckout_UsesPlatformCredential(t *testing.T) {
	repo := newFakeClubRepository()
	seedClub(repo)

	var gotToken, gotRef string
	var gotPrice float64
	checkout := &mockCheckout{
		CreatePreferenceFunc: func(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error) {
			gotToken = accessToken
			gotRef = req.ExternalReference
			gotPrice = req.Items[0].UnitPrice
			return &client.Preference{InitPoint: "https://mp.example.com/checkout/feat"}, nil
		},
	}
	svc, _ := testService(repo, testConfig(), checkout)

	url, err := svc.FeaturedCheckout(context.Background(), "club@example.com")
	if err != nil {
		t.Fatalf("FeaturedCheckout() error: %v", err)
	}
	if url != "https://mp.example.com/checkout/feat" {
		t.Errorf("unexpected checkout URL %q", url)
	}
	if gotToken != "platform-token" {
		t.Errorf("expected platform credential, got %q", gotToken)
	}
	if gotRef != "club@example.com" {
		t.Errorf("expected club email as external reference, got %q", gotRef)
	}
	if gotPrice != 4999 {
		t.Errorf("expected configured price, got %v", gotPrice)
	}
}

func TestFeaturedCheckout_NoPlatformCredential(t *testing.T) {
	repo := newFakeClubRepository()
	seedClub(repo)
	cfg := testConfig()
	cfg.MPAccessToken = ""
	svc, _ := testService(repo, cfg, nil)

	_, err := svc.FeaturedCheckout(context.Background(), "club@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestSetFeatured_ThirtyDayWindow(t *testing.T) {
	repo := newFakeClubRepository()
	seedClub(repo)
	svc, _ := testService(repo, testConfig(), nil)

	if err := svc.SetFeatured(context.Background(), "club@example.com", "12345"); err != nil {
		t.Fatalf("SetFeatured() error: %v", err)
	}

	stored, _ := repo.FindByEmail(context.Background(), "club@example.com")
	if !stored.Featured {
		t.Error("expected featured flag set")
	}
	want := baseTime.Add(30 * 24 * time.Hour)
	if stored.FeaturedUntil == nil || !stored.FeaturedUntil.Equal(want) {
		t.Errorf("expected featured until %v, got %v", want, stored.FeaturedUntil)
	}
	if stored.LastPaymentID == nil || *stored.LastPaymentID != "12345" {
		t.Errorf("expected payment audit id, got %v", stored.LastPaymentID)
	}
}

func TestExpireFeatured_ClearsOverdueWindow(t *testing.T) {
	repo := newFakeClubRepository()
	club := seedClub(repo)
	past := baseTime.Add(-time.Hour)
	repo.byEmail[club.Email].Featured = true
	repo.byEmail[club.Email].FeaturedUntil = &past

	svc, _ := testService(repo, testConfig(), nil)

	count, err := svc.ExpireFeatured(context.Background())
	if err != nil {
		t.Fatalf("ExpireFeatured() error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 cleared club, got %d", count)
	}

	stored, _ := repo.FindByEmail(context.Background(), club.Email)
	if stored.Featured || stored.FeaturedUntil != nil {
		t.Error("expected featured flag cleared")
	}
}
