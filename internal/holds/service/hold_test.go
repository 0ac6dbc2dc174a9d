package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	holdserrors "turnolibre/internal/holds/errors"
	"turnolibre/internal/holds/validator"
	"turnolibre/pkg/config"
	mongotx "turnolibre/pkg/db/mongo"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
)

type fakeHoldRepository struct {
	byID         map[string]*model.Hold
	nextID       int
	transactions int
}

func newFakeHoldRepository() *fakeHoldRepository {
	return &fakeHoldRepository{byID: map[string]*model.Hold{}}
}

func (f *fakeHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	f.nextID++
	hold.ID = fakeObjectID(f.nextID)
	stored := *hold
	f.byID[hold.ID] = &stored
	return nil
}

func (f *fakeHoldRepository) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	if h, ok := f.byID[id]; ok {
		copy := *h
		return &copy, nil
	}
	return nil, holdserrors.ErrNotFound
}

func (f *fakeHoldRepository) FindLatestPendingByEmail(ctx context.Context, email string) (*model.Hold, error) {
	var latest *model.Hold
	for _, h := range f.byID {
		if h.ContactEmail != email || h.Status != model.HoldPending {
			continue
		}
		if latest == nil || h.CreatedAt.After(latest.CreatedAt) {
			latest = h
		}
	}
	if latest == nil {
		return nil, holdserrors.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

func (f *fakeHoldRepository) FindPendingByEmail(ctx context.Context, email string) ([]*model.Hold, error) {
	var out []*model.Hold
	for _, h := range f.byID {
		if h.ContactEmail == email && h.Status == model.HoldPending {
			copy := *h
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeHoldRepository) Update(ctx context.Context, id string, updates bson.M) error {
	h, ok := f.byID[id]
	if !ok {
		return holdserrors.ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "estado":
			h.Status = value.(string)
		case "codigoOTP":
			if value == nil {
				h.Code = nil
			} else {
				code := value.(string)
				h.Code = &code
			}
		case "expiresAt":
			h.ExpiresAt = value.(time.Time)
		}
	}
	return nil
}

func (f *fakeHoldRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	f.transactions++
	return fn(nil)
}

func (f *fakeHoldRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for _, h := range f.byID {
		if h.Status == model.HoldPending && h.ExpiresAt.Before(now) {
			h.Status = model.HoldExpired
			count++
		}
	}
	return count, nil
}

func fakeObjectID(n int) string {
	const hex = "0123456789abcdef"
	id := make([]byte, 24)
	for i := range id {
		id[i] = hex[0]
	}
	for i := 23; n > 0 && i >= 0; i-- {
		id[i] = hex[n%16]
		n /= 16
	}
	return string(id)
}

type mockCourtSource struct {
	GetByIDFunc func(ctx context.Context, id string) (*model.Court, error)
}

func (m *mockCourtSource) GetByID(ctx context.Context, id string) (*model.Court, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockPromoter struct {
	PromoteHoldFunc func(ctx context.Context, hold *model.Hold) (*model.Booking, error)
}

func (m *mockPromoter) PromoteHold(ctx context.Context, hold *model.Hold) (*model.Booking, error) {
	return m.PromoteHoldFunc(ctx, hold)
}

type channelMailer struct{ sent chan string }

func (m *channelMailer) Send(to, subject, htmlBody string) error {
	m.sent <- htmlBody
	return nil
}

type movableClock struct{ t time.Time }

func (c *movableClock) Now() time.Time { return c.t }

var baseTime = time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Log:      logger.New(logger.Config{Level: "error", Format: "json", Service: "test"}),
		HoldTTL:  10 * time.Minute,
		FrontURL: "https://front.example.com",
	}
}

func defaultCourts() *mockCourtSource {
	return &mockCourtSource{
		GetByIDFunc: func(ctx context.Context, id string) (*model.Court, error) {
			return &model.Court{ID: id, Name: "Cancha 1"}, nil
		},
	}
}

func holdRequest() *model.HoldRequest {
	return &model.HoldRequest{
		CourtID:      "507f1f77bcf86cd799439011",
		Date:         "2025-01-06",
		Time:         "18:00",
		ContactEmail: "ana@example.com",
	}
}

func TestCreate_GeneratesCodeAndExpiry(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, err := svc.Create(context.Background(), holdRequest())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if hold.Status != model.HoldPending {
		t.Errorf("expected PENDING, got %s", hold.Status)
	}
	if hold.Code == nil {
		t.Fatal("expected a confirmation code")
	}
	n, err := strconv.Atoi(*hold.Code)
	if err != nil || n < 100000 || n > 999999 {
		t.Errorf("expected 6-digit code in range, got %q", *hold.Code)
	}
	if !hold.ExpiresAt.Equal(baseTime.Add(10 * time.Minute)) {
		t.Errorf("expected expiry 10m from now, got %v", hold.ExpiresAt)
	}
}

func TestCreate_SendsConfirmationEmail(t *testing.T) {
	repo := newFakeHoldRepository()
	mailer := &channelMailer{sent: make(chan string, 1)}
	svc := NewHoldService(repo, defaultCourts(), nil, mailer,
		validator.NewHoldValidator(testConfig().Log), testConfig(), &movableClock{t: baseTime})

	hold, err := svc.Create(context.Background(), holdRequest())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	select {
	case body := <-mailer.sent:
		link := "https://front.example.com/reservas/confirmar?id=" + hold.ID
		if !strings.Contains(body, link) {
			t.Errorf("email body missing confirmation link, got %q", body)
		}
		if !strings.Contains(body, *hold.Code) {
			t.Error("email body missing code")
		}
	case <-time.After(time.Second):
		t.Fatal("expected confirmation email")
	}
}

func TestConfirm_PromotesToBooking(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	promoter := &mockPromoter{
		PromoteHoldFunc: func(ctx context.Context, hold *model.Hold) (*model.Booking, error) {
			return &model.Booking{ID: "b1", CourtID: hold.CourtID, Date: hold.Date, Time: hold.Time}, nil
		},
	}
	svc := NewHoldService(repo, defaultCourts(), promoter, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, _ := svc.Create(context.Background(), holdRequest())

	booking, err := svc.Confirm(context.Background(), hold.ID, *hold.Code)
	if err != nil {
		t.Fatalf("Confirm() error: %v", err)
	}
	if booking.ID != "b1" {
		t.Errorf("unexpected booking %v", booking)
	}

	stored, _ := repo.FindByID(context.Background(), hold.ID)
	if stored.Status != model.HoldConfirmed {
		t.Errorf("expected CONFIRMED, got %s", stored.Status)
	}
	if stored.Code != nil {
		t.Error("expected code cleared after confirmation")
	}
	if repo.transactions != 1 {
		t.Errorf("expected promotion to run in a transaction, got %d", repo.transactions)
	}
}

func TestConfirm_PromoteFailureLeavesHoldPending(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	promoter := &mockPromoter{
		PromoteHoldFunc: func(ctx context.Context, hold *model.Hold) (*model.Booking, error) {
			return nil, apperrors.Conflict("Slot is already reserved")
		},
	}
	svc := NewHoldService(repo, defaultCourts(), promoter, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, _ := svc.Create(context.Background(), holdRequest())

	_, err := svc.Confirm(context.Background(), hold.ID, *hold.Code)
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}

	stored, _ := repo.FindByID(context.Background(), hold.ID)
	if stored.Status != model.HoldPending || stored.Code == nil {
		t.Error("failed promotion must leave the hold pending with its code")
	}
}

func TestConfirm_AfterExpiryIsExpired(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, _ := svc.Create(context.Background(), holdRequest())

	clk.t = baseTime.Add(11 * time.Minute)
	_, err := svc.Confirm(context.Background(), hold.ID, *hold.Code)
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeExpired {
		t.Errorf("expected %s, got %s", apperrors.CodeExpired, appErr.Code)
	}

	stored, _ := repo.FindByID(context.Background(), hold.ID)
	if stored.Status != model.HoldExpired {
		t.Errorf("expected hold marked EXPIRED, got %s", stored.Status)
	}
}

func TestConfirm_WrongCodeMutatesNothing(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, _ := svc.Create(context.Background(), holdRequest())

	wrong := "000000"
	if wrong == *hold.Code {
		wrong = "000001"
	}
	_, err := svc.Confirm(context.Background(), hold.ID, wrong)
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidCode {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidCode, appErr.Code)
	}

	stored, _ := repo.FindByID(context.Background(), hold.ID)
	if stored.Status != model.HoldPending || stored.Code == nil || *stored.Code != *hold.Code {
		t.Error("wrong code must not mutate the hold")
	}
}

func TestConfirm_CancelledHoldIsInvalidState(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, _ := svc.Create(context.Background(), holdRequest())
	if err := svc.Cancel(context.Background(), hold.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	_, err := svc.Confirm(context.Background(), hold.ID, *hold.Code)
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidState {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidState, appErr.Code)
	}
}

func TestConfirm_UnknownHoldIsNotFound(t *testing.T) {
	repo := newFakeHoldRepository()
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), &movableClock{t: baseTime})

	_, err := svc.Confirm(context.Background(), fakeObjectID(99), "123456")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestResend_RegeneratesCodeAndExpiry(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, _ := svc.Create(context.Background(), holdRequest())
	originalCode := *hold.Code

	clk.t = baseTime.Add(5 * time.Minute)
	resent, err := svc.Resend(context.Background(), &model.ResendRequest{ID: hold.ID})
	if err != nil {
		t.Fatalf("Resend() error: %v", err)
	}
	if !resent.ExpiresAt.Equal(clk.t.Add(10 * time.Minute)) {
		t.Errorf("expected refreshed expiry, got %v", resent.ExpiresAt)
	}

	stored, _ := repo.FindByID(context.Background(), hold.ID)
	if stored.Code == nil {
		t.Fatal("expected a code after resend")
	}
	// A fresh draw can rarely collide with the old code; the expiry check
	// above is the deterministic part.
	_ = originalCode
}

func TestResend_AfterExpiryIsExpired(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	hold, _ := svc.Create(context.Background(), holdRequest())
	originalCode := *hold.Code

	clk.t = baseTime.Add(11 * time.Minute)
	_, err := svc.Resend(context.Background(), &model.ResendRequest{ID: hold.ID})
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeExpired {
		t.Errorf("expected %s, got %s", apperrors.CodeExpired, appErr.Code)
	}

	stored, _ := repo.FindByID(context.Background(), hold.ID)
	if stored.Status != model.HoldExpired {
		t.Errorf("expected hold marked EXPIRED, got %s", stored.Status)
	}
	if stored.Code == nil || *stored.Code != originalCode {
		t.Error("expired hold must not receive a fresh code")
	}
	if !stored.ExpiresAt.Equal(baseTime.Add(10 * time.Minute)) {
		t.Errorf("expired hold must keep its original expiry, got %v", stored.ExpiresAt)
	}
}

func TestResend_ByEmailPicksMostRecentPending(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	first, _ := svc.Create(context.Background(), holdRequest())
	clk.t = baseTime.Add(time.Minute)
	second, _ := svc.Create(context.Background(), holdRequest())

	resent, err := svc.Resend(context.Background(), &model.ResendRequest{Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Resend() error: %v", err)
	}
	if resent.ID != second.ID {
		t.Errorf("expected most recent hold %s, got %s", second.ID, resent.ID)
	}
	_ = first
}

func TestResend_NoPendingHoldIsNotFound(t *testing.T) {
	repo := newFakeHoldRepository()
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), &movableClock{t: baseTime})

	_, err := svc.Resend(context.Background(), &model.ResendRequest{Email: "nadie@example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestExpireStale_BulkTransition(t *testing.T) {
	repo := newFakeHoldRepository()
	clk := &movableClock{t: baseTime}
	svc := NewHoldService(repo, defaultCourts(), nil, nil,
		validator.NewHoldValidator(testConfig().Log), testConfig(), clk)

	stale, _ := svc.Create(context.Background(), holdRequest())
	clk.t = baseTime.Add(9 * time.Minute)
	fresh, _ := svc.Create(context.Background(), holdRequest())

	clk.t = baseTime.Add(12 * time.Minute)
	count, err := svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("ExpireStale() error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 expired hold, got %d", count)
	}

	staleStored, _ := repo.FindByID(context.Background(), stale.ID)
	if staleStored.Status != model.HoldExpired {
		t.Errorf("expected stale hold EXPIRED, got %s", staleStored.Status)
	}
	freshStored, _ := repo.FindByID(context.Background(), fresh.ID)
	if freshStored.Status != model.HoldPending {
		t.Errorf("expected fresh hold still PENDING, got %s", freshStored.Status)
	}
}
