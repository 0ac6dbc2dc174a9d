package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	bookingserrors "turnolibre/internal/bookings/errors"
	"turnolibre/internal/bookings/validator"
	"turnolibre/pkg/client"
	"turnolibre/pkg/config"
	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/kafka"
	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
)

// fakeBookingRepository keeps bookings in memory keyed on the same natural
// key the unique index enforces, so upsert semantics match production.
type fakeBookingRepository struct {
	byKey  map[string]*model.Booking
	nextID int
}

func newFakeBookingRepository() *fakeBookingRepository {
	return &fakeBookingRepository{byKey: map[string]*model.Booking{}, nextID: 0}
}

func naturalKey(courtID, date, timeSlot string) string {
	return courtID + "|" + date + "|" + timeSlot
}

func (f *fakeBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	return f.Upsert(ctx, b)
}

func (f *fakeBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	for _, b := range f.byKey {
		if b.ID == id {
			copy := *b
			return &copy, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (f *fakeBookingRepository) FindByNaturalKey(ctx context.Context, courtID, date, timeSlot string) (*model.Booking, error) {
	if b, ok := f.byKey[naturalKey(courtID, date, timeSlot)]; ok {
		copy := *b
		return &copy, nil
	}
	return nil, bookingserrors.ErrNotFound
}

func (f *fakeBookingRepository) FindByPaymentID(ctx context.Context, paymentID string) (*model.Booking, error) {
	for _, b := range f.byKey {
		if b.PaymentID != nil && *b.PaymentID == paymentID {
			copy := *b
			return &copy, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (f *fakeBookingRepository) FindByHolderEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range f.byKey {
		if b.HolderEmail != nil && *b.HolderEmail == email {
			copy := *b
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeBookingRepository) FindByClubChronological(ctx context.Context, identities []string) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range f.byKey {
		for _, id := range identities {
			if b.ClubEmail == id {
				copy := *b
				out = append(out, &copy)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeBookingRepository) FindByDateRange(ctx context.Context, from, to string) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range f.byKey {
		if b.Date >= from && b.Date <= to {
			copy := *b
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range f.byKey {
		copy := *b
		out = append(out, &copy)
	}
	return out, nil
}

func (f *fakeBookingRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(f.byKey)), nil
}

func (f *fakeBookingRepository) Upsert(ctx context.Context, b *model.Booking) error {
	key := naturalKey(b.CourtID, b.Date, b.Time)
	if existing, ok := f.byKey[key]; ok {
		b.ID = existing.ID
	} else {
		f.nextID++
		b.ID = objectIDHex(f.nextID)
	}
	stored := *b
	f.byKey[key] = &stored
	return nil
}

func (f *fakeBookingRepository) Update(ctx context.Context, id string, updates bson.M) error {
	for _, b := range f.byKey {
		if b.ID != id {
			continue
		}
		applyUpdates(b, updates)
		return nil
	}
	return bookingserrors.ErrNotFound
}

func applyUpdates(b *model.Booking, updates bson.M) {
	for field, value := range updates {
		switch field {
		case "usuarioReservado":
			b.HolderName = stringOrNil(value)
		case "emailReservado":
			b.HolderEmail = stringOrNil(value)
		case "telefonoReservado":
			b.HolderPhone = stringOrNil(value)
		case "usuarioId":
			b.UserID = stringOrNil(value)
		case "pagado":
			b.Paid = value.(bool)
		case "pagoId":
			b.PaymentID = stringOrNil(value)
		case "pagoMetodo":
			b.PaymentKind = stringOrNil(value)
		case "fechaPago":
			if t, ok := value.(time.Time); ok {
				b.PaidAt = &t
			}
		case "precio":
			b.Price = value.(float64)
		}
	}
}

func stringOrNil(value any) *string {
	if value == nil {
		return nil
	}
	s := value.(string)
	return &s
}

// objectIDHex builds a deterministic 24-char hex id for fakes.
func objectIDHex(n int) string {
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

type mockClubSource struct {
	GetByEmailFunc func(ctx context.Context, email string) (*model.Club, error)
}

func (m *mockClubSource) GetByEmail(ctx context.Context, email string) (*model.Club, error) {
	return m.GetByEmailFunc(ctx, email)
}

type mockCheckout struct {
	CreatePreferenceFunc func(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error)
}

func (m *mockCheckout) CreatePreference(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error) {
	return m.CreatePreferenceFunc(ctx, accessToken, req)
}

type capturingPublisher struct{ messages []kafka.Message }

func (p *capturingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

type passthroughSealer struct{}

func (passthroughSealer) Open(sealed string) (string, error) { return sealed, nil }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testConfig() *config.Config {
	return &config.Config{
		Log:                logger.New(logger.Config{Level: "error", Format: "json", Service: "test"}),
		ReadTimeout:        time.Second,
		WriteTimeout:       time.Second,
		SlotConflictPolicy: config.ConflictPolicyOverwrite,
		FrontURL:           "https://front.example.com",
	}
}

func nightCourt() *model.Court {
	from := 20
	night := 5000.0
	return &model.Court{
		ID:            "507f1f77bcf86cd799439011",
		Name:          "Cancha 1",
		Sport:         "padel",
		BasePrice:     3000,
		OpenFrom:      "08:00",
		OpenUntil:     "23:00",
		ClubEmail:     "club@example.com",
		NightFromHour: &from,
		NightPrice:    &night,
	}
}

func testService(repo *fakeBookingRepository, cfg *config.Config, court *model.Court, club *model.Club, checkout CheckoutClient) BookingService {
	courts := &mockCourtSource{
		GetByIDFunc: func(ctx context.Context, id string) (*model.Court, error) {
			if court == nil || id != court.ID {
				return nil, apperrors.NotFoundWithID("Court", id)
			}
			return court, nil
		},
	}
	clubs := &mockClubSource{
		GetByEmailFunc: func(ctx context.Context, email string) (*model.Club, error) {
			if club == nil || email != club.Email {
				return nil, apperrors.NotFoundWithID("Club", email)
			}
			return club, nil
		},
	}
	return NewBookingService(
		repo, courts, clubs, nil, nil, checkout, passthroughSealer{},
		kafka.NoopPublisher{},
		validator.NewBookingValidator(cfg.Log),
		cfg,
		fixedClock{t: time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)},
	)
}

func reserveRequest() *model.ReserveRequest {
	return &model.ReserveRequest{
		CourtID:     "507f1f77bcf86cd799439011",
		Date:        "2025-01-06",
		Time:        "10:00",
		HolderName:  "Ana García",
		HolderEmail: "ana@example.com",
	}
}

func TestReserve_ComputesAuthoritativePrice(t *testing.T) {
	repo := newFakeBookingRepository()
	svc := testService(repo, testConfig(), nightCourt(), nil, nil)

	result, err := svc.Reserve(context.Background(), reserveRequest())
	if err != nil {
		t.Fatalf("Reserve() error: %v", err)
	}
	if result.Booking.Price != 3000 {
		t.Errorf("expected base price 3000, got %v", result.Booking.Price)
	}

	night := reserveRequest()
	night.Time = "21:00"
	result, err = svc.Reserve(context.Background(), night)
	if err != nil {
		t.Fatalf("Reserve() error: %v", err)
	}
	if result.Booking.Price != 5000 {
		t.Errorf("expected night price 5000, got %v", result.Booking.Price)
	}
}

func TestReserve_SecondReserveOverwritesSameRow(t *testing.T) {
	repo := newFakeBookingRepository()
	svc := testService(repo, testConfig(), nightCourt(), nil, nil)

	first, err := svc.Reserve(context.Background(), reserveRequest())
	if err != nil {
		t.Fatalf("first Reserve() error: %v", err)
	}

	second := reserveRequest()
	second.HolderName = "Bruno Díaz"
	second.HolderEmail = "bruno@example.com"
	result, err := svc.Reserve(context.Background(), second)
	if err != nil {
		t.Fatalf("second Reserve() error: %v", err)
	}

	if count, _ := repo.Count(context.Background()); count != 1 {
		t.Fatalf("expected one booking document, got %d", count)
	}
	if result.Booking.ID != first.Booking.ID {
		t.Errorf("expected overwrite to keep the same document id")
	}
	stored, _ := repo.FindByID(context.Background(), result.Booking.ID)
	if stored.HolderEmail == nil || *stored.HolderEmail != "bruno@example.com" {
		t.Errorf("expected second party to own the slot, got %v", stored.HolderEmail)
	}
}

func TestReserve_RejectPolicyConflicts(t *testing.T) {
	cfg := testConfig()
	cfg.SlotConflictPolicy = config.ConflictPolicyReject
	repo := newFakeBookingRepository()
	svc := testService(repo, cfg, nightCourt(), nil, nil)

	if _, err := svc.Reserve(context.Background(), reserveRequest()); err != nil {
		t.Fatalf("first Reserve() error: %v", err)
	}

	_, err := svc.Reserve(context.Background(), reserveRequest())
	if err == nil {
		t.Fatal("expected conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestReserve_RejectPolicyAllowsVacantRow(t *testing.T) {
	cfg := testConfig()
	cfg.SlotConflictPolicy = config.ConflictPolicyReject
	repo := newFakeBookingRepository()
	svc := testService(repo, cfg, nightCourt(), nil, nil)

	first, err := svc.Reserve(context.Background(), reserveRequest())
	if err != nil {
		t.Fatalf("Reserve() error: %v", err)
	}
	if err := svc.Cancel(context.Background(), first.Booking.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	// The vacated document still exists; rebooking must succeed.
	if _, err := svc.Reserve(context.Background(), reserveRequest()); err != nil {
		t.Fatalf("rebooking vacant slot should succeed: %v", err)
	}
}

func TestReserve_OnlineWithoutCredentialConflicts(t *testing.T) {
	repo := newFakeBookingRepository()
	club := &model.Club{Email: "club@example.com", Name: "Club Norte"}
	svc := testService(repo, testConfig(), nightCourt(), club, nil)

	req := reserveRequest()
	req.PaymentMethod = model.PaymentMethodOnline
	_, err := svc.Reserve(context.Background(), req)
	if err == nil {
		t.Fatal("expected conflict for club without credential")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestReserve_OnlineReturnsCheckoutLink(t *testing.T) {
	repo := newFakeBookingRepository()
	club := &model.Club{Email: "club@example.com", Name: "Club Norte", SealedMPToken: "club-token"}
	var gotToken, gotRef string
	checkout := &mockCheckout{
		CreatePreferenceFunc: func(ctx context.Context, accessToken string, req *client.PreferenceRequest) (*client.Preference, error) {
			gotToken = accessToken
			gotRef = req.ExternalReference
			return &client.Preference{ID: "pref-1", InitPoint: "https://mp.example.com/checkout/pref-1"}, nil
		},
	}
	svc := testService(repo, testConfig(), nightCourt(), club, checkout)

	req := reserveRequest()
	req.PaymentMethod = model.PaymentMethodOnline
	result, err := svc.Reserve(context.Background(), req)
	if err != nil {
		t.Fatalf("Reserve() error: %v", err)
	}
	if result.CheckoutURL != "https://mp.example.com/checkout/pref-1" {
		t.Errorf("unexpected checkout URL %q", result.CheckoutURL)
	}
	if gotToken != "club-token" {
		t.Errorf("expected the club credential to be used, got %q", gotToken)
	}
	if gotRef != result.Booking.ID {
		t.Errorf("expected external reference %q, got %q", result.Booking.ID, gotRef)
	}
}

func TestReserve_UnknownCourt(t *testing.T) {
	repo := newFakeBookingRepository()
	svc := testService(repo, testConfig(), nil, nil, nil)

	_, err := svc.Reserve(context.Background(), reserveRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestCancel_NullsPartyFieldsAndKeepsRow(t *testing.T) {
	repo := newFakeBookingRepository()
	svc := testService(repo, testConfig(), nightCourt(), nil, nil)

	result, err := svc.Reserve(context.Background(), reserveRequest())
	if err != nil {
		t.Fatalf("Reserve() error: %v", err)
	}

	if err := svc.Cancel(context.Background(), result.Booking.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	stored, err := repo.FindByID(context.Background(), result.Booking.ID)
	if err != nil {
		t.Fatal("cancelled booking document must survive")
	}
	if stored.Occupied() {
		t.Error("expected party fields nulled")
	}
	if stored.Paid {
		t.Error("expected paid flag cleared")
	}
}

func TestCancel_VacantBookingIsInvalidState(t *testing.T) {
	repo := newFakeBookingRepository()
	svc := testService(repo, testConfig(), nightCourt(), nil, nil)

	result, _ := svc.Reserve(context.Background(), reserveRequest())
	if err := svc.Cancel(context.Background(), result.Booking.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	err := svc.Cancel(context.Background(), result.Booking.ID)
	if err == nil {
		t.Fatal("expected error cancelling a vacant booking")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidState {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidState, appErr.Code)
	}
}

func TestRecordPayment_StampsOnce(t *testing.T) {
	repo := newFakeBookingRepository()
	svc := testService(repo, testConfig(), nightCourt(), nil, nil)

	result, _ := svc.Reserve(context.Background(), reserveRequest())
	firstPaidAt := time.Date(2025, 1, 6, 13, 0, 0, 0, time.UTC)

	stamped, err := svc.RecordPayment(context.Background(), result.Booking.ID, "12345", "credit_card", firstPaidAt)
	if err != nil {
		t.Fatalf("RecordPayment() error: %v", err)
	}
	if !stamped {
		t.Fatal("first delivery must stamp the payment")
	}

	// Retried delivery: audit fields must not move.
	stamped, err = svc.RecordPayment(context.Background(), result.Booking.ID, "12345", "credit_card",
		firstPaidAt.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("RecordPayment() retry error: %v", err)
	}
	if stamped {
		t.Error("retried delivery must be a no-op")
	}

	stored, _ := repo.FindByID(context.Background(), result.Booking.ID)
	if !stored.Paid || stored.PaidAt == nil || !stored.PaidAt.Equal(firstPaidAt) {
		t.Errorf("expected fechaPago frozen at first delivery, got %v", stored.PaidAt)
	}
}

func TestRecordPayment_PublishesStampedSnapshot(t *testing.T) {
	repo := newFakeBookingRepository()
	cfg := testConfig()
	court := nightCourt()
	publisher := &capturingPublisher{}
	courts := &mockCourtSource{
		GetByIDFunc: func(ctx context.Context, id string) (*model.Court, error) {
			return court, nil
		},
	}
	clubs := &mockClubSource{
		GetByEmailFunc: func(ctx context.Context, email string) (*model.Club, error) {
			return nil, apperrors.NotFoundWithID("Club", email)
		},
	}
	svc := NewBookingService(
		repo, courts, clubs, nil, nil, nil, passthroughSealer{},
		publisher,
		validator.NewBookingValidator(cfg.Log),
		cfg,
		fixedClock{t: time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)},
	)

	result, err := svc.Reserve(context.Background(), reserveRequest())
	if err != nil {
		t.Fatalf("Reserve() error: %v", err)
	}

	paidAt := time.Date(2025, 1, 6, 13, 0, 0, 0, time.UTC)
	if _, err := svc.RecordPayment(context.Background(), result.Booking.ID, "12345", "credit_card", paidAt); err != nil {
		t.Fatalf("RecordPayment() error: %v", err)
	}

	var paid *kafka.Message
	for i := range publisher.messages {
		if publisher.messages[i].Headers[kafka.HeaderEventType] == kafka.EventBookingPaid {
			paid = &publisher.messages[i]
		}
	}
	if paid == nil {
		t.Fatal("expected a booking.paid event")
	}

	var payload model.Booking
	if err := paid.DecodeValue(&payload); err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	if !payload.Paid {
		t.Error("published booking must be marked paid")
	}
	if payload.PaymentID == nil || *payload.PaymentID != "12345" {
		t.Errorf("expected pagoId 12345 on the event, got %v", payload.PaymentID)
	}
	if payload.PaymentKind == nil || *payload.PaymentKind != "credit_card" {
		t.Errorf("expected pagoMetodo credit_card on the event, got %v", payload.PaymentKind)
	}
	if payload.PaidAt == nil || !payload.PaidAt.Equal(paidAt) {
		t.Errorf("expected fechaPago %v on the event, got %v", paidAt, payload.PaidAt)
	}
}

func TestPromoteHold_UsesLiveCourtConfig(t *testing.T) {
	repo := newFakeBookingRepository()
	svc := testService(repo, testConfig(), nightCourt(), nil, nil)

	hold := &model.Hold{
		ID:           "507f1f77bcf86cd799439022",
		CourtID:      "507f1f77bcf86cd799439011",
		Date:         "2025-01-06",
		Time:         "21:00",
		Status:       model.HoldConfirmed,
		ContactEmail: "ana@example.com",
	}

	booking, err := svc.PromoteHold(context.Background(), hold)
	if err != nil {
		t.Fatalf("PromoteHold() error: %v", err)
	}
	if booking.Price != 5000 {
		t.Errorf("expected night price from court config, got %v", booking.Price)
	}
	if booking.HolderEmail == nil || *booking.HolderEmail != "ana@example.com" {
		t.Errorf("expected hold contact as holder, got %v", booking.HolderEmail)
	}
	if !booking.Occupied() {
		t.Error("promoted booking must occupy the slot")
	}
}

func TestClubView_MatchesEmailAndLegacyName(t *testing.T) {
	repo := newFakeBookingRepository()
	club := &model.Club{Email: "club@example.com", Name: "Club Norte"}
	svc := testService(repo, testConfig(), nightCourt(), club, nil)

	if _, err := svc.Reserve(context.Background(), reserveRequest()); err != nil {
		t.Fatalf("Reserve() error: %v", err)
	}
	// Legacy document carrying the display name instead of the email.
	legacy := &model.Booking{
		Sport:     "padel",
		Date:      "2025-01-07",
		Time:      "09:00",
		ClubEmail: "Club Norte",
		CourtID:   "507f1f77bcf86cd799439011",
		Price:     3000,
	}
	if err := repo.Upsert(context.Background(), legacy); err != nil {
		t.Fatalf("seed legacy booking: %v", err)
	}

	bookings, err := svc.ClubView(context.Background(), "club@example.com")
	if err != nil {
		t.Fatalf("ClubView() error: %v", err)
	}
	if len(bookings) != 2 {
		t.Errorf("expected both identities matched, got %d bookings", len(bookings))
	}
}
