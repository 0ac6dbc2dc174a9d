package bookings

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	bookingserrors "turnolibre/internal/bookings/errors"
	"turnolibre/internal/bookings/repository"
	"turnolibre/pkg/model"
	"turnolibre/test/integration/testutil"
)

const courtID = "507f1f77bcf86cd799439011"

func strPtr(s string) *string { return &s }

func newBooking(date, timeSlot, holder string) *model.Booking {
	return &model.Booking{
		Sport:       "padel",
		Date:        date,
		Time:        timeSlot,
		ClubEmail:   "club@example.com",
		CourtID:     courtID,
		Price:       3000,
		HolderName:  strPtr(holder),
		HolderEmail: strPtr(holder + "@example.com"),
	}
}

func TestUpsertReusesNaturalKeyDocument(t *testing.T) {
	helper := testutil.NewMongoHelper(t)
	defer helper.Close(t)
	helper.DropCollection(t, repository.CollectionName)

	repo := repository.NewMongoBookingRepository(helper.Config())
	ctx := context.Background()

	first := newBooking("2025-01-06", "10:00", "ana")
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert() error: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected stored document id on first upsert")
	}

	second := newBooking("2025-01-06", "10:00", "bruno")
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert() error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same document, got %s and %s", first.ID, second.ID)
	}

	count, err := helper.Database.Collection(repository.CollectionName).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments() error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single document per slot, got %d", count)
	}

	stored, err := repo.FindByNaturalKey(ctx, courtID, "2025-01-06", "10:00")
	if err != nil {
		t.Fatalf("FindByNaturalKey() error: %v", err)
	}
	if stored.HolderName == nil || *stored.HolderName != "bruno" {
		t.Errorf("expected the second holder to own the slot, got %v", stored.HolderName)
	}
}

func TestFindByNaturalKey_Missing(t *testing.T) {
	helper := testutil.NewMongoHelper(t)
	defer helper.Close(t)
	helper.DropCollection(t, repository.CollectionName)

	repo := repository.NewMongoBookingRepository(helper.Config())

	_, err := repo.FindByNaturalKey(context.Background(), courtID, "2025-01-06", "10:00")
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByClubChronological_MixedDateFormats(t *testing.T) {
	helper := testutil.NewMongoHelper(t)
	defer helper.Close(t)
	helper.DropCollection(t, repository.CollectionName)

	repo := repository.NewMongoBookingRepository(helper.Config())
	ctx := context.Background()

	// Documents written by earlier versions of the system carry DD/MM/YYYY.
	legacy := newBooking("05/01/2025", "10:00", "ana")
	middle := newBooking("2025-01-04", "09:00", "bruno")
	last := newBooking("2025-01-06", "11:00", "carla")
	for _, b := range []*model.Booking{legacy, middle, last} {
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	bookings, err := repo.FindByClubChronological(ctx, []string{"club@example.com"})
	if err != nil {
		t.Fatalf("FindByClubChronological() error: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(bookings))
	}

	got := []string{bookings[0].Date, bookings[1].Date, bookings[2].Date}
	want := []string{"2025-01-04", "05/01/2025", "2025-01-06"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chronological order mismatch: got %v, want %v", got, want)
		}
	}
}
