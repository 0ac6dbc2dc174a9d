package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "turnolibre/internal/bookings/errors"
	"turnolibre/pkg/config"
	"turnolibre/pkg/model"
)

const (
	CollectionName = "turnos"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByNaturalKey(ctx context.Context, courtID, date, timeSlot string) (*model.Booking, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*model.Booking, error)
	FindByHolderEmail(ctx context.Context, email string) ([]*model.Booking, error)
	FindByClubChronological(ctx context.Context, clubIdentities []string) ([]*model.Booking, error)
	FindByDateRange(ctx context.Context, from, to string) ([]*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, booking *model.Booking) error
	Update(ctx context.Context, id string, updates bson.M) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrSlotTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByNaturalKey(ctx context.Context, courtID, date, timeSlot string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{
		"canchaId": courtID,
		"fecha":    date,
		"hora":     timeSlot,
	}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by slot: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByPaymentID(ctx context.Context, paymentID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"pagoId": paymentID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by payment ID: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByHolderEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"emailReservado": email},
		options.Find().SetSort(bson.D{{Key: "fecha", Value: 1}, {Key: "hora", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings by email: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// FindByClubChronological sorts server-side. Legacy documents may still carry
// DD/MM/YYYY dates, so the pipeline rewrites those to ISO for the sort key
// only; stored documents are returned untouched.
func (r *mongoBookingRepository) FindByClubChronological(ctx context.Context, clubIdentities []string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"club": bson.M{"$in": clubIdentities}}}},
		{{Key: "$addFields", Value: bson.M{
			"fechaOrden": bson.M{"$cond": bson.A{
				bson.M{"$regexMatch": bson.M{"input": "$fecha", "regex": `^\d{2}/\d{2}/\d{4}$`}},
				bson.M{"$concat": bson.A{
					bson.M{"$substrCP": bson.A{"$fecha", 6, 4}}, "-",
					bson.M{"$substrCP": bson.A{"$fecha", 3, 2}}, "-",
					bson.M{"$substrCP": bson.A{"$fecha", 0, 2}},
				}},
				"$fecha",
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "fechaOrden", Value: 1}, {Key: "hora", Value: 1}}}},
		{{Key: "$project", Value: bson.M{"fechaOrden": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate club bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode club bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindByDateRange(ctx context.Context, from, to string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{
		"fecha": bson.M{"$gte": from, "$lte": to},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings by date range: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "fecha", Value: -1}, {Key: "hora", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

// Upsert writes the booking keyed on (canchaId, fecha, hora) and fills in
// the document id, whether freshly inserted or already present.
func (r *mongoBookingRepository) Upsert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"canchaId": booking.CourtID,
		"fecha":    booking.Date,
		"hora":     booking.Time,
	}
	update := bson.M{"$set": bson.M{
		"deporte":           booking.Sport,
		"club":              booking.ClubEmail,
		"precio":            booking.Price,
		"usuarioReservado":  booking.HolderName,
		"emailReservado":    booking.HolderEmail,
		"telefonoReservado": booking.HolderPhone,
		"usuarioId":         booking.UserID,
		"pagado":            booking.Paid,
		"pagoId":            booking.PaymentID,
		"pagoMetodo":        booking.PaymentKind,
		"fechaPago":         booking.PaidAt,
	}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.Booking
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrSlotTaken
		}
		return fmt.Errorf("failed to upsert booking: %w", err)
	}

	booking.ID = stored.ID
	return nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, id string, updates bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}
