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

	holdserrors "turnolibre/internal/holds/errors"
	"turnolibre/pkg/config"
	mongotx "turnolibre/pkg/db/mongo"
	"turnolibre/pkg/model"
)

const (
	CollectionName = "reservas"
)

type HoldRepository interface {
	Create(ctx context.Context, hold *model.Hold) error
	FindByID(ctx context.Context, id string) (*model.Hold, error)
	FindLatestPendingByEmail(ctx context.Context, email string) (*model.Hold, error)
	FindPendingByEmail(ctx context.Context, email string) ([]*model.Hold, error)
	Update(ctx context.Context, id string, updates bson.M) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoHoldRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoHoldRepository(cfg *config.Config) HoldRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHoldRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
func (r *mongoHoldRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, hold)
	if err != nil {
		return fmt.Errorf("failed to create hold: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		hold.ID = oid.Hex()
	}
	return nil
}

func (r *mongoHoldRepository) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	var hold model.Hold
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, holdserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hold: %w", err)
	}

	return &hold, nil
}

func (r *mongoHoldRepository) FindLatestPendingByEmail(ctx context.Context, email string) (*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var hold model.Hold
	err := r.collection.FindOne(ctx,
		bson.M{"emailContacto": email, "estado": model.HoldPending},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, holdserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pending hold: %w", err)
	}

	return &hold, nil
}

func (r *mongoHoldRepository) FindPendingByEmail(ctx context.Context, email string) ([]*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx,
		bson.M{"emailContacto": email, "estado": model.HoldPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending holds: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []*model.Hold
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode holds: %w", err)
	}

	return holds, nil
}

func (r *mongoHoldRepository) Update(ctx context.Context, id string, updates bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update hold: %w", err)
	}

	if result.MatchedCount == 0 {
		return holdserrors.ErrNotFound
	}

	return nil
}

// ExpireStale bulk-moves overdue PENDING holds to EXPIRED and reports how
// many transitioned.
func (r *mongoHoldRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"estado": model.HoldPending, "expiresAt": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"estado": model.HoldExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale holds: %w", err)
	}

	return result.ModifiedCount, nil
}

// ExecuteTransaction runs fn inside a Mongo transaction. Repository calls
// made with the session context join it instead of opening their own
// timeouts.
func (r *mongoHoldRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
