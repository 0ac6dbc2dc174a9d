package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"turnolibre/pkg/config"
	"turnolibre/pkg/model"
)

const (
	CollectionName = "paymentevents"
)

// ErrDuplicate means this payment id was already recorded; the delivery was
// processed before and must not be applied again.
var ErrDuplicate = errors.New("payment event already recorded")

type PaymentEventRepository interface {
	Record(ctx context.Context, paymentID string) error
}

type mongoPaymentEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPaymentEventRepository(cfg *config.Config) PaymentEventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentEventRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Record inserts the idempotency guard row. The unique index on paymentId
// turns concurrent deliveries of the same event into exactly one winner.
func (r *mongoPaymentEventRepository) Record(ctx context.Context, paymentID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, model.PaymentEvent{
		PaymentID:   paymentID,
		ProcessedAt: time.Now(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to record payment event: %w", err)
	}

	return nil
}
