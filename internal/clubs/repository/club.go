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

	clubserrors "turnolibre/internal/clubs/errors"
	"turnolibre/pkg/config"
	"turnolibre/pkg/model"
)

const (
	CollectionName = "clubs"
)

// ListFilter narrows the club listing. Empty fields match everything; Name
// is a case-insensitive substring match.
type ListFilter struct {
	Province string
	Locality string
	Name     string
}

type ClubRepository interface {
	Create(ctx context.Context, club *model.Club) error
	FindByEmail(ctx context.Context, email string) (*model.Club, error)
	List(ctx context.Context, filter ListFilter) ([]*model.Club, error)
	UpdateByEmail(ctx context.Context, email string, updates bson.M) error
	ExpireFeatured(ctx context.Context, now time.Time) (int64, error)
}

type mongoClubRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoClubRepository(cfg *config.Config) ClubRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClubRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
func (r *mongoClubRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoClubRepository) Create(ctx context.Context, club *model.Club) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, club)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("club with email %s already exists: %w", club.Email, err)
		}
		return fmt.Errorf("failed to create club: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		club.ID = oid.Hex()
	}
	return nil
}

func (r *mongoClubRepository) FindByEmail(ctx context.Context, email string) (*model.Club, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var club model.Club
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&club)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, clubserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find club: %w", err)
	}

	return &club, nil
}

// List sorts featured clubs first, then alphabetically.
func (r *mongoClubRepository) List(ctx context.Context, filter ListFilter) ([]*model.Club, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Province != "" {
		query["provincia"] = filter.Province
	}
	if filter.Locality != "" {
		query["localidad"] = filter.Locality
	}
	if filter.Name != "" {
		query["nombre"] = bson.M{"$regex": primitive.Regex{Pattern: filter.Name, Options: "i"}}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "destacado", Value: -1},
		{Key: "nombre", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer cursor.Close(ctx)

	var clubs []*model.Club
	if err = cursor.All(ctx, &clubs); err != nil {
		return nil, fmt.Errorf("failed to decode clubs: %w", err)
	}

	return clubs, nil
}

func (r *mongoClubRepository) UpdateByEmail(ctx context.Context, email string, updates bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}

	if result.MatchedCount == 0 {
		return clubserrors.ErrNotFound
	}

	return nil
}

// ExpireFeatured clears the featured flag on clubs whose promotion window
// has passed and reports how many were cleared.
func (r *mongoClubRepository) ExpireFeatured(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"destacado": true, "destacadoHasta": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"destacado": false, "destacadoHasta": nil}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire featured clubs: %w", err)
	}

	return result.ModifiedCount, nil
}
