package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"turnolibre/internal/migrations/mongo/validators"
)

var (
	CourtsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "clubEmail", Value: 1}}},
		{Keys: bson.D{{Key: "deporte", Value: 1}, {Key: "nombre", Value: 1}}},
	}

	// The natural-key index backs the upsert guard: one document per slot,
	// occupancy expressed through the nullable party fields.
	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "canchaId", Value: 1},
				{Key: "fecha", Value: 1},
				{Key: "hora", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "pagoId", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "emailReservado", Value: 1}}},
		{Keys: bson.D{{Key: "club", Value: 1}, {Key: "fecha", Value: 1}}},
	}

	// A slot can be confirmed at most once; pending and terminal holds stay
	// as history.
	HoldsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "canchaId", Value: 1},
				{Key: "fecha", Value: 1},
				{Key: "hora", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"estado": "CONFIRMED"}),
		},
		{Keys: bson.D{{Key: "estado", Value: 1}, {Key: "expiresAt", Value: 1}}},
		{Keys: bson.D{{Key: "emailContacto", Value: 1}, {Key: "createdAt", Value: -1}}},
	}

	ClubsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "provincia", Value: 1}, {Key: "localidad", Value: 1}}},
		{Keys: bson.D{{Key: "destacado", Value: 1}, {Key: "destacadoHasta", Value: 1}}},
	}

	PaymentEventsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "paymentId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running TurnoLibre Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"canchas": {
			Indexes:   CourtsIndexes,
			Validator: validators.CourtValidator,
		},
		"turnos": {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		"reservas": {
			Indexes:   HoldsIndexes,
			Validator: validators.HoldValidator,
		},
		"clubs": {
			Indexes:   ClubsIndexes,
			Validator: validators.ClubValidator,
		},
		"paymentevents": {
			Indexes:   PaymentEventsIndexes,
			Validator: validators.PaymentEventValidator,
		},
		"usuarios": {
			Indexes:   UsersIndexes,
			Validator: validators.UserValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
