package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"turnolibre/pkg/client"
	"turnolibre/pkg/config"
	"turnolibre/pkg/logger"
)

const (
	EnvMongoURI       = "TEST_MONGO_URI"
	DatabaseName      = "turnolibre_test"
	ConnectionTimeout = 10 * time.Second
)

// MongoHelper provides MongoDB test utilities. Tests using it are skipped
// unless TEST_MONGO_URI points at a reachable instance.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

// NewMongoHelper connects to the test MongoDB or skips the test.
func NewMongoHelper(t *testing.T) *MongoHelper {
	t.Helper()

	mongoURI := os.Getenv(EnvMongoURI)
	if mongoURI == "" {
		t.Skipf("%s not set, skipping integration test", EnvMongoURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   mongoClient,
		Database: mongoClient.Database(DatabaseName),
		DBName:   DatabaseName,
	}
}

// Config builds a service configuration bound to the test database.
func (m *MongoHelper) Config() *config.Config {
	return &config.Config{
		MongoDatabaseName: m.DBName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               logger.New(logger.Config{Level: "error", Format: "json", Service: "integration-test"}),
		Client:            &client.Client{Mongo: m.Client},
	}
}

// Close closes the MongoDB connection.
func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// DropCollection removes a collection so each test starts clean.
func (m *MongoHelper) DropCollection(t *testing.T, name string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Database.Collection(name).Drop(ctx); err != nil {
		t.Fatalf("failed to drop collection %s: %v", name, err)
	}
}
