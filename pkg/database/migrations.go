package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := m.db.Collection("schema_migrations").CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = m.db.Collection("schema_migrations").InsertOne(ctx, bson.M{
			"version":    0,
			"updated_at": time.Now(),
		})
	}

	return err
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("schema_migrations").FindOne(ctx, bson.M{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.db.Collection("schema_migrations").UpdateOne(
		ctx,
		bson.M{},
		bson.M{"$set": bson.M{"version": version, "updated_at": time.Now()}},
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create sos_signals collection with indexes",
			Up: func(db *mongo.Database) error {
				return createSignalIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("sos_signals").Drop(context.Background())
			},
		},
		{
			Version:     2,
			Description: "Create sos_responses collection with indexes",
			Up: func(db *mongo.Database) error {
				return createResponseIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("sos_responses").Drop(context.Background())
			},
		},
		{
			Version:     3,
			Description: "Create civilian_responders collection with indexes",
			Up: func(db *mongo.Database) error {
				return createResponderIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("civilian_responders").Drop(context.Background())
			},
		},
		{
			Version:     4,
			Description: "Create missing_persons collection with indexes",
			Up: func(db *mongo.Database) error {
				return createMissingPersonIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("missing_persons").Drop(context.Background())
			},
		},
	}
}

func createSignalIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("sos_signals")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createResponseIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("sos_responses")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sos_signal_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "responder_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createResponderIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("civilian_responders")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "verification_status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "available", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createMissingPersonIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("missing_persons")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "last_seen_location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "verification_status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
