// Package mongo stores household snapshots in a MongoDB collection, one
// document per household.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ledger/internal/core"
)

const collectionName = "household_state"

// stateDoc mirrors the shared snapshot row other clients read and write.
// The snapshot itself travels as a JSON string so every writer produces the
// same shape regardless of its BSON mapping.
type stateDoc struct {
	HouseholdID string    `bson:"_id"`
	Data        string    `bson:"data"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type SnapshotStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials MongoDB and verifies the connection before returning a
// store bound to the household_state collection.
func Connect(ctx context.Context, uri, database string) (*SnapshotStore, error) {
	slog.DebugContext(ctx, "Connecting to MongoDB", "database", database)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &SnapshotStore{
		client:     client,
		collection: client.Database(database).Collection(collectionName),
	}, nil
}

func (s *SnapshotStore) Fetch(ctx context.Context, householdID string) (*core.SnapshotPatch, error) {
	var doc stateDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": householdID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch household state: %w", err)
	}
	patch, err := core.DecodeSnapshotPatch([]byte(doc.Data))
	if err != nil {
		return nil, fmt.Errorf("decode household state: %w", err)
	}
	return &patch, nil
}

func (s *SnapshotStore) Upsert(ctx context.Context, householdID string, snap core.Snapshot, at time.Time) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	doc := stateDoc{HouseholdID: householdID, Data: string(raw), UpdatedAt: at}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": householdID}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert household state: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
