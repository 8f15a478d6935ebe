// Package mongo provides a MongoDB-backed layout store. A unique index on
// family_hash enforces the one-row-per-hash invariant at the database level.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lanegraph/lanegraph/pkg/store"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store is a MongoDB implementation of [store.Store].
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewStore connects to MongoDB and ensures the unique family_hash index.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = "lanegraph"
	}
	if cfg.Collection == "" {
		cfg.Collection = "layouts"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "family_hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create family_hash index: %w", err)
	}

	return &Store{client: client, coll: coll}, nil
}

// Get retrieves the layout for a family hash.
func (s *Store) Get(ctx context.Context, familyHash string) (*store.Layout, error) {
	var row store.Layout
	err := s.coll.FindOne(ctx, bson.M{"family_hash": familyHash}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns all rows.
func (s *Store) List(ctx context.Context) ([]store.Layout, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []store.Layout
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Put inserts or replaces the row for its family hash.
func (s *Store) Put(ctx context.Context, layout store.Layout) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"family_hash": layout.FamilyHash},
		layout,
		options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", store.ErrDuplicateHash, layout.FamilyHash)
	}
	return err
}

// Delete removes the row for a family hash.
func (s *Store) Delete(ctx context.Context, familyHash string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"family_hash": familyHash})
	return err
}

// Apply performs all writes as one ordered bulk operation: deletes first,
// then upserts, mirroring [store.Changeset] semantics.
func (s *Store) Apply(ctx context.Context, cs store.Changeset) error {
	if cs.Empty() {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(cs.Delete)+len(cs.Put))
	for _, hash := range cs.Delete {
		models = append(models, mongo.NewDeleteOneModel().
			SetFilter(bson.M{"family_hash": hash}))
	}
	for _, row := range cs.Put {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"family_hash": row.FamilyHash}).
			SetReplacement(row).
			SetUpsert(true))
	}

	_, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: changeset collided on family_hash", store.ErrDuplicateHash)
	}
	return err
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
