// Package redis provides a Redis-backed layout store for shared
// deployments where several workers and the API read the same cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lanegraph/lanegraph/pkg/store"
)

const (
	// keyPrefix namespaces layout rows in the keyspace.
	keyPrefix = "lanegraph:layout:"
	// indexKey is the set of all stored family hashes, kept so List does
	// not need SCAN.
	indexKey = "lanegraph:layouts"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store is a Redis implementation of [store.Store].
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and verifies the connection with a ping.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

// Get retrieves the layout for a family hash.
func (s *Store) Get(ctx context.Context, familyHash string) (*store.Layout, error) {
	data, err := s.client.Get(ctx, keyPrefix+familyHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var row store.Layout
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode layout %s: %w", familyHash, err)
	}
	return &row, nil
}

// List returns all rows via the hash index set.
func (s *Store) List(ctx context.Context) ([]store.Layout, error) {
	hashes, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = keyPrefix + h
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rows := make([]store.Layout, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value key; skip rather than fail List.
			continue
		}
		var row store.Layout
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("decode layout %s: %w", hashes[i], err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Put inserts or replaces the row for its family hash.
func (s *Store) Put(ctx context.Context, layout store.Layout) error {
	return s.Apply(ctx, store.Changeset{Put: []store.Layout{layout}})
}

// Delete removes the row for a family hash.
func (s *Store) Delete(ctx context.Context, familyHash string) error {
	return s.Apply(ctx, store.Changeset{Delete: []string{familyHash}})
}

// Apply performs all writes in one MULTI/EXEC transaction.
func (s *Store) Apply(ctx context.Context, cs store.Changeset) error {
	if cs.Empty() {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, hash := range cs.Delete {
		pipe.Del(ctx, keyPrefix+hash)
		pipe.SRem(ctx, indexKey, hash)
	}
	for _, row := range cs.Put {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode layout %s: %w", row.FamilyHash, err)
		}
		pipe.Set(ctx, keyPrefix+row.FamilyHash, data, 0)
		pipe.SAdd(ctx, indexKey, row.FamilyHash)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
