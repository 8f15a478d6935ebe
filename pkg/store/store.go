// Package store persists precomputed family layouts keyed by fingerprint
// hash.
//
// This package defines the narrow persistence interface the discovery
// service and layout runner write through, with implementations for
// different backends:
//   - memory: in-memory storage for development and testing
//   - redis: Redis-backed storage for shared deployments
//   - mongo: MongoDB-backed storage with a unique index on the family hash
//
// The presentation layer reads rows through the same interface and never
// mutates them.
//
// # Invariants
//
// At most one row exists per family hash. Discovery applies its whole
// reconciliation outcome as a single [Changeset] so readers never observe an
// intermediate state with duplicate or missing rows.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lanegraph/lanegraph/pkg/lineage"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when no layout exists for a family hash.
	ErrNotFound = errors.New("layout not found")

	// ErrDuplicateHash is returned when a write would leave two rows with
	// the same family hash. This is a programming-invariant violation, not a
	// recoverable condition.
	ErrDuplicateHash = errors.New("duplicate family hash")
)

// LayoutChain is one placed chain in a cached layout, ready for rendering.
type LayoutChain struct {
	ID      string   `json:"id" bson:"id"`
	NodeIDs []string `json:"node_ids" bson:"node_ids"`
	Start   int      `json:"start" bson:"start"`
	End     int      `json:"end" bson:"end"`
	Y       int      `json:"y" bson:"y"`
}

// LayoutLink is a chain-level succession edge in a cached layout.
type LayoutLink struct {
	ID          string `json:"id" bson:"id"`
	Predecessor string `json:"predecessor" bson:"predecessor"`
	Successor   string `json:"successor" bson:"successor"`
	Year        int    `json:"year" bson:"year"`
}

// LayoutData is the renderable payload of a cached layout.
type LayoutData struct {
	Chains []LayoutChain `json:"chains" bson:"chains"`
	Links  []LayoutLink  `json:"links" bson:"links"`
}

// Layout is one cache row. FamilyHash is unique across the store.
// OptimizedAt is nil for rows discovery created that the runner has not yet
// optimized; IsStale marks rows whose family changed structurally since the
// last optimization (score history is kept until re-optimization).
type Layout struct {
	FamilyHash      string              `json:"family_hash" bson:"family_hash"`
	Data            LayoutData          `json:"layout_data" bson:"layout_data"`
	DataFingerprint lineage.Fingerprint `json:"data_fingerprint" bson:"data_fingerprint"`
	Score           float64             `json:"score" bson:"score"`
	IsStale         bool                `json:"is_stale" bson:"is_stale"`
	OptimizedAt     *time.Time          `json:"optimized_at" bson:"optimized_at"`
}

// Pending reports whether the row still needs an optimization run.
func (l Layout) Pending() bool {
	return l.OptimizedAt == nil || l.IsStale
}

// Changeset is an atomic batch of writes: deletes are applied before puts so
// a prune-and-reinsert of related rows cannot transiently collide.
type Changeset struct {
	Delete []string
	Put    []Layout
}

// Empty reports whether the changeset contains no writes.
func (c Changeset) Empty() bool { return len(c.Delete) == 0 && len(c.Put) == 0 }

// Store is the interface for layout persistence backends.
type Store interface {
	// Get retrieves the layout for a family hash.
	// Returns ErrNotFound if no row exists.
	Get(ctx context.Context, familyHash string) (*Layout, error)

	// List returns all rows. The order is unspecified.
	List(ctx context.Context) ([]Layout, error)

	// Put inserts or replaces the row for its family hash.
	Put(ctx context.Context, layout Layout) error

	// Delete removes the row for a family hash.
	// Deleting a missing row is not an error.
	Delete(ctx context.Context, familyHash string) error

	// Apply performs all of a changeset's writes as one logical transaction.
	Apply(ctx context.Context, cs Changeset) error

	// Close releases backend resources.
	Close() error
}
