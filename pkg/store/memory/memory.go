// Package memory provides an in-memory layout store for development and
// testing. All data is lost when the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/lanegraph/lanegraph/pkg/store"
)

// Store is an in-memory implementation of [store.Store].
// It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	rows map[string]store.Layout
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{rows: make(map[string]store.Layout)}
}

// Get retrieves the layout for a family hash.
func (s *Store) Get(ctx context.Context, familyHash string) (*store.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[familyHash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &row, nil
}

// List returns all rows.
func (s *Store) List(ctx context.Context) ([]store.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]store.Layout, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	return rows, nil
}

// Put inserts or replaces the row for its family hash.
func (s *Store) Put(ctx context.Context, layout store.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[layout.FamilyHash] = layout
	return nil
}

// Delete removes the row for a family hash.
func (s *Store) Delete(ctx context.Context, familyHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, familyHash)
	return nil
}

// Apply performs all writes under a single lock acquisition, so concurrent
// readers observe either none or all of the changeset.
func (s *Store) Apply(ctx context.Context, cs store.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, hash := range cs.Delete {
		delete(s.rows, hash)
	}
	for _, row := range cs.Put {
		s.rows[row.FamilyHash] = row
	}
	return nil
}

// Close does nothing for the in-memory store.
func (s *Store) Close() error { return nil }

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
