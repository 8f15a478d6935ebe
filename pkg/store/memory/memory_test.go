package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lanegraph/lanegraph/pkg/store"
)

func row(hash string, score float64) store.Layout {
	now := time.Now()
	return store.Layout{
		FamilyHash:  hash,
		Score:       score,
		OptimizedAt: &now,
	}
}

func TestGetPutDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, row("abc", 12.5)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Score != 12.5 {
		t.Errorf("score = %v, want 12.5", got.Score)
	}

	if err := s.Delete(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "abc"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "abc"); err != nil {
		t.Errorf("deleting a missing row: err = %v, want nil", err)
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, r := range []store.Layout{row("a", 1), row("b", 2)} {
		if err := s.Put(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	cs := store.Changeset{
		Delete: []string{"a"},
		Put:    []store.Layout{row("c", 3)},
	}
	if err := s.Apply(ctx, cs); err != nil {
		t.Fatal(err)
	}

	rows, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	hashes := make(map[string]bool, len(rows))
	for _, r := range rows {
		hashes[r.FamilyHash] = true
	}
	if hashes["a"] || !hashes["b"] || !hashes["c"] {
		t.Errorf("rows after apply = %v, want b and c only", hashes)
	}
}

func TestPendingFlag(t *testing.T) {
	fresh := row("x", 1)
	if fresh.Pending() {
		t.Error("optimized non-stale row reported pending")
	}

	stale := row("y", 1)
	stale.IsStale = true
	if !stale.Pending() {
		t.Error("stale row not reported pending")
	}

	unoptimized := store.Layout{FamilyHash: "z"}
	if !unoptimized.Pending() {
		t.Error("never-optimized row not reported pending")
	}
}
