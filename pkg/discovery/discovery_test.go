package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/store"
	"github.com/lanegraph/lanegraph/pkg/store/memory"
)

func intp(v int) *int { return &v }

// buildGraph assembles a graph or fails the test.
func buildGraph(t *testing.T, nodes []lineage.Node, links []lineage.Link) *lineage.Graph {
	t.Helper()
	g := lineage.NewGraph()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, l := range links {
		if err := g.AddLink(l); err != nil {
			t.Fatalf("AddLink(%s): %v", l.ID, err)
		}
	}
	return g
}

// twoFamilyGraph has a three-node lineage, a two-node lineage, and a
// singleton with no links.
func twoFamilyGraph(t *testing.T) *lineage.Graph {
	t.Helper()
	return buildGraph(t,
		[]lineage.Node{
			{ID: "a1", Name: "Alpha I", Founding: 1900, Dissolution: intp(1920)},
			{ID: "a2", Name: "Alpha II", Founding: 1921, Dissolution: intp(1950)},
			{ID: "a3", Name: "Alpha III", Founding: 1951, Dissolution: intp(1980)},
			{ID: "b1", Name: "Beta I", Founding: 1930, Dissolution: intp(1960)},
			{ID: "b2", Name: "Beta II", Founding: 1961, Dissolution: intp(1990)},
			{ID: "s1", Name: "Solo", Founding: 1940, Dissolution: intp(1945)},
		},
		[]lineage.Link{
			{ID: "la1", Predecessor: "a1", Successor: "a2", Year: 1921, Kind: lineage.KindTransfer},
			{ID: "la2", Predecessor: "a2", Successor: "a3", Year: 1951, Kind: lineage.KindTransfer},
			{ID: "lb1", Predecessor: "b1", Successor: "b2", Year: 1961, Kind: lineage.KindTransfer},
		},
	)
}

func newTestService(st store.Store, threshold int) *Service {
	return NewService(st, nil, Config{Threshold: threshold, CurrentYear: 2025})
}

func TestFamiliesDecomposition(t *testing.T) {
	g := twoFamilyGraph(t)

	fams := Families(g, 2)
	if len(fams) != 2 {
		t.Fatalf("Families(threshold=2) = %d families, want 2", len(fams))
	}
	// Sorted by first node ID: alpha before beta.
	if got := fams[0].NodeIDs(); len(got) != 3 || got[0] != "a1" {
		t.Errorf("first family nodes = %v, want [a1 a2 a3]", got)
	}
	if got := fams[1].NodeIDs(); len(got) != 2 || got[0] != "b1" {
		t.Errorf("second family nodes = %v, want [b1 b2]", got)
	}

	if fams := Families(g, 3); len(fams) != 1 {
		t.Errorf("Families(threshold=3) = %d families, want 1", len(fams))
	}
	if n := ComponentCount(g); n != 3 {
		t.Errorf("ComponentCount = %d, want 3", n)
	}
}

func TestDiscoverCreatesRows(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	svc := newTestService(st, 2)

	report, err := svc.Discover(ctx, twoFamilyGraph(t))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if report.Created != 2 || report.Pruned != 0 || report.Updated != 0 {
		t.Errorf("report = %+v, want 2 created, 0 pruned, 0 updated", report)
	}
	if len(report.Pending) != 2 {
		t.Errorf("pending = %v, want 2 hashes", report.Pending)
	}

	rows, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("cache holds %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if !row.Pending() {
			t.Errorf("row %s should be pending before optimization", row.FamilyHash)
		}
		if row.FamilyHash != row.DataFingerprint.Hash() {
			t.Errorf("row key %s does not match its fingerprint hash", row.FamilyHash)
		}
	}
}

func TestDiscoverIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	svc := newTestService(st, 2)
	g := twoFamilyGraph(t)

	if _, err := svc.Discover(ctx, g); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	markOptimized(t, st)

	report, err := svc.Discover(ctx, g)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if report.Created != 0 || report.Pruned != 0 || report.Updated != 0 {
		t.Errorf("second pass wrote: %+v", report)
	}
	if report.Unchanged != 2 {
		t.Errorf("unchanged = %d, want 2", report.Unchanged)
	}
	if len(report.Pending) != 0 {
		t.Errorf("pending = %v, want none after optimization", report.Pending)
	}
}

func TestDiscoverInternalEditMarksStale(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	svc := newTestService(st, 2)

	if _, err := svc.Discover(ctx, twoFamilyGraph(t)); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	markOptimized(t, st)
	before, _ := st.List(ctx)

	// Same entity sets, but the beta handover moves by a year.
	edited := buildGraph(t,
		[]lineage.Node{
			{ID: "a1", Founding: 1900, Dissolution: intp(1920)},
			{ID: "a2", Founding: 1921, Dissolution: intp(1950)},
			{ID: "a3", Founding: 1951, Dissolution: intp(1980)},
			{ID: "b1", Founding: 1930, Dissolution: intp(1962)},
			{ID: "b2", Founding: 1963, Dissolution: intp(1990)},
			{ID: "s1", Founding: 1940, Dissolution: intp(1945)},
		},
		[]lineage.Link{
			{ID: "la1", Predecessor: "a1", Successor: "a2", Year: 1921},
			{ID: "la2", Predecessor: "a2", Successor: "a3", Year: 1951},
			{ID: "lb1", Predecessor: "b1", Successor: "b2", Year: 1963},
		},
	)

	report, err := svc.Discover(ctx, edited)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if report.Updated != 1 || report.Created != 0 || report.Pruned != 0 {
		t.Errorf("report = %+v, want exactly one in-place update", report)
	}

	rows, _ := st.List(ctx)
	if len(rows) != 2 {
		t.Fatalf("cache holds %d rows, want 2", len(rows))
	}
	var stale []store.Layout
	for _, row := range rows {
		if row.IsStale {
			stale = append(stale, row)
		}
	}
	if len(stale) != 1 {
		t.Fatalf("stale rows = %d, want 1", len(stale))
	}
	if stale[0].Score == 0 || !staleScorePreserved(before, stale[0]) {
		t.Errorf("stale row lost its score history: %+v", stale[0])
	}
	if got := stale[0].DataFingerprint.NodeIDs; len(got) != 2 || got[0] != "b1" {
		t.Errorf("stale row covers nodes %v, want the beta family", got)
	}
}

// staleScorePreserved reports whether the stale row kept a score from one of
// the pre-edit rows.
func staleScorePreserved(before []store.Layout, after store.Layout) bool {
	for _, row := range before {
		if row.Score == after.Score {
			return true
		}
	}
	return false
}

func TestDiscoverMergePrunesConstituents(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	svc := newTestService(st, 2)

	if _, err := svc.Discover(ctx, twoFamilyGraph(t)); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	markOptimized(t, st)

	// A new link joins alpha and beta into one family.
	merged := twoFamilyGraph(t)
	if err := merged.AddLink(lineage.Link{ID: "lx", Predecessor: "a3", Successor: "b1", Year: 1955, Kind: lineage.KindMerge}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	report, err := svc.Discover(ctx, merged)
	if err != nil {
		t.Fatalf("merge pass: %v", err)
	}
	if report.Created != 1 || report.Pruned != 2 {
		t.Errorf("report = %+v, want 1 created and 2 pruned", report)
	}

	rows, _ := st.List(ctx)
	if len(rows) != 1 {
		t.Fatalf("cache holds %d rows after merge, want exactly 1", len(rows))
	}
	if !rows[0].Pending() {
		t.Error("merged family should be pending")
	}
	if got := len(rows[0].DataFingerprint.NodeIDs); got != 5 {
		t.Errorf("merged family covers %d nodes, want 5", got)
	}
}

func TestDiscoverPrunesVanishedFamily(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	svc := newTestService(st, 2)

	if _, err := svc.Discover(ctx, twoFamilyGraph(t)); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// Only the alpha family remains.
	shrunk := buildGraph(t,
		[]lineage.Node{
			{ID: "a1", Founding: 1900, Dissolution: intp(1920)},
			{ID: "a2", Founding: 1921, Dissolution: intp(1950)},
			{ID: "a3", Founding: 1951, Dissolution: intp(1980)},
		},
		[]lineage.Link{
			{ID: "la1", Predecessor: "a1", Successor: "a2", Year: 1921},
			{ID: "la2", Predecessor: "a2", Successor: "a3", Year: 1951},
		},
	)

	report, err := svc.Discover(ctx, shrunk)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if report.Pruned != 1 {
		t.Errorf("pruned = %d, want 1", report.Pruned)
	}
	rows, _ := st.List(ctx)
	if len(rows) != 1 {
		t.Errorf("cache holds %d rows, want 1", len(rows))
	}
}

func TestDiscoverRejectsCyclicGraph(t *testing.T) {
	g := buildGraph(t,
		[]lineage.Node{
			{ID: "x", Founding: 1900},
			{ID: "y", Founding: 1910},
		},
		[]lineage.Link{
			{ID: "l1", Predecessor: "x", Successor: "y", Year: 1910},
			{ID: "l2", Predecessor: "y", Successor: "x", Year: 1920},
		},
	)
	svc := newTestService(memory.NewStore(), 2)
	if _, err := svc.Discover(context.Background(), g); !errors.Is(err, lineage.ErrGraphHasCycle) {
		t.Errorf("Discover on cyclic graph = %v, want ErrGraphHasCycle", err)
	}
}

// markOptimized stamps every pending row as freshly optimized so later
// passes can distinguish unchanged rows from pending ones.
func markOptimized(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	rows, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i, row := range rows {
		now := time.Now()
		row.OptimizedAt = &now
		row.Score = float64(100 + i)
		row.IsStale = false
		if err := st.Put(ctx, row); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
}
