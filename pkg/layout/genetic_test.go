package layout

import (
	"context"
	"testing"
	"time"

	"github.com/lanegraph/lanegraph/pkg/lineage"
)

// solvableFamily builds a small instance with a known conflict-free layout:
// two parallel lineages overlapping in time, each a parent/child pair.
func solvableFamily() *Evaluator {
	chains := []lineage.Chain{
		{ID: "a1", NodeIDs: []string{"a1"}, Start: 1900, End: 1950},
		{ID: "a2", NodeIDs: []string{"a2"}, Start: 1951, End: 2000},
		{ID: "b1", NodeIDs: []string{"b1"}, Start: 1920, End: 1970},
		{ID: "b2", NodeIDs: []string{"b2"}, Start: 1971, End: 2010},
	}
	links := []*lineage.Link{
		{ID: "l1", Predecessor: "a1", Successor: "a2", Year: 1951},
		{ID: "l2", Predecessor: "b1", Successor: "b2", Year: 1971},
	}
	return NewEvaluator(chains, links, DefaultWeights())
}

func testParams() Params {
	p := DefaultParams()
	p.PopulationSize = 30
	p.Generations = 150
	p.Timeout = 10 * time.Second
	return p
}

func TestOptimizerCoversAllChains(t *testing.T) {
	e := solvableFamily()
	res := NewOptimizer(e, testParams()).Run(context.Background())

	if len(res.YIndices) != len(e.ChainIDs()) {
		t.Fatalf("y_indices covers %d chains, want %d", len(res.YIndices), len(e.ChainIDs()))
	}
	for _, id := range e.ChainIDs() {
		if _, ok := res.YIndices[id]; !ok {
			t.Errorf("chain %s missing from result", id)
		}
	}
}

func TestOptimizerSolvesSmallInstance(t *testing.T) {
	e := solvableFamily()
	res := NewOptimizer(e, testParams()).Run(context.Background())

	// Family pairs may share a lane (a1 touches a2, b1 touches b2); the two
	// lineages overlap in time and must not collide.
	a := Assignment(res.YIndices)
	for _, id := range e.ChainIDs() {
		if got := e.ChainCostBreakdown(id, a[id], a).LaneSharing.Weighted; got != 0 {
			t.Errorf("chain %s: lane sharing cost %v at optimum, want 0", id, got)
		}
	}
	if res.Score < 0 {
		t.Errorf("score = %v, want >= 0", res.Score)
	}
}

func TestOptimizerDeterminism(t *testing.T) {
	p := testParams()
	p.Seed = 1234

	run := func() Result {
		return NewOptimizer(solvableFamily(), p).Run(context.Background())
	}
	r1, r2 := run(), run()

	if r1.Score != r2.Score {
		t.Errorf("scores differ across identical seeds: %v vs %v", r1.Score, r2.Score)
	}
	for id, y := range r1.YIndices {
		if r2.YIndices[id] != y {
			t.Errorf("chain %s: lane %d vs %d across identical seeds", id, y, r2.YIndices[id])
		}
	}
	if r1.BestGeneration != r2.BestGeneration || r1.TotalGenerations != r2.TotalGenerations {
		t.Errorf("generation counts differ: (%d,%d) vs (%d,%d)",
			r1.BestGeneration, r1.TotalGenerations, r2.BestGeneration, r2.TotalGenerations)
	}
}

func TestOptimizerNormalization(t *testing.T) {
	res := NewOptimizer(solvableFamily(), testParams()).Run(context.Background())

	min := 0
	first := true
	for _, y := range res.YIndices {
		if first || y < min {
			min = y
			first = false
		}
	}
	if min != 0 {
		t.Errorf("minimum lane = %d, want 0", min)
	}
	if res.LaneCount < 1 {
		t.Errorf("lane count = %d, want >= 1", res.LaneCount)
	}
}

func TestOptimizerGenerationAccounting(t *testing.T) {
	res := NewOptimizer(solvableFamily(), testParams()).Run(context.Background())
	if res.BestGeneration > res.TotalGenerations {
		t.Errorf("best generation %d > total generations %d", res.BestGeneration, res.TotalGenerations)
	}
}

func TestOptimizerPatienceStopsEarly(t *testing.T) {
	p := testParams()
	p.Generations = 10000
	p.Patience = 5
	res := NewOptimizer(solvableFamily(), p).Run(context.Background())
	if res.TotalGenerations >= p.Generations {
		t.Errorf("patience did not stop the run: ran %d generations", res.TotalGenerations)
	}
}

func TestOptimizerTimeout(t *testing.T) {
	p := testParams()
	p.Generations = 1 << 30
	p.Patience = 0
	p.Timeout = 50 * time.Millisecond

	done := make(chan Result, 1)
	go func() {
		done <- NewOptimizer(solvableFamily(), p).Run(context.Background())
	}()
	select {
	case res := <-done:
		if len(res.YIndices) != 4 {
			t.Errorf("timed-out run returned incomplete assignment: %v", res.YIndices)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("optimizer did not respect its timeout")
	}
}

func TestOptimizerEmptyInput(t *testing.T) {
	e := NewEvaluator(nil, nil, DefaultWeights())
	res := NewOptimizer(e, testParams()).Run(context.Background())
	if len(res.YIndices) != 0 {
		t.Errorf("y_indices = %v, want empty", res.YIndices)
	}
}

func TestOptimizerProgressCallback(t *testing.T) {
	p := testParams()
	p.Generations = 20
	p.Patience = 0

	var generations []int
	p.OnGeneration = func(pr Progress) { generations = append(generations, pr.Generation) }

	NewOptimizer(solvableFamily(), p).Run(context.Background())
	if len(generations) == 0 {
		t.Fatal("progress callback never fired")
	}
	for i := 1; i < len(generations); i++ {
		if generations[i] != generations[i-1]+1 {
			t.Errorf("generations not consecutive: %v", generations)
			break
		}
	}
}
