package layout

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
)

// StrategyProbs sets how often each mutation strategy fires. The four values
// should sum to roughly 1.0; they are normalized over their actual sum, so a
// zero probability removes a strategy entirely.
type StrategyProbs struct {
	Swap        float64 `json:"swap"`
	Heuristic   float64 `json:"heuristic"`
	Compaction  float64 `json:"compaction"`
	Exploration float64 `json:"exploration"`
}

// DefaultStrategyProbs returns the production strategy mix.
func DefaultStrategyProbs() StrategyProbs {
	return StrategyProbs{Swap: 0.4, Heuristic: 0.3, Compaction: 0.2, Exploration: 0.1}
}

func (p StrategyProbs) sum() float64 {
	return p.Swap + p.Heuristic + p.Compaction + p.Exploration
}

// Params configures an optimization run. The zero value is not usable - start
// from [DefaultParams].
type Params struct {
	PopulationSize int           `json:"population_size"`
	Generations    int           `json:"generations"`
	MutationRate   float64       `json:"mutation_rate"`
	Strategies     StrategyProbs `json:"strategies"`
	// Patience stops the run early after this many generations without
	// improvement. Zero disables early convergence stopping.
	Patience int `json:"patience"`
	// Timeout is the wall-clock budget. Zero disables it. There is no other
	// cancellation contract: callers needing to abort rely on this.
	Timeout time.Duration `json:"timeout"`
	// Seed makes runs reproducible: identical input and seed always produce
	// identical output.
	Seed uint64 `json:"seed"`

	// OnGeneration, when set, is invoked after each generation with the
	// current progress. Used by the CLI watch view; never serialized.
	OnGeneration func(Progress) `json:"-"`
}

// DefaultParams returns the production optimizer configuration.
func DefaultParams() Params {
	return Params{
		PopulationSize: 60,
		Generations:    400,
		MutationRate:   0.3,
		Strategies:     DefaultStrategyProbs(),
		Patience:       60,
		Timeout:        30 * time.Second,
		Seed:           42,
	}
}

// Progress is a per-generation snapshot reported through
// [Params.OnGeneration].
type Progress struct {
	Generation int
	Best       float64
}

// Result is the outcome of an optimization run. YIndices always covers every
// chain the evaluator knows about, normalized so the minimum lane is 0.
type Result struct {
	YIndices         map[string]int `json:"y_indices"`
	Score            float64        `json:"score"`
	BestGeneration   int            `json:"best_generation"`
	TotalGenerations int            `json:"total_generations"`
	LaneCount        int            `json:"lane_count"`
	Breakdown        Breakdown      `json:"breakdown"`
}

// Optimizer searches for a low-cost lane assignment with a generational
// genetic algorithm: tournament selection, uniform crossover, elitism, and
// the four mutation strategies from [StrategyProbs]. The best individual
// seen across all generations is never discarded before the run ends.
type Optimizer struct {
	eval   *Evaluator
	params Params
}

// NewOptimizer creates an optimizer over the given evaluator.
// A population size below 2 is clamped to 2; a generation count below 1 to 1.
func NewOptimizer(eval *Evaluator, params Params) *Optimizer {
	if params.PopulationSize < 2 {
		params.PopulationSize = 2
	}
	if params.Generations < 1 {
		params.Generations = 1
	}
	if params.Strategies.sum() <= 0 {
		params.Strategies = DefaultStrategyProbs()
	}
	return &Optimizer{eval: eval, params: params}
}

type individual struct {
	assign  Assignment
	fitness float64
}

// Run executes the search. It always terminates - via the generation count,
// the convergence patience, the timeout, or ctx cancellation (treated like a
// timeout) - and always returns a complete assignment covering every chain.
// The optimizer never fails for a well-formed family; the worst case is a
// high-cost solution.
func (o *Optimizer) Run(ctx context.Context) Result {
	ids := o.eval.ChainIDs()
	if len(ids) == 0 {
		return Result{YIndices: map[string]int{}}
	}

	rng := rand.New(rand.NewPCG(o.params.Seed, o.params.Seed^0xdeadbeef))
	start := time.Now()

	pop := o.seedPopulation(rng, ids)
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fitness < best.fitness {
			best = ind
		}
	}
	best = individual{assign: best.assign.Clone(), fitness: best.fitness}

	bestGen, totalGens, noImprove := 0, 0, 0
	for gen := 1; gen <= o.params.Generations; gen++ {
		if o.params.Timeout > 0 && time.Since(start) >= o.params.Timeout {
			break
		}
		if ctx.Err() != nil {
			break
		}

		next := make([]individual, o.params.PopulationSize)
		next[0] = individual{assign: best.assign.Clone(), fitness: best.fitness}
		for i := 1; i < o.params.PopulationSize; i++ {
			p1 := tournament(rng, pop)
			p2 := tournament(rng, pop)
			child := crossover(rng, ids, p1.assign, p2.assign)
			child = o.mutate(rng, child)
			next[i] = individual{assign: child, fitness: o.eval.Total(child)}
		}
		pop = next
		totalGens = gen

		improved := false
		for _, ind := range pop {
			if ind.fitness < best.fitness {
				best = individual{assign: ind.assign.Clone(), fitness: ind.fitness}
				bestGen = gen
				improved = true
			}
		}
		if improved {
			noImprove = 0
		} else {
			noImprove++
		}

		if o.params.OnGeneration != nil {
			o.params.OnGeneration(Progress{Generation: gen, Best: best.fitness})
		}
		if o.params.Patience > 0 && noImprove >= o.params.Patience {
			break
		}
	}

	normalized := normalize(best.assign)
	lanes := make(map[int]bool, len(normalized))
	for _, y := range normalized {
		lanes[y] = true
	}

	return Result{
		YIndices:         normalized,
		Score:            best.fitness,
		BestGeneration:   bestGen,
		TotalGenerations: totalGens,
		LaneCount:        len(lanes),
		Breakdown:        o.eval.TotalBreakdown(normalized),
	}
}

// seedPopulation builds the initial candidates: one spread individual (each
// chain on its own lane), one greedy first-fit compaction, and random fills.
func (o *Optimizer) seedPopulation(rng *rand.Rand, ids []string) []individual {
	pop := make([]individual, o.params.PopulationSize)

	spread := make(Assignment, len(ids))
	for i, id := range ids {
		spread[id] = i
	}
	pop[0] = individual{assign: spread, fitness: o.eval.Total(spread)}

	greedy := o.firstFit(ids)
	pop[1] = individual{assign: greedy, fitness: o.eval.Total(greedy)}

	for i := 2; i < len(pop); i++ {
		a := make(Assignment, len(ids))
		for _, id := range ids {
			a[id] = rng.IntN(len(ids))
		}
		pop[i] = individual{assign: a, fitness: o.eval.Total(a)}
	}
	return pop
}

// firstFit assigns chains in start order to the lowest lane where the
// placement costs nothing against what is already placed.
func (o *Optimizer) firstFit(ids []string) Assignment {
	order := slices.Clone(ids)
	slices.SortFunc(order, func(a, b string) int {
		ca, cb := o.eval.chains[a], o.eval.chains[b]
		if ca.Start != cb.Start {
			return ca.Start - cb.Start
		}
		return strings.Compare(a, b)
	})

	a := make(Assignment, len(ids))
	for _, id := range order {
		placed := false
		for lane := 0; lane < len(ids); lane++ {
			if o.laneFits(id, lane, a) {
				a[id] = lane
				placed = true
				break
			}
		}
		if !placed {
			a[id] = len(a)
		}
	}
	return a
}

// laneFits checks only the lane-sharing term: zero pair cost against every
// chain already on the lane.
func (o *Optimizer) laneFits(id string, lane int, a Assignment) bool {
	c := o.eval.chains[id]
	for other, y := range a {
		if y != lane {
			continue
		}
		oc := o.eval.chains[other]
		if _, weighted := o.eval.pairCost(c, occupant{id: oc.ID, start: oc.Start, end: oc.End}); weighted > 0 {
			return false
		}
	}
	return true
}

// mutate applies at least one mutation event to a copy of the assignment,
// plus further events while the mutation-rate coin keeps landing.
func (o *Optimizer) mutate(rng *rand.Rand, a Assignment) Assignment {
	out := o.pickStrategy(rng).apply(o.eval, rng, a)
	for rng.Float64() < o.params.MutationRate {
		out = o.pickStrategy(rng).apply(o.eval, rng, out)
	}
	return out
}

func (o *Optimizer) pickStrategy(rng *rand.Rand) strategy {
	p := o.params.Strategies
	r := rng.Float64() * p.sum()
	switch {
	case r < p.Swap:
		return strategySwap
	case r < p.Swap+p.Heuristic:
		return strategyHeuristic
	case r < p.Swap+p.Heuristic+p.Compaction:
		return strategyCompaction
	default:
		return strategyExploration
	}
}

func tournament(rng *rand.Rand, pop []individual) individual {
	const k = 3
	best := pop[rng.IntN(len(pop))]
	for i := 1; i < k; i++ {
		if c := pop[rng.IntN(len(pop))]; c.fitness < best.fitness {
			best = c
		}
	}
	return best
}

func crossover(rng *rand.Rand, ids []string, p1, p2 Assignment) Assignment {
	child := make(Assignment, len(ids))
	for _, id := range ids {
		if rng.IntN(2) == 0 {
			child[id] = p1[id]
		} else {
			child[id] = p2[id]
		}
	}
	return child
}

// normalize shifts all lanes so the minimum is 0. Every cost term depends
// only on lane differences, so the score is unchanged.
func normalize(a Assignment) map[string]int {
	out := make(map[string]int, len(a))
	if len(a) == 0 {
		return out
	}
	min := 0
	first := true
	for _, y := range a {
		if first || y < min {
			min = y
			first = false
		}
	}
	for id, y := range a {
		out[id] = y - min
	}
	return out
}

// strategy is the closed set of mutation moves. Each is a pure function from
// an assignment to a new candidate; the input is never modified.
type strategy int

const (
	// strategySwap exchanges the lanes of two chains.
	strategySwap strategy = iota
	// strategyHeuristic re-lanes a chain onto one of its parents' or
	// children's lanes.
	strategyHeuristic
	// strategyCompaction moves a chain onto a lane already in use, pushing
	// toward fewer lanes.
	strategyCompaction
	// strategyExploration assigns a chain a lane drawn from just beyond the
	// currently used range.
	strategyExploration
)

func (s strategy) String() string {
	switch s {
	case strategySwap:
		return "swap"
	case strategyHeuristic:
		return "heuristic"
	case strategyCompaction:
		return "compaction"
	case strategyExploration:
		return "exploration"
	default:
		return "unknown"
	}
}

func (s strategy) apply(e *Evaluator, rng *rand.Rand, a Assignment) Assignment {
	ids := e.ChainIDs()
	out := a.Clone()
	switch s {
	case strategySwap:
		i, j := rng.IntN(len(ids)), rng.IntN(len(ids))
		out[ids[i]], out[ids[j]] = out[ids[j]], out[ids[i]]

	case strategyHeuristic:
		id := ids[rng.IntN(len(ids))]
		kin := append(slices.Clone(e.Parents(id)), e.Children(id)...)
		if len(kin) == 0 {
			return out
		}
		out[id] = out[kin[rng.IntN(len(kin))]]

	case strategyCompaction:
		id := ids[rng.IntN(len(ids))]
		used := usedLanes(out, id)
		if len(used) == 0 {
			return out
		}
		out[id] = used[rng.IntN(len(used))]

	case strategyExploration:
		id := ids[rng.IntN(len(ids))]
		lo, hi := laneRange(out)
		out[id] = lo - 1 + rng.IntN(hi-lo+3)
	}
	return out
}

// usedLanes returns the sorted distinct lanes occupied by chains other than
// the excluded one.
func usedLanes(a Assignment, exclude string) []int {
	seen := make(map[int]bool)
	for id, y := range a {
		if id != exclude {
			seen[y] = true
		}
	}
	lanes := make([]int, 0, len(seen))
	for y := range seen {
		lanes = append(lanes, y)
	}
	slices.Sort(lanes)
	return lanes
}

func laneRange(a Assignment) (lo, hi int) {
	first := true
	for _, y := range a {
		if first {
			lo, hi = y, y
			first = false
			continue
		}
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi
}
