// Package runner orchestrates layout optimization runs against the cache.
//
// The runner sits between discovery and the optimizer: given a family it
// checks the cache first, and only spends optimizer time when no fresh row
// exists. Concurrent runs for the same family hash are serialized, so two
// callers racing on one family produce one optimization and one write.
package runner

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lanegraph/lanegraph/pkg/discovery"
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/layout"
	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/observability"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// DefaultConcurrency bounds how many families optimize in parallel.
const DefaultConcurrency = 4

// Config holds runner settings.
type Config struct {
	Params      layout.Params
	Weights     layout.Weights
	CurrentYear int // anchors open-ended entities; zero means wall-clock year
	Concurrency int // parallel family limit; zero means DefaultConcurrency
	Threshold   int // minimum family size; zero means discovery.DefaultThreshold
}

// State describes where a family sits in the optimization lifecycle.
type State string

const (
	StatePending    State = "pending"    // discovered, never optimized
	StateOptimizing State = "optimizing" // a run is in flight right now
	StateStale      State = "stale"      // optimized against an older structure
	StateCached     State = "cached"     // fresh result available
)

// Outcome is the result of optimizing one family.
type Outcome struct {
	Layout   store.Layout
	CacheHit bool // true when the cached row was fresh and no run happened
}

// Summary aggregates a multi-family run.
type Summary struct {
	Families  int
	Optimized int
	CacheHits int
}

// Runner drives optimization runs and records results in the layout store.
type Runner struct {
	store  store.Store
	logger *log.Logger
	cfg    Config

	locks keyedMutex

	mu     sync.Mutex
	active map[string]bool
}

// New creates a runner. A nil logger discards output.
func New(st store.Store, logger *log.Logger, cfg Config) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = discovery.DefaultThreshold
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	return &Runner{
		store:  st,
		logger: logger,
		cfg:    cfg,
		active: make(map[string]bool),
	}
}

// Status reports the lifecycle state of the family with the given hash.
func (r *Runner) Status(ctx context.Context, hash string) (State, error) {
	if err := apperrors.ValidateFamilyHash(hash); err != nil {
		return "", err
	}

	r.mu.Lock()
	inFlight := r.active[hash]
	r.mu.Unlock()
	if inFlight {
		return StateOptimizing, nil
	}

	row, err := r.store.Get(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return "", apperrors.New(apperrors.ErrCodeFamilyNotFound, "no family with hash %s", hash)
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeStore, err, "load layout %s", hash)
	}
	switch {
	case row.OptimizedAt == nil:
		return StatePending, nil
	case row.IsStale:
		return StateStale, nil
	default:
		return StateCached, nil
	}
}

// OptimizeFamily optimizes one family, or returns the cached layout when the
// stored row already matches the family's fingerprint and is fresh.
//
// Runs for the same hash are serialized: a second caller blocks until the
// first completes and then hits the cache.
func (r *Runner) OptimizeFamily(ctx context.Context, fam lineage.Family) (Outcome, error) {
	fp := lineage.NewFingerprint(fam)
	hash := fp.Hash()

	unlock := r.locks.lock(hash)
	defer unlock()

	if row, err := r.store.Get(ctx, hash); err == nil {
		if !row.Pending() && !row.IsStale && row.DataFingerprint.Equal(fp) {
			r.logger.Debug("layout cache hit", "family_hash", short(hash))
			observability.Cache().OnCacheHit(ctx, hash)
			return Outcome{Layout: *row, CacheHit: true}, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return Outcome{}, apperrors.Wrap(apperrors.ErrCodeStore, err, "load layout %s", hash)
	}
	observability.Cache().OnCacheMiss(ctx, hash)

	r.setActive(hash, true)
	defer r.setActive(hash, false)

	runID := uuid.NewString()
	started := time.Now()
	r.logger.Info("optimization run started",
		"run_id", runID,
		"family_hash", short(hash),
		"entities", fam.Size(),
		"links", len(fam.Links),
		"population", r.cfg.Params.PopulationSize,
		"generations", r.cfg.Params.Generations,
		"mutation_rate", r.cfg.Params.MutationRate,
		"patience", r.cfg.Params.Patience,
		"timeout", r.cfg.Params.Timeout,
		"swap", r.cfg.Params.Strategies.Swap,
		"heuristic", r.cfg.Params.Strategies.Heuristic,
		"compaction", r.cfg.Params.Strategies.Compaction,
		"exploration", r.cfg.Params.Strategies.Exploration,
		"seed", r.cfg.Params.Seed)

	chains, err := lineage.BuildChains(fam, r.cfg.CurrentYear)
	if err != nil {
		if errors.Is(err, lineage.ErrGraphHasCycle) {
			return Outcome{}, apperrors.Wrap(apperrors.ErrCodeGraphCycle, err, "family %s", short(hash))
		}
		return Outcome{}, apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "family %s", short(hash))
	}

	observability.Optimizer().OnRunStart(ctx, hash, len(chains))
	eval := layout.NewEvaluator(chains, fam.Links, r.cfg.Weights)
	result := layout.NewOptimizer(eval, r.cfg.Params).Run(ctx)
	if err := ctx.Err(); err != nil {
		observability.Optimizer().OnRunComplete(ctx, hash, 0, result.TotalGenerations, time.Since(started), err)
		return Outcome{}, apperrors.Wrap(apperrors.ErrCodeTimeout, err, "optimization of %s interrupted", short(hash))
	}
	observability.Optimizer().OnRunComplete(ctx, hash, result.Score, result.TotalGenerations, time.Since(started), nil)

	now := time.Now()
	row := store.Layout{
		FamilyHash:      hash,
		Data:            buildLayoutData(chains, fam.Links, result.YIndices),
		DataFingerprint: fp,
		Score:           result.Score,
		IsStale:         false,
		OptimizedAt:     &now,
	}
	if err := r.store.Put(ctx, row); err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.ErrCodeStore, err, "store layout %s", hash)
	}
	observability.Cache().OnCacheWrite(ctx, hash)

	r.logger.Info("optimization run finished",
		"run_id", runID,
		"family_hash", short(hash),
		"chains", len(chains),
		"lanes", result.LaneCount,
		"score", result.Score,
		"best_generation", result.BestGeneration,
		"total_generations", result.TotalGenerations,
		"attraction", result.Breakdown.Attraction.Weighted,
		"attraction_raw", result.Breakdown.Attraction.Raw,
		"cut_through", result.Breakdown.CutThrough.Weighted,
		"cut_through_raw", result.Breakdown.CutThrough.Raw,
		"blocker", result.Breakdown.Blocker.Weighted,
		"blocker_raw", result.Breakdown.Blocker.Raw,
		"lane_sharing", result.Breakdown.LaneSharing.Weighted,
		"lane_sharing_raw", result.Breakdown.LaneSharing.Raw,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return Outcome{Layout: row}, nil
}

// OptimizeAll decomposes the graph into families and optimizes each one,
// bounded by the configured concurrency. Families with fresh cache rows are
// skipped as hits.
func (r *Runner) OptimizeAll(ctx context.Context, g *lineage.Graph) (Summary, error) {
	return r.optimizeFamilies(ctx, discovery.Families(g, r.cfg.Threshold))
}

// OptimizeHashes optimizes only the graph families whose hashes are listed.
// A hash matching no current family is an error: it names a layout that
// discovery has pruned or never produced.
func (r *Runner) OptimizeHashes(ctx context.Context, g *lineage.Graph, hashes []string) (Summary, error) {
	fams := discovery.Families(g, r.cfg.Threshold)
	byHash := make(map[string]lineage.Family, len(fams))
	for _, fam := range fams {
		byHash[lineage.NewFingerprint(fam).Hash()] = fam
	}

	selected := make([]lineage.Family, 0, len(hashes))
	for _, h := range hashes {
		if err := apperrors.ValidateFamilyHash(h); err != nil {
			return Summary{}, err
		}
		fam, ok := byHash[h]
		if !ok {
			return Summary{}, apperrors.New(apperrors.ErrCodeFamilyNotFound, "no current family with hash %s", h)
		}
		selected = append(selected, fam)
	}
	return r.optimizeFamilies(ctx, selected)
}

func (r *Runner) optimizeFamilies(ctx context.Context, fams []lineage.Family) (Summary, error) {
	summary := Summary{Families: len(fams)}

	var mu sync.Mutex
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(r.cfg.Concurrency)

	for _, fam := range fams {
		grp.Go(func() error {
			out, err := r.OptimizeFamily(ctx, fam)
			if err != nil {
				return err
			}
			mu.Lock()
			if out.CacheHit {
				summary.CacheHits++
			} else {
				summary.Optimized++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) setActive(hash string, v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v {
		r.active[hash] = true
	} else {
		delete(r.active, hash)
	}
}

// buildLayoutData pairs each chain with its assigned lane.
func buildLayoutData(chains []lineage.Chain, links []*lineage.Link, lanes map[string]int) store.LayoutData {
	data := store.LayoutData{
		Chains: make([]store.LayoutChain, 0, len(chains)),
		Links:  make([]store.LayoutLink, 0, len(links)),
	}
	for _, c := range chains {
		data.Chains = append(data.Chains, store.LayoutChain{
			ID:      c.ID,
			NodeIDs: c.NodeIDs,
			Start:   c.Start,
			End:     c.End,
			Y:       lanes[c.ID],
		})
	}
	for _, l := range links {
		data.Links = append(data.Links, store.LayoutLink{
			ID:          l.ID,
			Predecessor: l.Predecessor,
			Successor:   l.Successor,
			Year:        l.Year,
		})
	}
	return data
}

// short truncates a hash for log output.
func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// keyedMutex serializes work per key without holding a global lock during
// the work itself.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns the release function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
