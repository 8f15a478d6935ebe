package layout

import (
	"slices"
	"strings"

	"github.com/lanegraph/lanegraph/pkg/lineage"
)

// Weights controls the relative strength of the cost terms. Setting a weight
// to zero disables its term entirely.
type Weights struct {
	// Attraction pulls child chains toward their parents' lanes
	// (squared vertical distance).
	Attraction float64 `json:"attraction"`
	// CutThrough penalizes a succession edge's vertical segment passing
	// through a lane occupied by an unrelated chain.
	CutThrough float64 `json:"cut_through"`
	// Blocker penalizes a chain sitting inside another succession edge's
	// vertical segment during that edge's year.
	Blocker float64 `json:"blocker"`
	// OverlapBase is the flat penalty for two chains sharing a lane with
	// overlapping time ranges.
	OverlapBase float64 `json:"overlap_base"`
	// OverlapFactor scales with the number of overlapping years.
	OverlapFactor float64 `json:"overlap_factor"`
	// StrangerGap penalizes unrelated chains sharing a lane with fewer than
	// two empty years between them.
	StrangerGap float64 `json:"stranger_gap"`
}

// DefaultWeights returns the weights used in production.
func DefaultWeights() Weights {
	return Weights{
		Attraction:    1,
		CutThrough:    4,
		Blocker:       3,
		OverlapBase:   50,
		OverlapFactor: 5,
		StrangerGap:   10,
	}
}

// Assignment maps chain IDs to lanes (y-indices). Assignments are treated as
// immutable values by the optimizer: mutations clone before writing.
type Assignment map[string]int

// Clone returns a copy of the assignment.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for id, y := range a {
		out[id] = y
	}
	return out
}

// relation is a succession edge lifted to chain level: the link's
// predecessor node sits in the parent chain, its successor node in the child.
// Links between members of the same chain disappear here.
type relation struct {
	Parent string
	Child  string
	Year   int
}

// Term is one cost component of a breakdown: the raw multiplier (count,
// magnitude, or average distance) and the weighted contribution to the total.
type Term struct {
	Raw      float64 `json:"raw"`
	Weighted float64 `json:"weighted"`
}

func (t *Term) add(raw, weighted float64) {
	t.Raw += raw
	t.Weighted += weighted
}

// Breakdown is the per-term diagnostic view of a cost. For Attraction, Raw
// is the average squared lane distance to parents; for the other terms Raw
// is the collision count or overlap magnitude.
type Breakdown struct {
	Attraction  Term    `json:"attraction"`
	CutThrough  Term    `json:"cut_through"`
	Blocker     Term    `json:"blocker"`
	LaneSharing Term    `json:"lane_sharing"`
	Total       float64 `json:"total"`
}

func (b *Breakdown) merge(other Breakdown) {
	b.Attraction.add(other.Attraction.Raw, other.Attraction.Weighted)
	b.CutThrough.add(other.CutThrough.Raw, other.CutThrough.Weighted)
	b.Blocker.add(other.Blocker.Raw, other.Blocker.Weighted)
	b.LaneSharing.add(other.LaneSharing.Raw, other.LaneSharing.Weighted)
	b.Total += other.Total
}

// Evaluator scores lane assignments for one family's chains. It precomputes
// chain-level parent/child relations from the family's links and is safe for
// concurrent use once constructed.
type Evaluator struct {
	chains   map[string]lineage.Chain
	ids      []string // sorted chain IDs, the deterministic iteration order
	rels     []relation
	parents  map[string][]string // chain ID -> parent chain IDs, sorted
	children map[string][]string // chain ID -> child chain IDs, sorted
	weights  Weights
}

// NewEvaluator builds an evaluator for the given chains and the family's
// links. Links whose endpoints fall inside a single chain carry no layout
// information and are dropped.
func NewEvaluator(chains []lineage.Chain, links []*lineage.Link, w Weights) *Evaluator {
	e := &Evaluator{
		chains:   make(map[string]lineage.Chain, len(chains)),
		ids:      make([]string, 0, len(chains)),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		weights:  w,
	}

	nodeChain := make(map[string]string)
	for _, c := range chains {
		e.chains[c.ID] = c
		e.ids = append(e.ids, c.ID)
		for _, nodeID := range c.NodeIDs {
			nodeChain[nodeID] = c.ID
		}
	}
	slices.Sort(e.ids)

	seen := make(map[[2]string]bool)
	for _, l := range links {
		pc, pok := nodeChain[l.Predecessor]
		cc, cok := nodeChain[l.Successor]
		if !pok || !cok || pc == cc {
			continue
		}
		e.rels = append(e.rels, relation{Parent: pc, Child: cc, Year: l.Year})
		if !seen[[2]string{pc, cc}] {
			seen[[2]string{pc, cc}] = true
			e.parents[cc] = append(e.parents[cc], pc)
			e.children[pc] = append(e.children[pc], cc)
		}
	}
	slices.SortFunc(e.rels, func(a, b relation) int {
		if c := strings.Compare(a.Parent, b.Parent); c != 0 {
			return c
		}
		if c := strings.Compare(a.Child, b.Child); c != 0 {
			return c
		}
		return a.Year - b.Year
	})
	for _, m := range []map[string][]string{e.parents, e.children} {
		for id := range m {
			slices.Sort(m[id])
		}
	}
	return e
}

// ChainIDs returns the evaluator's chain IDs in sorted order.
// The returned slice is a read-only view.
func (e *Evaluator) ChainIDs() []string { return e.ids }

// Parents returns the parent chain IDs of a chain, sorted.
func (e *Evaluator) Parents(id string) []string { return e.parents[id] }

// Children returns the child chain IDs of a chain, sorted.
func (e *Evaluator) Children(id string) []string { return e.children[id] }

// related reports whether two chains are a family pair: one is a direct
// parent or child of the other. Everything else is a stranger pair.
func (e *Evaluator) related(a, b string) bool {
	return slices.Contains(e.parents[a], b) || slices.Contains(e.children[a], b)
}

// ChainCost scores placing one chain at lane y against the rest of the
// assignment. Lower is better; zero means the placement conflicts with
// nothing.
func (e *Evaluator) ChainCost(id string, y int, a Assignment) float64 {
	return e.ChainCostBreakdown(id, y, a).Total
}

// ChainCostBreakdown is [Evaluator.ChainCost] with the per-term diagnostic
// breakdown.
func (e *Evaluator) ChainCostBreakdown(id string, y int, a Assignment) Breakdown {
	overlay := a
	if cur, ok := a[id]; !ok || cur != y {
		overlay = a.Clone()
		overlay[id] = y
	}
	ix := e.buildLaneIndex(overlay)
	segs := e.segments(overlay)
	return e.chainCost(id, y, overlay, ix, segs)
}

// Total returns the fitness of a full assignment: the sum of every chain's
// single-chain cost. Symmetric conflicts (two chains sharing a lane) are
// counted from both sides, which keeps the measure consistent across
// candidates.
func (e *Evaluator) Total(a Assignment) float64 {
	return e.TotalBreakdown(a).Total
}

// TotalBreakdown is [Evaluator.Total] with the per-term breakdown summed
// over all chains.
func (e *Evaluator) TotalBreakdown(a Assignment) Breakdown {
	ix := e.buildLaneIndex(a)
	segs := e.segments(a)
	var total Breakdown
	for _, id := range e.ids {
		y, ok := a[id]
		if !ok {
			continue
		}
		total.merge(e.chainCost(id, y, a, ix, segs))
	}
	return total
}

func (e *Evaluator) chainCost(id string, y int, a Assignment, ix laneIndex, segs []Segment) Breakdown {
	var b Breakdown
	c := e.chains[id]

	// ATTRACTION: squared lane distance to each parent chain.
	if e.weights.Attraction != 0 {
		sum, count := 0.0, 0
		for _, p := range e.parents[id] {
			py, ok := a[p]
			if !ok {
				continue
			}
			d := float64(y - py)
			sum += d * d
			count++
		}
		if count > 0 {
			b.Attraction = Term{Raw: sum / float64(count), Weighted: e.weights.Attraction * sum}
		}
	}

	// Lane sharing: overlap and gap policy against every other chain on y.
	for _, o := range ix[y] {
		if o.id == id {
			continue
		}
		b.LaneSharing.add(e.pairCost(c, o))
	}

	// BLOCKER: other succession edges whose vertical segment straddles y
	// during the chain's lifetime.
	if e.weights.Blocker != 0 {
		count := 0
		for _, s := range segs {
			if s.Parent == id || s.Child == id {
				continue
			}
			if s.Low < y && y < s.High && c.Start <= s.Year && s.Year <= c.End {
				count++
			}
		}
		if count > 0 {
			b.Blocker = Term{Raw: float64(count), Weighted: e.weights.Blocker * float64(count)}
		}
	}

	// CUT_THROUGH: lanes this chain's own edges pass through that the
	// collision checker reports as occupied at the succession year.
	if e.weights.CutThrough != 0 {
		count := 0
		for _, r := range e.rels {
			if r.Parent != id && r.Child != id {
				continue
			}
			other := r.Parent
			if other == id {
				other = r.Child
			}
			oy, ok := a[other]
			if !ok {
				continue
			}
			lo, hi := y, oy
			if lo > hi {
				lo, hi = hi, lo
			}
			for lane := lo + 1; lane < hi; lane++ {
				if ix.blocked(lane, r.Year, id, other) {
					count++
				}
			}
		}
		if count > 0 {
			b.CutThrough = Term{Raw: float64(count), Weighted: e.weights.CutThrough * float64(count)}
		}
	}

	b.Total = b.Attraction.Weighted + b.CutThrough.Weighted + b.Blocker.Weighted + b.LaneSharing.Weighted
	return b
}

// pairCost scores two chains sharing a lane. The gap is the number of empty
// years between them: gap 0 means touching (parent.End+1 == child.Start).
// Family pairs may touch for free; stranger pairs need gap >= 2, with bare
// adjacency (gap 1) penalized below an actual overlap.
func (e *Evaluator) pairCost(c lineage.Chain, o occupant) (raw, weighted float64) {
	earlierEnd, laterStart := c.End, o.start
	if o.start < c.Start {
		earlierEnd, laterStart = o.end, c.Start
	}
	gap := laterStart - earlierEnd - 1

	if gap < 0 {
		magnitude := float64(-gap)
		return magnitude, e.weights.OverlapBase + e.weights.OverlapFactor*magnitude
	}
	if e.related(c.ID, o.id) || gap >= 2 {
		return 0, 0
	}
	shortfall := float64(2 - gap)
	return shortfall, e.weights.StrangerGap * shortfall
}
