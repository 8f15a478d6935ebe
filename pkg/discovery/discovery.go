// Package discovery finds families - connected components of the succession
// graph - and reconciles the layout cache against them.
//
// A discovery pass is the only writer that creates or prunes cache rows. It
// guarantees that after a pass completes, exactly one row exists per
// above-threshold component: families absorbed by a merge, split apart, or
// shrunk below the threshold lose their rows, and families whose structure
// changed in place keep one updated row marked stale.
package discovery

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/observability"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// DefaultThreshold is the minimum number of entities a connected component
// needs to be material for layout.
const DefaultThreshold = 20

// Config holds discovery settings.
type Config struct {
	// Threshold is the minimum family size. Zero means DefaultThreshold.
	Threshold int
	// CurrentYear anchors open-ended entities. Zero means the wall-clock year.
	CurrentYear int
}

// Report summarizes one discovery pass.
type Report struct {
	Components int      // connected components found, any size
	Families   int      // components at or above the threshold
	Created    int      // new cache rows inserted
	Updated    int      // rows re-keyed in place after an internal edit
	Pruned     int      // rows deleted as superseded or vanished
	Unchanged  int      // fresh rows left untouched
	Pending    []string // family hashes awaiting (re-)optimization
}

// Service runs discovery passes against a layout store.
type Service struct {
	store  store.Store
	logger *log.Logger
	cfg    Config
}

// NewService creates a discovery service. A nil logger discards output.
func NewService(st store.Store, logger *log.Logger, cfg Config) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	return &Service{store: st, logger: logger, cfg: cfg}
}

// Families decomposes the graph into connected components of its undirected
// link structure and returns those with at least threshold nodes, each with
// its nodes and links sorted by ID. The result is deterministic for a given
// graph.
func Families(g *lineage.Graph, threshold int) []lineage.Family {
	uf := newUnionFind()
	for _, n := range g.Nodes() {
		uf.add(n.ID)
	}
	for _, l := range g.Links() {
		uf.union(l.Predecessor, l.Successor)
	}

	nodesByRoot := make(map[string][]*lineage.Node)
	for _, n := range g.Nodes() {
		root := uf.find(n.ID)
		nodesByRoot[root] = append(nodesByRoot[root], n)
	}
	linksByRoot := make(map[string][]*lineage.Link)
	for _, l := range g.Links() {
		root := uf.find(l.Predecessor)
		linksByRoot[root] = append(linksByRoot[root], l)
	}

	var fams []lineage.Family
	for root, nodes := range nodesByRoot {
		if len(nodes) < threshold {
			continue
		}
		fams = append(fams, lineage.NewFamily(nodes, linksByRoot[root]))
	}
	// Map iteration order is random; sort by first node ID.
	slices.SortFunc(fams, func(a, b lineage.Family) int {
		return strings.Compare(a.Nodes[0].ID, b.Nodes[0].ID)
	})
	return fams
}

// ComponentCount returns the number of connected components of any size.
func ComponentCount(g *lineage.Graph) int {
	uf := newUnionFind()
	for _, n := range g.Nodes() {
		uf.add(n.ID)
	}
	for _, l := range g.Links() {
		uf.union(l.Predecessor, l.Successor)
	}
	roots := make(map[string]bool)
	for _, n := range g.Nodes() {
		roots[uf.find(n.ID)] = true
	}
	return len(roots)
}

// Discover runs one full pass: decompose the graph, fingerprint each
// material family, and reconcile the cache. All cache writes are applied as
// a single changeset, so no reader observes a half-reconciled row set.
//
// Discover is idempotent: a second pass over an unchanged graph writes
// nothing and reports everything unchanged or pending.
func (s *Service) Discover(ctx context.Context, g *lineage.Graph) (Report, error) {
	var report Report

	if err := g.Validate(); err != nil {
		return report, fmt.Errorf("discovery precondition: %w", err)
	}

	start := time.Now()
	observability.Discovery().OnDiscoveryStart(ctx, len(g.Nodes()), len(g.Links()))
	var passErr error
	defer func() {
		observability.Discovery().OnDiscoveryComplete(ctx,
			report.Families, report.Created, report.Pruned, time.Since(start), passErr)
	}()

	report.Components = ComponentCount(g)
	fams := Families(g, s.cfg.Threshold)
	report.Families = len(fams)

	rows, err := s.store.List(ctx)
	if err != nil {
		passErr = fmt.Errorf("list cache rows: %w", err)
		return report, passErr
	}

	byHash := make(map[string]store.Layout, len(rows))
	byNodeSet := make(map[string]string, len(rows)) // node-set key -> family hash
	for _, row := range rows {
		if _, dup := byHash[row.FamilyHash]; dup {
			// Two rows with one hash violate the cache's core invariant.
			// This cannot be repaired here; fail loudly.
			s.logger.Error("duplicate family hash in layout cache",
				"family_hash", row.FamilyHash)
			passErr = fmt.Errorf("cache invariant: %w: %s", store.ErrDuplicateHash, row.FamilyHash)
			return report, passErr
		}
		byHash[row.FamilyHash] = row
		byNodeSet[nodeSetKey(row.DataFingerprint.NodeIDs)] = row.FamilyHash
	}

	var cs store.Changeset
	matched := make(map[string]bool, len(fams))

	for _, fam := range fams {
		fp := lineage.NewFingerprint(fam)
		hash := fp.Hash()

		if row, ok := byHash[hash]; ok {
			// Identical structure: the hash covers the full fingerprint, so
			// the stored fingerprint cannot have drifted.
			matched[hash] = true
			if row.Pending() {
				report.Pending = append(report.Pending, hash)
			} else {
				report.Unchanged++
			}
			continue
		}

		if oldHash, ok := byNodeSet[nodeSetKey(fp.NodeIDs)]; ok && !matched[oldHash] {
			// Same entity set, different structure: an internal edit. Re-key
			// the row and mark it stale instead of deleting, preserving the
			// score history until re-optimization.
			row := byHash[oldHash]
			row.FamilyHash = hash
			row.DataFingerprint = fp
			row.IsStale = true
			matched[oldHash] = true
			cs.Delete = append(cs.Delete, oldHash)
			cs.Put = append(cs.Put, row)
			report.Updated++
			report.Pending = append(report.Pending, hash)
			continue
		}

		// A family this hash has never described: brand new, or the product
		// of a merge/split whose constituents are pruned below.
		cs.Put = append(cs.Put, store.Layout{
			FamilyHash:      hash,
			DataFingerprint: fp,
		})
		report.Created++
		report.Pending = append(report.Pending, hash)
	}

	// Anything unmatched was absorbed, split apart, or fell below the
	// threshold; leaving it would keep a ghost row alive.
	for _, row := range rows {
		if !matched[row.FamilyHash] {
			cs.Delete = append(cs.Delete, row.FamilyHash)
			report.Pruned++
		}
	}

	if !cs.Empty() {
		if err := s.store.Apply(ctx, cs); err != nil {
			passErr = fmt.Errorf("apply reconciliation: %w", err)
			return report, passErr
		}
	}

	s.logger.Info("discovery pass complete",
		"components", report.Components,
		"families", report.Families,
		"created", report.Created,
		"updated", report.Updated,
		"pruned", report.Pruned,
		"unchanged", report.Unchanged,
		"pending", len(report.Pending))
	return report, nil
}

func nodeSetKey(sortedIDs []string) string {
	return strings.Join(sortedIDs, "\x1f")
}

// unionFind is a disjoint-set forest with path compression and union by size.
type unionFind struct {
	parent map[string]string
	size   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string), size: make(map[string]int)}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
		u.size[id] = 1
	}
}

func (u *unionFind) find(id string) string {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		u.parent[id], id = root, u.parent[id]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	u.add(a)
	u.add(b)
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}
