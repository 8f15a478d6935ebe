package lineage

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidLinkID is returned by [Graph.AddLink] when the link ID is empty.
	ErrInvalidLinkID = errors.New("link ID must not be empty")

	// ErrDuplicateLinkID is returned by [Graph.AddLink] when a link with the
	// same ID already exists.
	ErrDuplicateLinkID = errors.New("duplicate link ID")

	// ErrUnknownPredecessor is returned by [Graph.AddLink] when the predecessor
	// node does not exist in the graph.
	ErrUnknownPredecessor = errors.New("unknown predecessor node")

	// ErrUnknownSuccessor is returned by [Graph.AddLink] when the successor
	// node does not exist in the graph.
	ErrUnknownSuccessor = errors.New("unknown successor node")

	// ErrGraphHasCycle is returned by [Graph.Validate] and [BuildChains] when a
	// node is reachable as its own ancestor. Succession is historical and must
	// be acyclic; a cycle indicates corrupted input, not a layout problem.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Era is a named period within an entity's lifetime. Eras are display
// metadata only: they never participate in fingerprints or layout, with the
// single exception of era-derived effective end years (see [Node.EffectiveEnd]).
type Era struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   *int   `json:"end,omitempty"`
}

// LinkKind classifies a succession event.
type LinkKind int

const (
	// KindTransfer is an ordinary 1:1 succession.
	KindTransfer LinkKind = iota
	// KindMerge marks a link participating in a many-predecessors-into-one event.
	KindMerge
	// KindSplit marks a link participating in a one-predecessor-into-many event.
	KindSplit
	// KindSpiritual is a claimed succession without legal continuity.
	KindSpiritual
)

// String returns the lowercase name of the kind.
func (k LinkKind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindMerge:
		return "merge"
	case KindSplit:
		return "split"
	case KindSpiritual:
		return "spiritual"
	default:
		return "unknown"
	}
}

// Node is an entity with a time-bounded existence. A nil Dissolution means
// the entity is open-ended (still active, or a "zombie" whose end was never
// recorded). Name and Eras are display metadata and are excluded from
// structural fingerprints.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Founding    int    `json:"founding"`
	Dissolution *int   `json:"dissolution,omitempty"`
	Eras        []Era  `json:"eras,omitempty"`
}

// EffectiveEnd returns the year through which the node occupies its lane.
// A dissolved node ends at its dissolution year. An open-ended node extends
// through currentYear: zombies included, which is a known source of false
// overlap breaks. Callers that want era-derived ends must opt in via
// [EffectiveEndFromEras] so the behavior change is explicit.
func (n Node) EffectiveEnd(currentYear int) int {
	if n.Dissolution != nil {
		return *n.Dissolution
	}
	return currentYear
}

// EffectiveEndFromEras is like [Node.EffectiveEnd] but, for open-ended nodes,
// uses the latest closed era's end year when one exists. This deliberately
// changes chain-break behavior for zombie nodes and must be selected
// explicitly by the caller.
func EffectiveEndFromEras(n Node, currentYear int) int {
	if n.Dissolution != nil {
		return *n.Dissolution
	}
	end := 0
	for _, e := range n.Eras {
		if e.End != nil && *e.End > end {
			end = *e.End
		}
	}
	if end > 0 {
		return end
	}
	return currentYear
}

// Link is a directed succession event from a predecessor entity to a
// successor entity in a given year.
type Link struct {
	ID          string   `json:"id"`
	Predecessor string   `json:"predecessor"`
	Successor   string   `json:"successor"`
	Year        int      `json:"year"`
	Kind        LinkKind `json:"kind"`
}

// Graph is a read-only snapshot of the full entity/event dataset as supplied
// by the surrounding system. It indexes per-node predecessors and successors
// for the chain builder and discovery service.
//
// The zero value is not usable - use [NewGraph]. Graph is not safe for
// concurrent mutation; once built it may be read from multiple goroutines.
type Graph struct {
	nodes map[string]*Node
	links map[string]*Link
	succ  map[string][]string // node ID -> successor node IDs
	pred  map[string][]string // node ID -> predecessor node IDs
}

// NewGraph creates an empty graph snapshot.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		links: make(map[string]*Link),
		succ:  make(map[string][]string),
		pred:  make(map[string][]string),
	}
}

// AddNode adds an entity to the snapshot.
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID if the ID
// is already present.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := n
	g.nodes[node.ID] = &node
	return nil
}

// AddLink adds a succession event between two existing entities.
// Returns ErrInvalidLinkID, ErrDuplicateLinkID, ErrUnknownPredecessor, or
// ErrUnknownSuccessor on invalid input.
func (g *Graph) AddLink(l Link) error {
	if l.ID == "" {
		return ErrInvalidLinkID
	}
	if _, exists := g.links[l.ID]; exists {
		return ErrDuplicateLinkID
	}
	if _, ok := g.nodes[l.Predecessor]; !ok {
		return ErrUnknownPredecessor
	}
	if _, ok := g.nodes[l.Successor]; !ok {
		return ErrUnknownSuccessor
	}
	link := l
	g.links[link.ID] = &link
	g.succ[link.Predecessor] = append(g.succ[link.Predecessor], link.Successor)
	g.pred[link.Successor] = append(g.pred[link.Successor], link.Predecessor)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes. The order is not guaranteed.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// Links returns all links. The order is not guaranteed.
func (g *Graph) Links() []*Link {
	links := make([]*Link, 0, len(g.links))
	for _, l := range g.links {
		links = append(links, l)
	}
	return links
}

// Successors returns the IDs of entities this node succeeds into.
// The returned slice is a read-only view.
func (g *Graph) Successors(id string) []string { return g.succ[id] }

// Predecessors returns the IDs of entities that succeed into this node.
// The returned slice is a read-only view.
func (g *Graph) Predecessors(id string) []string { return g.pred[id] }

// NodeCount returns the number of entities in the snapshot.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of succession events in the snapshot.
func (g *Graph) LinkCount() int { return len(g.links) }

// Validate checks that the succession graph is acyclic.
// Returns ErrGraphHasCycle if any node is reachable as its own ancestor.
// Cycle detection runs in O(N+L) time using depth-first search with
// white/gray/black coloring.
func (g *Graph) Validate() error {
	return detectCycle(g.Nodes(), g.succ)
}

// Family is the node and link set of one connected component of the
// undirected succession graph. Families have no persistent identity: they are
// re-derived on every discovery pass and referenced only via their
// fingerprint hash. Nodes and Links are sorted by ID for determinism.
type Family struct {
	Nodes []*Node
	Links []*Link
}

// NewFamily builds a family from the given nodes and links, sorting both by
// ID so downstream fingerprinting and iteration are deterministic.
func NewFamily(nodes []*Node, links []*Link) Family {
	nodes = slices.Clone(nodes)
	links = slices.Clone(links)
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(links, func(a, b *Link) int { return strings.Compare(a.ID, b.ID) })
	return Family{Nodes: nodes, Links: links}
}

// NodeIDs returns the sorted IDs of the family's nodes.
func (f Family) NodeIDs() []string {
	ids := make([]string, len(f.Nodes))
	for i, n := range f.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Size returns the number of entities in the family.
func (f Family) Size() int { return len(f.Nodes) }
