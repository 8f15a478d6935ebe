package lineage

import (
	"slices"
	"strings"
)

// Chain is a maximal run of entities connected by strict 1:1 succession with
// no temporal overlap. It is the atomic unit the lane optimizer places.
// A chain is identified by the ID of its first node.
type Chain struct {
	ID      string   `json:"id"`
	NodeIDs []string `json:"node_ids"`
	Start   int      `json:"start"` // first node's founding year
	End     int      `json:"end"`   // last node's effective end year
}

// Len returns the number of entities in the chain.
func (c Chain) Len() int { return len(c.NodeIDs) }

// BuildChains collapses a family's graph into chains.
//
// A chain head is any node with zero predecessors, any merge point (two or
// more predecessors), or any node whose single predecessor cannot continue
// into it: the predecessor has multiple successors (split point), or the two
// overlap in time. Overlap is parent.End+1 > child.Founding, with End taken
// from [Node.EffectiveEnd] - an open-ended node extends through currentYear,
// zombies included. Touching spans (parent.End+1 == child.Founding) continue
// a chain.
//
// From each head the walk extends while the current node has exactly one
// successor, that successor has exactly one predecessor, and the pair does
// not overlap. Nodes with no links at all form singleton chains.
//
// Malformed input is a caller precondition violation, but BuildChains guards
// rather than misbehaves: a link naming a node outside the family returns
// ErrUnknownPredecessor or ErrUnknownSuccessor, and cyclic succession returns
// ErrGraphHasCycle instead of looping. Chains are returned sorted by start
// year, then ID.
func BuildChains(f Family, currentYear int) ([]Chain, error) {
	succ := make(map[string][]string, len(f.Nodes))
	pred := make(map[string][]string, len(f.Nodes))
	byID := make(map[string]*Node, len(f.Nodes))
	for _, n := range f.Nodes {
		byID[n.ID] = n
	}
	for _, l := range f.Links {
		if _, ok := byID[l.Predecessor]; !ok {
			return nil, ErrUnknownPredecessor
		}
		if _, ok := byID[l.Successor]; !ok {
			return nil, ErrUnknownSuccessor
		}
		succ[l.Predecessor] = append(succ[l.Predecessor], l.Successor)
		pred[l.Successor] = append(pred[l.Successor], l.Predecessor)
	}

	if err := detectCycle(f.Nodes, succ); err != nil {
		return nil, err
	}

	overlaps := func(parent, child *Node) bool {
		return parent.EffectiveEnd(currentYear)+1 > child.Founding
	}

	isHead := func(n *Node) bool {
		preds := pred[n.ID]
		switch {
		case len(preds) == 0:
			return true
		case len(preds) >= 2:
			return true
		}
		p := byID[preds[0]]
		if len(succ[p.ID]) != 1 {
			return true
		}
		return overlaps(p, n)
	}

	visited := make(map[string]bool, len(f.Nodes))
	chains := make([]Chain, 0, len(f.Nodes))

	for _, n := range f.Nodes {
		if !isHead(n) {
			continue
		}
		members := []string{n.ID}
		visited[n.ID] = true
		cur := n
		for {
			nexts := succ[cur.ID]
			if len(nexts) != 1 {
				break
			}
			next := byID[nexts[0]]
			if len(pred[next.ID]) != 1 {
				break
			}
			if overlaps(cur, next) {
				break
			}
			if visited[next.ID] {
				return nil, ErrGraphHasCycle
			}
			members = append(members, next.ID)
			visited[next.ID] = true
			cur = next
		}
		chains = append(chains, Chain{
			ID:      members[0],
			NodeIDs: members,
			Start:   byID[members[0]].Founding,
			End:     cur.EffectiveEnd(currentYear),
		})
	}

	// Any node not reached from a head sits on a cycle: a pure succession
	// loop has no zero-predecessor entry point.
	if len(visited) != len(f.Nodes) {
		return nil, ErrGraphHasCycle
	}

	slices.SortFunc(chains, func(a, b Chain) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return strings.Compare(a.ID, b.ID)
	})
	return chains, nil
}

func detectCycle(nodes []*Node, succ map[string][]string) error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, next := range succ[id] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, n := range nodes {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
