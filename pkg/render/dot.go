package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes year spans and link kinds in labels.
	// When false, only entity names are shown.
	Detailed bool
}

// FamilyDOT converts a family's succession graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func FamilyDOT(fam lineage.Family, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph family {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range fam.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, nodeLabel(*n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, l := range fam.Links {
		if opts.Detailed {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", l.Predecessor, l.Successor,
				fmt.Sprintf("%s %d", l.Kind, l.Year))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", l.Predecessor, l.Successor)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// LayoutDOT converts an optimized layout to Graphviz DOT format. Chains are
// drawn along a left-to-right time axis and pinned to rows by their assigned
// lane, so the picture matches the lane geometry the optimizer scored.
func LayoutDOT(data store.LayoutData) string {
	var buf bytes.Buffer
	buf.WriteString("digraph layout {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("\n")

	byLane := make(map[int][]store.LayoutChain)
	for _, c := range data.Chains {
		byLane[c.Y] = append(byLane[c.Y], c)
	}

	for _, lane := range sortedLanes(byLane) {
		chains := byLane[lane]
		slices.SortFunc(chains, func(a, b store.LayoutChain) int { return a.Start - b.Start })

		fmt.Fprintf(&buf, "  subgraph cluster_lane_%d {\n", lane)
		fmt.Fprintf(&buf, "    label=\"lane %d\";\n", lane)
		buf.WriteString("    style=dashed;\n")
		buf.WriteString("    color=grey;\n")
		for _, c := range chains {
			fmt.Fprintf(&buf, "    %q [label=%q];\n", c.ID, chainLabel(c))
		}
		// Invisible edges keep same-lane chains in temporal order.
		for i := 1; i < len(chains); i++ {
			fmt.Fprintf(&buf, "    %q -> %q [style=invis];\n", chains[i-1].ID, chains[i].ID)
		}
		buf.WriteString("  }\n")
	}

	chainOf := make(map[string]string)
	for _, c := range data.Chains {
		for _, id := range c.NodeIDs {
			chainOf[id] = c.ID
		}
	}

	buf.WriteString("\n")
	for _, l := range data.Links {
		from, to := chainOf[l.Predecessor], chainOf[l.Successor]
		if from == "" || to == "" || from == to {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", from, to, l.Year)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n lineage.Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = n.ID
	}
	if !detailed {
		return name
	}
	end := "…"
	if n.Dissolution != nil {
		end = fmt.Sprintf("%d", *n.Dissolution)
	}
	return fmt.Sprintf("%s\n%d–%s", name, n.Founding, end)
}

func chainLabel(c store.LayoutChain) string {
	return fmt.Sprintf("%s\n%d–%d", strings.Join(c.NodeIDs, " → "), c.Start, c.End)
}

func sortedLanes(m map[int][]store.LayoutChain) []int {
	lanes := make([]int, 0, len(m))
	for k := range m {
		lanes = append(lanes, k)
	}
	slices.Sort(lanes)
	return lanes
}
