package render

import (
	"strings"
	"testing"

	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/store"
)

func intp(v int) *int { return &v }

func testFamily() lineage.Family {
	nodes := []*lineage.Node{
		{ID: "a1", Name: "Alpha I", Founding: 1900, Dissolution: intp(1930)},
		{ID: "a2", Name: "Alpha II", Founding: 1931, Dissolution: intp(1960)},
	}
	links := []*lineage.Link{
		{ID: "l1", Predecessor: "a1", Successor: "a2", Year: 1931, Kind: lineage.KindTransfer},
	}
	return lineage.NewFamily(nodes, links)
}

func TestFamilyDOT(t *testing.T) {
	dot := FamilyDOT(testFamily(), Options{})

	for _, want := range []string{
		"digraph family {",
		`"a1" [label="Alpha I"];`,
		`"a2" [label="Alpha II"];`,
		`"a1" -> "a2";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestFamilyDOTDetailed(t *testing.T) {
	dot := FamilyDOT(testFamily(), Options{Detailed: true})

	if !strings.Contains(dot, "1900–1930") {
		t.Errorf("detailed DOT missing year span:\n%s", dot)
	}
	if !strings.Contains(dot, "transfer 1931") {
		t.Errorf("detailed DOT missing link kind and year:\n%s", dot)
	}
}

func TestFamilyDOTOpenEnded(t *testing.T) {
	fam := lineage.NewFamily(
		[]*lineage.Node{{ID: "x", Name: "Extant", Founding: 1950}},
		nil,
	)
	dot := FamilyDOT(fam, Options{Detailed: true})
	if !strings.Contains(dot, "1950–…") {
		t.Errorf("open-ended entity should render an ellipsis:\n%s", dot)
	}
}

func TestLayoutDOT(t *testing.T) {
	data := store.LayoutData{
		Chains: []store.LayoutChain{
			{ID: "a1", NodeIDs: []string{"a1", "a2"}, Start: 1900, End: 1960, Y: 0},
			{ID: "b1", NodeIDs: []string{"b1"}, Start: 1970, End: 1990, Y: 0},
			{ID: "c1", NodeIDs: []string{"c1"}, Start: 1920, End: 1980, Y: 1},
		},
		Links: []store.LayoutLink{
			{ID: "l1", Predecessor: "a1", Successor: "a2", Year: 1931}, // intra-chain
			{ID: "l2", Predecessor: "a2", Successor: "c1", Year: 1920},
		},
	}

	dot := LayoutDOT(data)

	for _, want := range []string{
		"subgraph cluster_lane_0",
		"subgraph cluster_lane_1",
		`label="lane 0"`,
		`"a1" -> "b1" [style=invis];`,
		`"a1" -> "c1" [label="1920"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Links inside one chain carry no visible edge.
	if strings.Contains(dot, `"a1" -> "a2"`) {
		t.Errorf("intra-chain link rendered as edge:\n%s", dot)
	}
}

func TestLayoutDOTDeterministic(t *testing.T) {
	data := store.LayoutData{
		Chains: []store.LayoutChain{
			{ID: "b", NodeIDs: []string{"b"}, Start: 1950, End: 1970, Y: 2},
			{ID: "a", NodeIDs: []string{"a"}, Start: 1900, End: 1940, Y: 0},
			{ID: "c", NodeIDs: []string{"c"}, Start: 1910, End: 1960, Y: 1},
		},
	}
	first := LayoutDOT(data)
	for range 10 {
		if got := LayoutDOT(data); got != first {
			t.Fatal("LayoutDOT output varies between calls")
		}
	}
}
