// Package dataset loads lineage graphs from TOML dataset files.
//
// A dataset file declares entities and the succession events between them:
//
//	current_year = 2025
//
//	[[entity]]
//	id = "guild-a"
//	name = "Guild of A"
//	founding = 1820
//	dissolution = 1890
//
//	[[succession]]
//	id = "s1"
//	predecessor = "guild-a"
//	successor = "guild-b"
//	year = 1890
//	kind = "transfer"
//
// Entities may carry optional [[entity.era]] blocks recording named periods;
// era bounds can substitute for a missing dissolution year when callers opt
// in via [lineage.EffectiveEndFromEras].
package dataset

import (
	"os"

	"github.com/BurntSushi/toml"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/lineage"
)

// Dataset is the decoded form of a dataset file.
type Dataset struct {
	CurrentYear int          `toml:"current_year"`
	Entities    []Entity     `toml:"entity"`
	Successions []Succession `toml:"succession"`
}

// Entity is one organizational entity declaration.
type Entity struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Founding    int    `toml:"founding"`
	Dissolution *int   `toml:"dissolution"`
	Eras        []Era  `toml:"era"`
}

// Era is a named period within an entity's existence.
type Era struct {
	Name  string `toml:"name"`
	Start int    `toml:"start"`
	End   *int   `toml:"end"`
}

// Succession is one succession event declaration.
type Succession struct {
	ID          string `toml:"id"`
	Predecessor string `toml:"predecessor"`
	Successor   string `toml:"successor"`
	Year        int    `toml:"year"`
	Kind        string `toml:"kind"`
}

// Load reads and parses a dataset file into a lineage graph.
// It returns the graph and the dataset's current_year (zero when the file
// does not set one).
func Load(path string) (*lineage.Graph, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "read dataset %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML dataset bytes into a validated lineage graph.
func Parse(data []byte) (*lineage.Graph, int, error) {
	var ds Dataset
	if err := toml.Unmarshal(data, &ds); err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode dataset")
	}

	g := lineage.NewGraph()
	for _, e := range ds.Entities {
		if err := apperrors.ValidateEntityID(e.ID); err != nil {
			return nil, 0, err
		}
		if err := apperrors.ValidateYear(e.Founding); err != nil {
			return nil, 0, err
		}
		if e.Dissolution != nil {
			if err := apperrors.ValidateYear(*e.Dissolution); err != nil {
				return nil, 0, err
			}
		}
		node := lineage.Node{
			ID:          e.ID,
			Name:        e.Name,
			Founding:    e.Founding,
			Dissolution: e.Dissolution,
		}
		for _, era := range e.Eras {
			node.Eras = append(node.Eras, lineage.Era{Name: era.Name, Start: era.Start, End: era.End})
		}
		if err := g.AddNode(node); err != nil {
			return nil, 0, apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "entity %s", e.ID)
		}
	}

	for _, s := range ds.Successions {
		if err := apperrors.ValidateEntityID(s.ID); err != nil {
			return nil, 0, err
		}
		if err := apperrors.ValidateYear(s.Year); err != nil {
			return nil, 0, err
		}
		kind, err := parseKind(s.Kind)
		if err != nil {
			return nil, 0, err
		}
		link := lineage.Link{
			ID:          s.ID,
			Predecessor: s.Predecessor,
			Successor:   s.Successor,
			Year:        s.Year,
			Kind:        kind,
		}
		if err := g.AddLink(link); err != nil {
			return nil, 0, apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "succession %s", s.ID)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrCodeGraphCycle, err, "dataset graph")
	}
	return g, ds.CurrentYear, nil
}

func parseKind(s string) (lineage.LinkKind, error) {
	switch s {
	case "", "transfer":
		return lineage.KindTransfer, nil
	case "merge":
		return lineage.KindMerge, nil
	case "split":
		return lineage.KindSplit, nil
	case "spiritual":
		return lineage.KindSpiritual, nil
	default:
		return 0, apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown succession kind %q", s)
	}
}
