package dataset

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
)

const sampleDataset = `
current_year = 2025

[[entity]]
id = "guild-a"
name = "Guild of A"
founding = 1820
dissolution = 1890

[[entity]]
id = "guild-b"
name = "Guild of B"
founding = 1891

[[entity.era]]
name = "golden age"
start = 1900
end = 1930

[[succession]]
id = "s1"
predecessor = "guild-a"
successor = "guild-b"
year = 1891
kind = "transfer"
`

func TestParse(t *testing.T) {
	g, year, err := Parse([]byte(sampleDataset))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if year != 2025 {
		t.Errorf("current_year = %d, want 2025", year)
	}
	if g.NodeCount() != 2 || g.LinkCount() != 1 {
		t.Errorf("graph has %d nodes, %d links; want 2, 1", g.NodeCount(), g.LinkCount())
	}

	n, ok := g.Node("guild-b")
	if !ok {
		t.Fatal("guild-b missing")
	}
	if n.Dissolution != nil {
		t.Error("guild-b should be open-ended")
	}
	if len(n.Eras) != 1 || n.Eras[0].Name != "golden age" {
		t.Errorf("guild-b eras = %+v", n.Eras)
	}

	if got := g.Successors("guild-a"); len(got) != 1 || got[0] != "guild-b" {
		t.Errorf("successors of guild-a = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code apperrors.Code
	}{
		{
			name: "malformed toml",
			toml: `[[entity` + "\n",
			code: apperrors.ErrCodeInvalidFormat,
		},
		{
			name: "unknown kind",
			toml: `
[[entity]]
id = "a"
founding = 1900
[[entity]]
id = "b"
founding = 1910
[[succession]]
id = "s"
predecessor = "a"
successor = "b"
year = 1910
kind = "conquest"
`,
			code: apperrors.ErrCodeInvalidFormat,
		},
		{
			name: "dangling succession",
			toml: `
[[entity]]
id = "a"
founding = 1900
[[succession]]
id = "s"
predecessor = "a"
successor = "ghost"
year = 1910
`,
			code: apperrors.ErrCodeInvalidGraph,
		},
		{
			name: "bad entity id",
			toml: `
[[entity]]
id = "../etc"
founding = 1900
`,
			code: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "year out of range",
			toml: `
[[entity]]
id = "a"
founding = 99999
`,
			code: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "cycle",
			toml: `
[[entity]]
id = "a"
founding = 1900
[[entity]]
id = "b"
founding = 1910
[[succession]]
id = "s1"
predecessor = "a"
successor = "b"
year = 1910
[[succession]]
id = "s2"
predecessor = "b"
successor = "a"
year = 1920
`,
			code: apperrors.ErrCodeGraphCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.toml))
			if !apperrors.Is(err, tt.code) {
				t.Errorf("Parse error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineage.toml")
	if err := os.WriteFile(path, []byte(sampleDataset), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	g, year, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeCount() != 2 || year != 2025 {
		t.Errorf("Load returned %d nodes, year %d", g.NodeCount(), year)
	}

	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
		t.Errorf("Load missing file = %v, want FILE_NOT_FOUND", err)
	}
}
