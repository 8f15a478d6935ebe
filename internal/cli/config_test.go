package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lanegraph.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	// Explicit missing path fails.
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing config = %v, want FILE_NOT_FOUND", err)
	}

	// Empty config yields all package defaults.
	cfg, err := loadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got := cfg.optimizerParams(); got.PopulationSize != layout.DefaultParams().PopulationSize {
		t.Errorf("population = %d, want default", got.PopulationSize)
	}
	if got := cfg.weights(); got != layout.DefaultWeights() {
		t.Errorf("weights = %+v, want defaults", got)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
current_year = 1990
threshold = 5
concurrency = 8

[store]
backend = "redis"
[store.redis]
addr = "redis.internal:6379"
db = 2

[optimizer]
population_size = 120
generations = 800
mutation_rate = 0.5
patience = 100
timeout_seconds = 120
seed = 7
[optimizer.strategies]
swap = 0.7
heuristic = 0.1
compaction = 0.1
exploration = 0.1

[weights]
attraction = 2.5
blocker = 0.0
`))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	p := cfg.optimizerParams()
	if p.PopulationSize != 120 || p.Generations != 800 || p.MutationRate != 0.5 {
		t.Errorf("params = %+v", p)
	}
	if p.Timeout != 120*time.Second || p.Seed != 7 {
		t.Errorf("timeout/seed = %v/%d", p.Timeout, p.Seed)
	}
	if p.Strategies.Swap != 0.7 {
		t.Errorf("strategies = %+v", p.Strategies)
	}

	w := cfg.weights()
	if w.Attraction != 2.5 {
		t.Errorf("attraction = %v, want 2.5", w.Attraction)
	}
	// Explicit zero disables a term; unset terms keep defaults.
	if w.Blocker != 0 {
		t.Errorf("blocker = %v, want 0", w.Blocker)
	}
	if w.CutThrough != layout.DefaultWeights().CutThrough {
		t.Errorf("cut_through = %v, want default", w.CutThrough)
	}

	rc := cfg.runnerConfig(cfg.effectiveYear(2025))
	if rc.CurrentYear != 1990 {
		t.Errorf("config year should win over dataset year, got %d", rc.CurrentYear)
	}
	if rc.Threshold != 5 || rc.Concurrency != 8 {
		t.Errorf("runner config = %+v", rc)
	}
}

func TestLoadConfigBadBackend(t *testing.T) {
	_, err := loadConfig(writeConfig(t, `
[store]
backend = "sqlite"
`))
	if !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
		t.Errorf("bad backend = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "[store\n"))
	if !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
		t.Errorf("malformed config = %v, want INVALID_CONFIG", err)
	}
}

func TestEffectiveYear(t *testing.T) {
	var cfg Config
	if got := cfg.effectiveYear(1985); got != 1985 {
		t.Errorf("dataset year should apply, got %d", got)
	}
	cfg.CurrentYear = 2000
	if got := cfg.effectiveYear(1985); got != 2000 {
		t.Errorf("config year should win, got %d", got)
	}
}
