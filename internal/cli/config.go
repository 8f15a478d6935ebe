package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lanegraph/lanegraph/pkg/discovery"
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/layout"
	"github.com/lanegraph/lanegraph/pkg/runner"
)

// defaultConfigFile is picked up from the working directory when --config is
// not given.
const defaultConfigFile = "lanegraph.toml"

// Config is the decoded form of a lanegraph.toml file. Zero values fall back
// to the package defaults, so a partial file only overrides what it names.
type Config struct {
	CurrentYear int `toml:"current_year"`
	Threshold   int `toml:"threshold"`
	Concurrency int `toml:"concurrency"`

	Store     StoreConfig     `toml:"store"`
	Optimizer OptimizerConfig `toml:"optimizer"`
	Weights   WeightsConfig   `toml:"weights"`
}

// StoreConfig selects and configures the layout store backend.
type StoreConfig struct {
	Backend string      `toml:"backend"` // memory, redis, or mongo
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig holds redis backend settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig holds mongo backend settings.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// OptimizerConfig mirrors [layout.Params] in file form.
type OptimizerConfig struct {
	PopulationSize int              `toml:"population_size"`
	Generations    int              `toml:"generations"`
	MutationRate   float64          `toml:"mutation_rate"`
	Patience       int              `toml:"patience"`
	TimeoutSeconds int              `toml:"timeout_seconds"`
	Seed           uint64           `toml:"seed"`
	Strategies     StrategiesConfig `toml:"strategies"`
}

// StrategiesConfig holds the mutation strategy mix.
type StrategiesConfig struct {
	Swap        float64 `toml:"swap"`
	Heuristic   float64 `toml:"heuristic"`
	Compaction  float64 `toml:"compaction"`
	Exploration float64 `toml:"exploration"`
}

// WeightsConfig mirrors [layout.Weights] in file form.
type WeightsConfig struct {
	Attraction    *float64 `toml:"attraction"`
	CutThrough    *float64 `toml:"cut_through"`
	Blocker       *float64 `toml:"blocker"`
	OverlapBase   *float64 `toml:"overlap_base"`
	OverlapFactor *float64 `toml:"overlap_factor"`
	StrangerGap   *float64 `toml:"stranger_gap"`
}

// loadConfig reads the config file at path. An empty path tries
// lanegraph.toml in the working directory and silently falls back to
// defaults when it does not exist; an explicit path must exist.
func loadConfig(path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "decode config %s", path)
	}

	switch cfg.Store.Backend {
	case "", "memory", "redis", "mongo":
	default:
		return cfg, apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}

// optimizerParams folds the file settings over [layout.DefaultParams].
func (c Config) optimizerParams() layout.Params {
	p := layout.DefaultParams()
	if c.Optimizer.PopulationSize > 0 {
		p.PopulationSize = c.Optimizer.PopulationSize
	}
	if c.Optimizer.Generations > 0 {
		p.Generations = c.Optimizer.Generations
	}
	if c.Optimizer.MutationRate > 0 {
		p.MutationRate = c.Optimizer.MutationRate
	}
	if c.Optimizer.Patience > 0 {
		p.Patience = c.Optimizer.Patience
	}
	if c.Optimizer.TimeoutSeconds > 0 {
		p.Timeout = time.Duration(c.Optimizer.TimeoutSeconds) * time.Second
	}
	if c.Optimizer.Seed != 0 {
		p.Seed = c.Optimizer.Seed
	}
	s := c.Optimizer.Strategies
	if s.Swap+s.Heuristic+s.Compaction+s.Exploration > 0 {
		p.Strategies = layout.StrategyProbs{
			Swap:        s.Swap,
			Heuristic:   s.Heuristic,
			Compaction:  s.Compaction,
			Exploration: s.Exploration,
		}
	}
	return p
}

// weights folds the file settings over [layout.DefaultWeights]. Pointers
// distinguish "unset" from an explicit zero, so a term can be disabled from
// the file.
func (c Config) weights() layout.Weights {
	w := layout.DefaultWeights()
	if v := c.Weights.Attraction; v != nil {
		w.Attraction = *v
	}
	if v := c.Weights.CutThrough; v != nil {
		w.CutThrough = *v
	}
	if v := c.Weights.Blocker; v != nil {
		w.Blocker = *v
	}
	if v := c.Weights.OverlapBase; v != nil {
		w.OverlapBase = *v
	}
	if v := c.Weights.OverlapFactor; v != nil {
		w.OverlapFactor = *v
	}
	if v := c.Weights.StrangerGap; v != nil {
		w.StrangerGap = *v
	}
	return w
}

// discoveryConfig builds the discovery service settings.
func (c Config) discoveryConfig(currentYear int) discovery.Config {
	return discovery.Config{
		Threshold:   c.Threshold,
		CurrentYear: currentYear,
	}
}

// runnerConfig builds the runner settings.
func (c Config) runnerConfig(currentYear int) runner.Config {
	return runner.Config{
		Params:      c.optimizerParams(),
		Weights:     c.weights(),
		CurrentYear: currentYear,
		Concurrency: c.Concurrency,
		Threshold:   c.Threshold,
	}
}

// effectiveYear picks the anchor year: CLI config wins, then the dataset's
// current_year, then zero (letting downstream default to the wall clock).
func (c Config) effectiveYear(datasetYear int) int {
	if c.CurrentYear != 0 {
		return c.CurrentYear
	}
	return datasetYear
}
