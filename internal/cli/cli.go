// Package cli implements the lanegraph command-line interface.
//
// This package provides commands for discovering families in lineage
// datasets, optimizing their lane layouts, inspecting the layout cache, and
// exporting visualizations. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - discover: Decompose a dataset into families and reconcile the cache
//   - optimize: Run the lane optimizer for pending or stale families
//   - status: Show the cache state per family
//   - export: Write DOT, SVG, PNG, or PDF visualizations
//   - serve: Expose discovery and optimization over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/buildinfo"
	"github.com/lanegraph/lanegraph/pkg/store"
	"github.com/lanegraph/lanegraph/pkg/store/memory"
	"github.com/lanegraph/lanegraph/pkg/store/mongo"
	"github.com/lanegraph/lanegraph/pkg/store/redis"
)

// appName is the application name used for directories and display.
const appName = "lanegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Lanegraph lays out organizational lineages into lanes",
		Long:         `Lanegraph decomposes historical succession graphs into families, collapses each family into linear chains, and searches for lane assignments that keep related lineages close and unrelated ones apart.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.discoverCommand())
	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newStore builds the layout store named by the config.
// Callers own the returned store and must Close it.
func newStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "redis":
		return redis.NewStore(ctx, redis.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
	case "mongo":
		return mongo.NewStore(ctx, mongo.Config{
			URI:        cfg.Store.Mongo.URI,
			Database:   cfg.Store.Mongo.Database,
			Collection: cfg.Store.Mongo.Collection,
		})
	default:
		// loadConfig already rejects unknown backends; this is a safety net.
		return memory.NewStore(), nil
	}
}
