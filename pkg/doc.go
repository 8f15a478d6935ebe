// Package pkg provides the core libraries for lanegraph family layout
// optimization.
//
// # Overview
//
// Lanegraph takes a historical lineage dataset — organizational entities and
// the succession links between them — and computes compact lane layouts for
// timeline rendering. The pkg directory is organized around the stages of
// that flow:
//
//	TOML dataset
//	     ↓
//	[dataset] package (parse + validate)
//	     ↓
//	[lineage] package (graph, chains, fingerprints)
//	     ↓
//	[discovery] package (family decomposition + cache reconciliation)
//	     ↓
//	[layout] package (cost model + genetic lane assignment)
//	     ↓
//	[runner] package (orchestration, caching, concurrency)
//	     ↓
//	[store] package (layout cache backends)
//	     ↓
//	[render] package (DOT/SVG/PDF/PNG output)
//
// # Quick Start
//
// Load a dataset, discover its families, and optimize them:
//
//	g, year, _ := dataset.Load("lineages.toml")
//
//	st := memory.New()
//	svc := discovery.NewService(st, nil, discovery.Config{CurrentYear: year})
//	report, _ := svc.Discover(ctx, g)
//
//	r := runner.New(st, nil, runner.Config{
//	    Params:      layout.DefaultParams(),
//	    Weights:     layout.DefaultWeights(),
//	    CurrentYear: year,
//	})
//	summary, _ := r.OptimizeAll(ctx, g)
//
// # Main Packages
//
// [lineage] - The domain model: entities, succession links, the validated
// graph, chain collapsing, and the structural fingerprint whose SHA-256 hash
// keys the layout cache.
//
// [discovery] - Connected-component decomposition into families and the
// reconciliation pass that keeps the cache consistent with the dataset
// (create, re-key stale, prune).
//
// [layout] - The multi-term visual cost model and the genetic optimizer that
// searches lane assignments for a family's chains.
//
// [runner] - Drives optimization runs: per-hash serialization, cache-hit
// short-circuiting, bounded parallelism across families.
//
// [store] - Layout cache interface with memory, Redis, and MongoDB backends.
//
// [dataset] - TOML dataset loading and validation.
//
// [render] - Graphviz-based rendering of families and optimized layouts to
// DOT, SVG, PDF, and PNG.
//
// [errors] - Structured error codes shared across packages and surfaced by
// the CLI and HTTP API.
//
// [observability] - Optional hooks for discovery, optimizer, and cache
// events, registered at startup.
//
// [lineage]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/lineage
// [discovery]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/discovery
// [layout]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/layout
// [runner]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/runner
// [store]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/store
// [dataset]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/dataset
// [render]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/render
// [errors]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/lanegraph/lanegraph/pkg/observability
package pkg
