// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about discovery passes, optimization runs, and layout
// cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetDiscoveryHooks(&myDiscoveryHooks{})
//	    observability.SetOptimizerHooks(&myOptimizerHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Optimizer().OnRunStart(ctx, familyHash, chainCount)
//	// ... run the search ...
//	observability.Optimizer().OnRunComplete(ctx, familyHash, score, generations, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// DiscoveryHooks receives events from family discovery passes.
type DiscoveryHooks interface {
	// OnDiscoveryStart fires when a pass begins over a graph.
	OnDiscoveryStart(ctx context.Context, entityCount, linkCount int)

	// OnDiscoveryComplete fires when a pass ends, successfully or not.
	OnDiscoveryComplete(ctx context.Context, families, created, pruned int, duration time.Duration, err error)
}

// OptimizerHooks receives events from layout optimization runs.
type OptimizerHooks interface {
	// OnRunStart fires when a family's optimization run begins.
	OnRunStart(ctx context.Context, familyHash string, chainCount int)

	// OnRunComplete fires when a run ends, successfully or not.
	OnRunComplete(ctx context.Context, familyHash string, score float64, generations int, duration time.Duration, err error)
}

// CacheHooks receives events from layout cache operations.
type CacheHooks interface {
	// OnCacheHit records a fresh layout served from the cache.
	OnCacheHit(ctx context.Context, familyHash string)

	// OnCacheMiss records a lookup that required a new optimization run.
	OnCacheMiss(ctx context.Context, familyHash string)

	// OnCacheWrite records a layout row written to the store.
	OnCacheWrite(ctx context.Context, familyHash string)
}

// NoopDiscoveryHooks is a no-op implementation of DiscoveryHooks.
type NoopDiscoveryHooks struct{}

func (NoopDiscoveryHooks) OnDiscoveryStart(context.Context, int, int) {}
func (NoopDiscoveryHooks) OnDiscoveryComplete(context.Context, int, int, int, time.Duration, error) {
}

// NoopOptimizerHooks is a no-op implementation of OptimizerHooks.
type NoopOptimizerHooks struct{}

func (NoopOptimizerHooks) OnRunStart(context.Context, string, int) {}
func (NoopOptimizerHooks) OnRunComplete(context.Context, string, float64, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)   {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)  {}
func (NoopCacheHooks) OnCacheWrite(context.Context, string) {}

var (
	discoveryHooks DiscoveryHooks = NoopDiscoveryHooks{}
	optimizerHooks OptimizerHooks = NoopOptimizerHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetDiscoveryHooks registers custom discovery hooks.
// This should be called once at application startup before any discovery passes.
func SetDiscoveryHooks(h DiscoveryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		discoveryHooks = h
	}
}

// SetOptimizerHooks registers custom optimizer hooks.
// This should be called once at application startup before any optimization runs.
func SetOptimizerHooks(h OptimizerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		optimizerHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Discovery returns the registered discovery hooks.
func Discovery() DiscoveryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return discoveryHooks
}

// Optimizer returns the registered optimizer hooks.
func Optimizer() OptimizerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return optimizerHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults. Intended for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	discoveryHooks = NoopDiscoveryHooks{}
	optimizerHooks = NoopOptimizerHooks{}
	cacheHooks = NoopCacheHooks{}
}
