package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Discovery hooks
	d := NoopDiscoveryHooks{}
	d.OnDiscoveryStart(ctx, 120, 140)
	d.OnDiscoveryComplete(ctx, 4, 2, 1, time.Second, nil)

	// Optimizer hooks
	o := NoopOptimizerHooks{}
	o.OnRunStart(ctx, "abc123", 12)
	o.OnRunComplete(ctx, "abc123", 42.5, 400, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "abc123")
	c.OnCacheMiss(ctx, "abc123")
	c.OnCacheWrite(ctx, "abc123")
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Discovery().(NoopDiscoveryHooks); !ok {
		t.Error("Discovery() should return NoopDiscoveryHooks by default")
	}
	if _, ok := Optimizer().(NoopOptimizerHooks); !ok {
		t.Error("Optimizer() should return NoopOptimizerHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customDiscovery := &testDiscoveryHooks{}
	SetDiscoveryHooks(customDiscovery)
	if Discovery() != customDiscovery {
		t.Error("SetDiscoveryHooks should set custom hooks")
	}

	customOptimizer := &testOptimizerHooks{}
	SetOptimizerHooks(customOptimizer)
	if Optimizer() != customOptimizer {
		t.Error("SetOptimizerHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Discovery().(NoopDiscoveryHooks); !ok {
		t.Error("Reset() should restore NoopDiscoveryHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testOptimizerHooks{}
	SetOptimizerHooks(custom)

	// Setting nil should be ignored
	SetOptimizerHooks(nil)

	if Optimizer() != custom {
		t.Error("SetOptimizerHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testDiscoveryHooks struct{ NoopDiscoveryHooks }
type testOptimizerHooks struct{ NoopOptimizerHooks }
type testCacheHooks struct{ NoopCacheHooks }
