package pluginhost

import (
	"context"
	"encoding/hex"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"lukechampine.com/blake3"
)

const defaultModuleCacheSize = 64

// moduleCache keeps at most defaultModuleCacheSize loaded rule instances
// alive keyed by the blake3 hash of their WASM bytes, so loading the same
// module bytes again through one host (for example under another alias)
// reuses the loaded instance. Each PluginHost owns its own moduleCache:
// a module is compiled once per host, not once per process.
type moduleCache struct {
	mu       sync.Mutex
	executor RuleExecutor
	limits   ResourceLimits
	entries  *lru.Cache[string, Handle]
}

func newModuleCache(executor RuleExecutor, limits ResourceLimits) *moduleCache {
	c, err := lru.NewWithEvict(defaultModuleCacheSize, func(_ string, h Handle) {
		_ = executor.Unload(context.Background(), h)
	})
	if err != nil {
		// Only fails for a non-positive size, which defaultModuleCacheSize
		// never is.
		panic(err)
	}
	return &moduleCache{executor: executor, limits: limits, entries: c}
}

func hashModule(wasmBytes []byte) string {
	sum := blake3.Sum256(wasmBytes)
	return hex.EncodeToString(sum[:])
}

// LoadOrGet returns a handle for wasmBytes, compiling and instantiating it
// only on first use.
func (c *moduleCache) LoadOrGet(ctx context.Context, wasmBytes []byte) (Handle, error) {
	key := hashModule(wasmBytes)

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.entries.Get(key); ok {
		return h, nil
	}

	h, err := c.executor.Load(ctx, wasmBytes, c.limits)
	if err != nil {
		return 0, err
	}
	c.entries.Add(key, h)
	return h, nil
}

// Close unloads every cached instance.
func (c *moduleCache) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.entries.Keys() {
		if h, ok := c.entries.Peek(key); ok {
			_ = c.executor.Unload(ctx, h)
		}
	}
	c.entries.Purge()
}
