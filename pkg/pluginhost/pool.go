package pluginhost

import (
	"context"
	"fmt"
	"sync"
)

// Pool hands out fully-initialized *PluginHost instances to worker
// goroutines, one per concurrent file being linted. Every host in the
// pool has already loaded the same set of RuleBindings, so acquiring one
// never blocks on module compilation.
type Pool struct {
	mu       sync.Mutex
	idle     []*PluginHost
	bindings []RuleBinding
	limits   ResourceLimits
}

// NewPool creates size hosts up front, each loading every binding. Fails
// fast: if any binding fails to load on the first host, construction
// stops and returns that error rather than leaving a partially-usable
// pool.
func NewPool(ctx context.Context, size int, bindings []RuleBinding, limits ResourceLimits) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	p := &Pool{bindings: bindings, limits: limits}
	for i := 0; i < size; i++ {
		host := NewPluginHost(limits)
		for _, b := range bindings {
			if err := host.LoadRule(ctx, b); err != nil {
				_ = host.Close(ctx)
				p.closeAll(ctx)
				return nil, fmt.Errorf("loading rule %q into worker %d: %w", b.Alias, i, err)
			}
		}
		p.idle = append(p.idle, host)
	}
	return p, nil
}

// Acquire removes and returns one idle host, blocking the caller would
// otherwise need to implement themselves. The pool never grows past its
// initial size: a caller holding more hosts than the pool has must wait
// by calling Acquire from a bounded number of goroutines (the driver's
// worker pool size matches the pool size by construction).
func (p *Pool) Acquire() (*PluginHost, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.idle)
	if n == 0 {
		return nil, false
	}
	host := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return host, true
}

// Release returns host to the pool for reuse by another worker.
func (p *Pool) Release(host *PluginHost) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle = append(p.idle, host)
}

func (p *Pool) closeAll(ctx context.Context) {
	for _, h := range p.idle {
		_ = h.Close(ctx)
	}
	p.idle = nil
}

// Close tears down every host currently idle in the pool. Hosts checked
// out via Acquire and never Released are leaked by design: the caller
// owns their lifecycle once acquired for the duration of a file.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeAll(ctx)
}
