package pluginhost

import (
	"context"
	"testing"
)

func TestPoolAcquireReleaseCycle(t *testing.T) {
	exec := newFakeExecutor()
	wasmBytes := []byte("fake-module")
	exec.manifests[string(wasmBytes)] = Manifest{Name: "r", NodeTypes: []string{"Str"}}
	exec.lintFunc = func(req *LintRequest) (*LintResponse, error) { return &LintResponse{}, nil }

	p := &Pool{bindings: []RuleBinding{{Alias: "r", WasmBytes: wasmBytes}}}
	host := &PluginHost{executor: exec, cache: newModuleCache(exec, DefaultLimits()), rules: make(map[string]*loadedRule)}
	if err := host.LoadRule(context.Background(), p.bindings[0]); err != nil {
		t.Fatalf("LoadRule: %v", err)
	}
	p.idle = append(p.idle, host)

	got, ok := p.Acquire()
	if !ok || got != host {
		t.Fatalf("expected to acquire the seeded host")
	}
	if _, ok := p.Acquire(); ok {
		t.Fatal("expected pool to be empty after draining its only host")
	}
	p.Release(got)
	if _, ok := p.Acquire(); !ok {
		t.Fatal("expected released host to be acquirable again")
	}
}

func TestNewPoolRejectsNonPositiveSize(t *testing.T) {
	_, err := NewPool(context.Background(), 0, nil, DefaultLimits())
	if err == nil {
		t.Fatal("expected an error for pool size 0")
	}
}
