//go:build !wasmtime_jit

package pluginhost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// NewExecutor returns the default RuleExecutor back-end: a pure-Go,
// CGo-free interpreter/compiler suitable for embedding the host itself
// inside a WASM-compiled target. Selected whenever the wasmtime_jit build
// tag is absent.
func NewExecutor() RuleExecutor {
	return &wazeroExecutor{
		runtime: wazero.NewRuntimeWithConfig(context.Background(), wazero.NewRuntimeConfig().WithCloseOnContextDone(true)),
		modules: make(map[Handle]*wazeroInstance),
	}
}

type wazeroExecutor struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	modules map[Handle]*wazeroInstance
	nextID  uint64
}

type wazeroInstance struct {
	module    api.Module
	mem       api.Memory
	alloc     api.Function
	dealloc   api.Function
	manifest  api.Function
	lint      api.Function
	wallClock time.Duration
}

func (e *wazeroExecutor) Load(ctx context.Context, wasmBytes []byte, limits ResourceLimits) (Handle, error) {
	cfg := wazero.NewModuleConfig()

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return 0, fmt.Errorf("compile module: %w", err)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return 0, fmt.Errorf("instantiate module: %w", err)
	}

	inst := &wazeroInstance{
		module:    mod,
		mem:       mod.Memory(),
		alloc:     mod.ExportedFunction("alloc"),
		dealloc:   mod.ExportedFunction("dealloc"),
		manifest:  mod.ExportedFunction("get_manifest"),
		lint:      mod.ExportedFunction("lint"),
		wallClock: limits.WallClock,
	}
	if inst.mem == nil || inst.alloc == nil || inst.dealloc == nil || inst.manifest == nil || inst.lint == nil {
		_ = mod.Close(ctx)
		return 0, fmt.Errorf("module missing one of the required exports: memory, alloc, dealloc, get_manifest, lint")
	}

	e.mu.Lock()
	e.nextID++
	h := Handle(e.nextID)
	e.modules[h] = inst
	e.mu.Unlock()

	return h, nil
}

func (e *wazeroExecutor) instance(h Handle) (*wazeroInstance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.modules[h]
	if !ok {
		return nil, fmt.Errorf("unknown or unloaded handle %d", h)
	}
	return inst, nil
}

func (e *wazeroExecutor) GetManifest(ctx context.Context, h Handle) (Manifest, error) {
	inst, err := e.instance(h)
	if err != nil {
		return Manifest{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, inst.wallClock)
	defer cancel()

	data, err := invokeGetManifest(&wazeroGuest{ctx: ctx, inst: inst})
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := decodeManifest(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (e *wazeroExecutor) Lint(ctx context.Context, h Handle, requestBytes []byte) ([]byte, error) {
	inst, err := e.instance(h)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, inst.wallClock)
	defer cancel()

	return invokeLint(&wazeroGuest{ctx: ctx, inst: inst}, requestBytes)
}

func (e *wazeroExecutor) Unload(ctx context.Context, h Handle) error {
	e.mu.Lock()
	inst, ok := e.modules[h]
	if ok {
		delete(e.modules, h)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown or unloaded handle %d", h)
	}
	return inst.module.Close(ctx)
}

func (e *wazeroExecutor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// wazeroGuest adapts a wazeroInstance to the guestInstance contract abi.go
// uses.
type wazeroGuest struct {
	ctx  context.Context
	inst *wazeroInstance
}

func (g *wazeroGuest) Alloc(size uint32) (uint32, error) {
	res, err := g.inst.alloc.Call(g.ctx, uint64(size))
	if err != nil {
		return 0, err
	}
	return uint32(res[0]), nil
}

func (g *wazeroGuest) Dealloc(ptr, size uint32) error {
	_, err := g.inst.dealloc.Call(g.ctx, uint64(ptr), uint64(size))
	return err
}

func (g *wazeroGuest) GetManifest() (uint64, error) {
	res, err := g.inst.manifest.Call(g.ctx)
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (g *wazeroGuest) Lint(ptr, length uint32) (uint64, error) {
	res, err := g.inst.lint.Call(g.ctx, uint64(ptr), uint64(length))
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (g *wazeroGuest) Read(offset, length uint32) ([]byte, bool) {
	return g.inst.mem.Read(offset, length)
}

func (g *wazeroGuest) Write(offset uint32, data []byte) bool {
	return g.inst.mem.Write(offset, data)
}
