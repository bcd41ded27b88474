//go:build wasmtime_jit

package pluginhost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytecodealliance/wasmtime-go/v3"
)

// NewExecutor returns the JIT RuleExecutor back-end, built when the
// wasmtime_jit tag is set. Compiles every module ahead-of-time through
// Cranelift and meters fuel natively, giving the instruction cap in
// ResourceLimits exact enforcement; the wazero back-end does not meter
// instructions at all.
func NewExecutor() RuleExecutor {
	cfg := wasmtime.NewConfig()
	cfg.SetConsumeFuel(true)
	engine := wasmtime.NewEngineWithConfig(cfg)
	return &wasmtimeExecutor{
		engine:  engine,
		modules: make(map[Handle]*wasmtimeInstance),
	}
}

type wasmtimeExecutor struct {
	mu      sync.Mutex
	engine  *wasmtime.Engine
	modules map[Handle]*wasmtimeInstance
	nextID  uint64
}

type wasmtimeInstance struct {
	store     *wasmtime.Store
	memory    *wasmtime.Memory
	alloc     *wasmtime.Func
	dealloc   *wasmtime.Func
	manifest  *wasmtime.Func
	lint      *wasmtime.Func
	fuelCap   uint64
	wallClock time.Duration
}

func (e *wasmtimeExecutor) Load(ctx context.Context, wasmBytes []byte, limits ResourceLimits) (Handle, error) {
	mod, err := wasmtime.NewModule(e.engine, wasmBytes)
	if err != nil {
		return 0, fmt.Errorf("compile module: %w", err)
	}

	store := wasmtime.NewStore(e.engine)
	store.Limiter(int64(limits.MemoryCapBytes), -1, -1, -1, -1)
	if err := store.SetFuel(limits.FuelCap); err != nil {
		return 0, fmt.Errorf("set fuel: %w", err)
	}

	linker := wasmtime.NewLinker(e.engine)
	instance, err := linker.Instantiate(store, mod)
	if err != nil {
		return 0, fmt.Errorf("instantiate module: %w", err)
	}

	mem := instance.GetExport(store, "memory")
	allocFn := instance.GetExport(store, "alloc")
	deallocFn := instance.GetExport(store, "dealloc")
	manifestFn := instance.GetExport(store, "get_manifest")
	lintFn := instance.GetExport(store, "lint")
	if mem == nil || mem.Memory() == nil || allocFn == nil || deallocFn == nil || manifestFn == nil || lintFn == nil {
		return 0, fmt.Errorf("module missing one of the required exports: memory, alloc, dealloc, get_manifest, lint")
	}

	inst := &wasmtimeInstance{
		store:     store,
		memory:    mem.Memory(),
		alloc:     allocFn.Func(),
		dealloc:   deallocFn.Func(),
		manifest:  manifestFn.Func(),
		lint:      lintFn.Func(),
		fuelCap:   limits.FuelCap,
		wallClock: limits.WallClock,
	}

	e.mu.Lock()
	e.nextID++
	h := Handle(e.nextID)
	e.modules[h] = inst
	e.mu.Unlock()

	return h, nil
}

func (e *wasmtimeExecutor) instance(h Handle) (*wasmtimeInstance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.modules[h]
	if !ok {
		return nil, fmt.Errorf("unknown or unloaded handle %d", h)
	}
	return inst, nil
}

// withWallClock interrupts store after d by triggering an epoch deadline,
// since wasmtime-go's fuel mechanism alone does not bound real time (a
// rule could spin without consuming fuel via a host call that blocks).
func withWallClock(store *wasmtime.Store, d time.Duration, fn func() error) error {
	done := make(chan error, 1)
	timer := time.AfterFunc(d, func() {
		store.InterruptHandle()
	})
	go func() { done <- fn() }()
	err := <-done
	timer.Stop()
	return err
}

func (e *wasmtimeExecutor) GetManifest(ctx context.Context, h Handle) (Manifest, error) {
	inst, err := e.instance(h)
	if err != nil {
		return Manifest{}, err
	}
	if err := inst.store.SetFuel(inst.fuelCap); err != nil {
		return Manifest{}, fmt.Errorf("reset fuel: %w", err)
	}

	var data []byte
	runErr := withWallClock(inst.store, inst.wallClock, func() error {
		data, err = invokeGetManifest(&wasmtimeGuest{store: inst.store, inst: inst})
		return err
	})
	if runErr != nil {
		return Manifest{}, runErr
	}

	var m Manifest
	if err := decodeManifest(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (e *wasmtimeExecutor) Lint(ctx context.Context, h Handle, requestBytes []byte) ([]byte, error) {
	inst, err := e.instance(h)
	if err != nil {
		return nil, err
	}
	if err := inst.store.SetFuel(inst.fuelCap); err != nil {
		return nil, fmt.Errorf("reset fuel: %w", err)
	}

	var out []byte
	runErr := withWallClock(inst.store, inst.wallClock, func() error {
		out, err = invokeLint(&wasmtimeGuest{store: inst.store, inst: inst}, requestBytes)
		return err
	})
	if runErr != nil {
		return nil, runErr
	}
	return out, nil
}

func (e *wasmtimeExecutor) Unload(ctx context.Context, h Handle) error {
	e.mu.Lock()
	_, ok := e.modules[h]
	if ok {
		delete(e.modules, h)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown or unloaded handle %d", h)
	}
	// wasmtime-go's Store/Instance are reclaimed by the Go GC once
	// unreferenced; there is no explicit Close on an individual instance.
	return nil
}

func (e *wasmtimeExecutor) Close(ctx context.Context) error {
	e.engine.Close()
	return nil
}

// wasmtimeGuest adapts a wasmtimeInstance to the guestInstance contract
// abi.go uses.
type wasmtimeGuest struct {
	store *wasmtime.Store
	inst  *wasmtimeInstance
}

func (g *wasmtimeGuest) Alloc(size uint32) (uint32, error) {
	res, err := g.inst.alloc.Call(g.store, int32(size))
	if err != nil {
		return 0, err
	}
	return uint32(res.(int32)), nil
}

func (g *wasmtimeGuest) Dealloc(ptr, size uint32) error {
	_, err := g.inst.dealloc.Call(g.store, int32(ptr), int32(size))
	return err
}

func (g *wasmtimeGuest) GetManifest() (uint64, error) {
	res, err := g.inst.manifest.Call(g.store)
	if err != nil {
		return 0, err
	}
	return uint64(res.(int64)), nil
}

func (g *wasmtimeGuest) Lint(ptr, length uint32) (uint64, error) {
	res, err := g.inst.lint.Call(g.store, int32(ptr), int32(length))
	if err != nil {
		return 0, err
	}
	return uint64(res.(int64)), nil
}

func (g *wasmtimeGuest) Read(offset, length uint32) ([]byte, bool) {
	data := g.inst.memory.UnsafeData(g.store)
	if uint64(offset)+uint64(length) > uint64(len(data)) {
		return nil, false
	}
	out := make([]byte, length)
	copy(out, data[offset:offset+length])
	return out, true
}

func (g *wasmtimeGuest) Write(offset uint32, data []byte) bool {
	mem := g.inst.memory.UnsafeData(g.store)
	if uint64(offset)+uint64(len(data)) > uint64(len(mem)) {
		return false
	}
	copy(mem[offset:], data)
	return true
}
