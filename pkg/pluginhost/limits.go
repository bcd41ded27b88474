package pluginhost

import "time"

// ResourceLimits bounds a single loaded rule instance. The wasmtime_jit
// back-end sets a store memory limiter and a per-call fuel budget, and
// arms a per-call wall-clock timer (see withWallClock). The default
// wazero back-end applies only WallClock, as a per-call context deadline
// that stops the call and closes the module instance; it does not apply
// MemoryCapBytes or FuelCap.
type ResourceLimits struct {
	// MemoryCapBytes caps the instance's linear memory. Defaults to
	// 128 MiB.
	MemoryCapBytes uint64
	// FuelCap caps the number of instructions a single lint call may
	// execute. Defaults to 1e9. Only the JIT back-end (wasmtime) meters
	// fuel; the wazero back-end does not count instructions, so FuelCap
	// has no effect there.
	FuelCap uint64
	// WallClock caps real time a single lint call may take. Defaults to
	// 5s.
	WallClock time.Duration
}

const (
	defaultMemoryCapBytes = 128 * 1024 * 1024
	defaultFuelCap        = 1_000_000_000
	defaultWallClock      = 5 * time.Second
)

// DefaultLimits returns spec.md §4.4's default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MemoryCapBytes: defaultMemoryCapBytes,
		FuelCap:        defaultFuelCap,
		WallClock:      defaultWallClock,
	}
}
