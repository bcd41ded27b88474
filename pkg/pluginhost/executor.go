package pluginhost

import "context"

// Handle identifies a loaded rule instance within a RuleExecutor. Its
// concrete representation is back-end specific; callers treat it as
// opaque.
type Handle uint64

// RuleExecutor abstracts over the WASM runtime a rule is compiled
// against. Exactly one implementation is linked into any given build,
// selected by build tag (see wazero_executor.go and
// wasmtime_executor.go) — spec.md §4.4 requires the two never be linked
// simultaneously.
type RuleExecutor interface {
	// Load compiles and instantiates wasmBytes under limits, returning a
	// handle for subsequent calls.
	Load(ctx context.Context, wasmBytes []byte, limits ResourceLimits) (Handle, error)

	// GetManifest invokes the instance's get_manifest export and decodes
	// the result.
	GetManifest(ctx context.Context, h Handle) (Manifest, error)

	// Lint invokes the instance's lint export with requestBytes already
	// encoded in the host's chosen Codec, returning the raw response
	// bytes.
	Lint(ctx context.Context, h Handle, requestBytes []byte) ([]byte, error)

	// Unload releases every resource associated with h. Calling Lint or
	// GetManifest on an unloaded handle is an error.
	Unload(ctx context.Context, h Handle) error

	// Close releases the executor's own runtime-level resources (e.g.
	// the wazero/wasmtime Engine). Called once, when a PluginHost is torn
	// down.
	Close(ctx context.Context) error
}
