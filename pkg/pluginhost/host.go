package pluginhost

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
	"github.com/yaklabco/nllint/pkg/textanalysis"
)

// RuleBinding is everything a PluginHost needs to load and invoke one
// configured rule.
type RuleBinding struct {
	Alias     string
	WasmBytes []byte
	Config    map[string]any
	// Isolation overrides the manifest's declared isolation level when
	// non-empty. Most rulesets leave this unset and defer to the module.
	Isolation IsolationLevel
}

type loadedRule struct {
	handle    Handle
	manifest  Manifest
	config    map[string]any
	isolation IsolationLevel
	codec     Codec
}

// PluginHost owns a set of loaded rule instances and mediates every call
// into them, translating failures into diag.RuleError rather than letting
// a misbehaving module take down the rest of a run. One PluginHost is
// meant to live on a single worker (see pkg/driver's worker pool): rule
// instances are not safe to call concurrently from multiple goroutines.
type PluginHost struct {
	mu       sync.Mutex
	executor RuleExecutor
	cache    *moduleCache
	rules    map[string]*loadedRule
}

// NewPluginHost constructs a host backed by the build's linked
// RuleExecutor (wazero by default, wasmtime-go under the wasmtime_jit
// build tag).
func NewPluginHost(limits ResourceLimits) *PluginHost {
	executor := NewExecutor()
	return &PluginHost{
		executor: executor,
		cache:    newModuleCache(executor, limits),
		rules:    make(map[string]*loadedRule),
	}
}

// LoadRule compiles and configures one rule binding under its alias,
// validating config against the rule's declared schema before accepting
// it.
func (h *PluginHost) LoadRule(ctx context.Context, b RuleBinding) error {
	handle, err := h.cache.LoadOrGet(ctx, b.WasmBytes)
	if err != nil {
		return &diag.RuleError{RuleID: b.Alias, Kind: diag.RuleLoadFailure, Reason: "failed to compile or instantiate module", Err: err}
	}

	manifest, err := h.executor.GetManifest(ctx, handle)
	if err != nil {
		return &diag.RuleError{RuleID: b.Alias, Kind: diag.RuleManifestInvalid, Reason: "get_manifest call failed", Err: err}
	}

	if err := validateConfig(b.Alias, manifest, b.Config); err != nil {
		return err
	}

	isolation := manifest.Isolation
	if b.Isolation != "" {
		isolation = b.Isolation
	}

	h.mu.Lock()
	h.rules[b.Alias] = &loadedRule{
		handle:    handle,
		manifest:  manifest,
		config:    b.Config,
		isolation: isolation,
		codec:     CodecMsgPack,
	}
	h.mu.Unlock()

	return nil
}

// UnloadRule drops a rule binding. The underlying compiled module stays
// in this host's moduleCache for reuse by another alias.
func (h *PluginHost) UnloadRule(alias string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rules, alias)
}

// Manifest returns the loaded manifest for alias.
func (h *PluginHost) Manifest(alias string) (Manifest, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rules[alias]
	if !ok {
		return Manifest{}, false
	}
	return r.manifest, true
}

// Aliases lists every currently loaded rule alias.
func (h *PluginHost) Aliases() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.rules))
	for alias := range h.rules {
		out = append(out, alias)
	}
	return out
}

// RunBatch is one invocation of alias's lint export over a batch of
// nodes. For a Block-isolation rule, nodes is expected to be one block's
// worth of matching nodes; for Global-isolation, the whole file's.
func (h *PluginHost) RunBatch(ctx context.Context, alias string, nodes []*ast.Projection, source, filePath string, tokens []textanalysis.Token, sentences []textanalysis.Sentence) ([]diag.Diagnostic, error) {
	h.mu.Lock()
	rule, ok := h.rules[alias]
	h.mu.Unlock()
	if !ok {
		return nil, &diag.RuleError{RuleID: alias, Kind: diag.RuleLoadFailure, Reason: "rule not loaded"}
	}

	req := &LintRequest{
		Nodes:     nodes,
		Config:    rule.config,
		Source:    source,
		FilePath:  filePath,
		Tokens:    tokensToWire(tokens),
		Sentences: sentencesToWire(sentences),
	}

	reqBytes, err := EncodeRequest(req, rule.codec)
	if err != nil {
		return nil, &diag.RuleError{RuleID: alias, Kind: diag.RuleProtocolViolation, Reason: "failed to encode request", Err: err}
	}

	respBytes, err := h.executor.Lint(ctx, rule.handle, reqBytes)
	if err != nil {
		return nil, categorizeRuleError(alias, err)
	}

	resp, err := DecodeResponse(respBytes, rule.codec)
	if err != nil {
		return nil, &diag.RuleError{RuleID: alias, Kind: diag.RuleProtocolViolation, Reason: "failed to decode response", Err: err}
	}

	diagnostics := toDiagnostics(resp, alias)

	if rule.isolation == IsolationBlock && !diagnosticsWithinBatch(diagnostics, nodes) {
		return diagnostics, &diag.RuleError{
			RuleID: alias,
			Kind:   diag.RuleProtocolViolation,
			Reason: "block-isolated rule reported a diagnostic outside the span of the block it was given",
		}
	}

	return diagnostics, nil
}

// diagnosticsWithinBatch reports whether every diagnostic's span falls
// inside the union of nodes' spans. A Block-isolation rule that violates
// this has almost certainly reasoned about bytes it was never shown,
// which is the one cross-call invariant the host can check cheaply
// without re-parsing anything.
func diagnosticsWithinBatch(diagnostics []diag.Diagnostic, nodes []*ast.Projection) bool {
	if len(nodes) == 0 {
		return len(diagnostics) == 0
	}
	lo, hi := nodes[0].Range[0], nodes[0].Range[1]
	for _, n := range nodes[1:] {
		if n.Range[0] < lo {
			lo = n.Range[0]
		}
		if n.Range[1] > hi {
			hi = n.Range[1]
		}
	}
	for _, d := range diagnostics {
		if d.Span.Start < lo || d.Span.End > hi {
			return false
		}
	}
	return true
}

// categorizeRuleError maps an executor-level failure onto the
// diag.RuleError taxonomy by inspecting the error's text and its
// standard context sentinels; wazero and wasmtime-go each report traps,
// memory faults, and out-of-fuel conditions in different shapes (trap
// codes vs Rust-style error strings), so this is a best-effort text
// sniff rather than a typed switch.
func categorizeRuleError(alias string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &diag.RuleError{RuleID: alias, Kind: diag.RuleTimeout, Reason: "exceeded wall-clock limit", Err: err}
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "out of fuel", "fuel"):
		return &diag.RuleError{RuleID: alias, Kind: diag.RuleTimeout, Reason: "exceeded instruction budget", Err: err}
	case containsAny(msg, "memory", "out of bounds", "oom"):
		return &diag.RuleError{RuleID: alias, Kind: diag.RuleMemoryLimit, Reason: "exceeded memory limit or faulted accessing memory", Err: err}
	default:
		return &diag.RuleError{RuleID: alias, Kind: diag.RuleTrap, Reason: "module trapped", Err: err}
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Close releases every loaded rule and the underlying executor runtime.
func (h *PluginHost) Close(ctx context.Context) error {
	h.cache.Close(ctx)
	return h.executor.Close(ctx)
}
