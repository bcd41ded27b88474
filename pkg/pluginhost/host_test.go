package pluginhost

import (
	"context"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
)

// fakeExecutor is an in-process stand-in for a wazero/wasmtime backend,
// letting host.go's orchestration (load, config validation, batching,
// error containment) be exercised without real WASM bytes.
type fakeExecutor struct {
	manifests map[string]Manifest // keyed by string(wasmBytes)
	lintFunc  func(req *LintRequest) (*LintResponse, error)
	nextID    uint64
	handles   map[Handle]string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{manifests: make(map[string]Manifest), handles: make(map[Handle]string)}
}

func (f *fakeExecutor) Load(ctx context.Context, wasmBytes []byte, limits ResourceLimits) (Handle, error) {
	f.nextID++
	h := Handle(f.nextID)
	f.handles[h] = string(wasmBytes)
	return h, nil
}

func (f *fakeExecutor) GetManifest(ctx context.Context, h Handle) (Manifest, error) {
	key := f.handles[h]
	m, ok := f.manifests[key]
	if !ok {
		return Manifest{}, errors.New("no manifest registered for fake module")
	}
	return m, nil
}

func (f *fakeExecutor) Lint(ctx context.Context, h Handle, requestBytes []byte) ([]byte, error) {
	var req LintRequest
	if err := msgpack.Unmarshal(requestBytes, &req); err != nil {
		return nil, err
	}
	resp, err := f.lintFunc(&req)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(resp)
}

func (f *fakeExecutor) Unload(ctx context.Context, h Handle) error { return nil }
func (f *fakeExecutor) Close(ctx context.Context) error            { return nil }

func TestPluginHostLoadAndRunBatch(t *testing.T) {
	exec := newFakeExecutor()
	wasmBytes := []byte("fake-module-1")
	exec.manifests[string(wasmBytes)] = Manifest{
		Name:      "no-weasel-words",
		NodeTypes: []string{"Str"},
		Isolation: IsolationGlobal,
	}
	exec.lintFunc = func(req *LintRequest) (*LintResponse, error) {
		return &LintResponse{Diagnostics: []wireDiagnostic{{Message: "avoid weasel words", Start: 0, End: 5}}}, nil
	}

	host := &PluginHost{executor: exec, cache: newModuleCache(exec, DefaultLimits()), rules: make(map[string]*loadedRule)}
	ctx := context.Background()

	if err := host.LoadRule(ctx, RuleBinding{Alias: "no-weasel-words", WasmBytes: wasmBytes}); err != nil {
		t.Fatalf("LoadRule: %v", err)
	}

	m, ok := host.Manifest("no-weasel-words")
	if !ok || m.Name != "no-weasel-words" {
		t.Fatalf("expected manifest to be retrievable, got %+v ok=%v", m, ok)
	}

	nodes := []*ast.Projection{{Type: "Str", Range: [2]int{0, 11}, Value: "very unique"}}
	diags, err := host.RunBatch(ctx, "no-weasel-words", nodes, "very unique", "doc.md", nil, nil)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(diags) != 1 || diags[0].RuleID != "no-weasel-words" {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestPluginHostRunBatchUnknownAlias(t *testing.T) {
	exec := newFakeExecutor()
	host := &PluginHost{executor: exec, cache: newModuleCache(exec, DefaultLimits()), rules: make(map[string]*loadedRule)}
	_, err := host.RunBatch(context.Background(), "missing", nil, "", "", nil, nil)
	var ruleErr *diag.RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected *diag.RuleError, got %T: %v", err, err)
	}
}

func TestDiagnosticsWithinBatchDetectsOutOfRangeDiagnostic(t *testing.T) {
	nodes := []*ast.Projection{{Range: [2]int{10, 20}}}
	inRange := []diag.Diagnostic{{Span: ast.Span{Start: 12, End: 15}}}
	if !diagnosticsWithinBatch(inRange, nodes) {
		t.Fatal("expected in-range diagnostic to pass")
	}
	outOfRange := []diag.Diagnostic{{Span: ast.Span{Start: 0, End: 5}}}
	if diagnosticsWithinBatch(outOfRange, nodes) {
		t.Fatal("expected out-of-range diagnostic to fail")
	}
}

func TestCategorizeRuleErrorMapsDeadlineExceeded(t *testing.T) {
	err := categorizeRuleError("r", context.DeadlineExceeded)
	var ruleErr *diag.RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Kind != diag.RuleTimeout {
		t.Fatalf("expected RuleTimeout, got %+v", err)
	}
}

func TestCategorizeRuleErrorMapsFuelExhaustion(t *testing.T) {
	err := categorizeRuleError("r", errors.New("all fuel consumed by WebAssembly"))
	var ruleErr *diag.RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Kind != diag.RuleTimeout {
		t.Fatalf("expected RuleTimeout for fuel exhaustion, got %+v", err)
	}
}
