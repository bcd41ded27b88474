package pluginhost

import (
	"testing"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
)

func TestEncodeRequestJSON(t *testing.T) {
	req := &LintRequest{
		Nodes:  []*ast.Projection{{Type: "Str", Range: [2]int{0, 5}, Value: "hello"}},
		Config: map[string]any{"max": 3},
		Source: "hello world",
	}
	data, err := EncodeRequest(req, CodecJSON)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty encoding")
	}
}

func TestEncodeRequestMsgPack(t *testing.T) {
	req := &LintRequest{
		Nodes:  []*ast.Projection{{Type: "Str", Range: [2]int{0, 5}, Value: "hello"}},
		Source: "hello world",
	}
	data, err := EncodeRequest(req, CodecMsgPack)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty encoding")
	}
}

func TestDecodeResponseAndToDiagnostics(t *testing.T) {
	data := []byte(`{"diagnostics":[{"message":"avoid weasel word","start":2,"end":7,"severity":"warning","fix":{"start":2,"end":7,"replacement":""}}]}`)
	resp, err := DecodeResponse(data, CodecJSON)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	diags := toDiagnostics(resp, "no-weasel-words")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.RuleID != "no-weasel-words" {
		t.Fatalf("host must overwrite rule_id, got %q", d.RuleID)
	}
	if d.Severity != diag.SeverityWarning {
		t.Fatalf("unexpected severity: %v", d.Severity)
	}
	if !d.HasFix() {
		t.Fatal("expected fix to be attached")
	}
}

func TestToDiagnosticsDefaultsSeverityToWarning(t *testing.T) {
	resp := &LintResponse{Diagnostics: []wireDiagnostic{{Message: "m", Start: 0, End: 1}}}
	diags := toDiagnostics(resp, "rule")
	if diags[0].Severity != diag.SeverityWarning {
		t.Fatalf("expected default severity warning, got %v", diags[0].Severity)
	}
}
