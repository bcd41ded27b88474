package cache

import (
	"testing"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
)

func TestReconcileShiftsMatchedBlockDiagnostics(t *testing.T) {
	entry := &FileCacheEntry{
		Blocks: []BlockEntry{
			{
				Span:        ast.Span{Start: 10, End: 30},
				ContentHash: Fingerprint{1},
				Diagnostics: []diag.Diagnostic{
					{RuleID: "r1", Span: ast.Span{Start: 12, End: 15}},
				},
			},
		},
	}
	current := []CurrentBlock{
		{Span: ast.Span{Start: 15, End: 35}, ContentHash: Fingerprint{1}},
	}

	result := Reconcile(entry, current)
	if len(result.Dirty) != 0 {
		t.Fatalf("expected no dirty blocks, got %v", result.Dirty)
	}
	if len(result.Reused) != 1 {
		t.Fatalf("expected 1 reused diagnostic, got %d", len(result.Reused))
	}
	// shift = 15 - 10 = 5
	if result.Reused[0].Span != (ast.Span{Start: 17, End: 20}) {
		t.Fatalf("unexpected shifted span: %+v", result.Reused[0].Span)
	}
}

func TestReconcileMarksUnmatchedBlocksDirty(t *testing.T) {
	entry := &FileCacheEntry{
		Blocks: []BlockEntry{
			{Span: ast.Span{Start: 0, End: 10}, ContentHash: Fingerprint{1}},
		},
	}
	current := []CurrentBlock{
		{Span: ast.Span{Start: 0, End: 12}, ContentHash: Fingerprint{2}},
	}

	result := Reconcile(entry, current)
	if !result.AnyDirty || len(result.Dirty) != 1 {
		t.Fatalf("expected the unmatched block to be dirty, got %+v", result)
	}
}

func TestReconcilePicksNearestStartAmongHashCollisions(t *testing.T) {
	entry := &FileCacheEntry{
		Blocks: []BlockEntry{
			{Span: ast.Span{Start: 0, End: 10}, ContentHash: Fingerprint{1}, Diagnostics: []diag.Diagnostic{{RuleID: "far"}}},
			{Span: ast.Span{Start: 100, End: 110}, ContentHash: Fingerprint{1}, Diagnostics: []diag.Diagnostic{{RuleID: "near"}}},
		},
	}
	current := []CurrentBlock{
		{Span: ast.Span{Start: 98, End: 108}, ContentHash: Fingerprint{1}},
	}

	result := Reconcile(entry, current)
	if len(result.Reused) != 1 || result.Reused[0].RuleID != "near" {
		t.Fatalf("expected the nearest-start candidate to win, got %+v", result.Reused)
	}
}

func TestReconcileNilEntryMarksEverythingDirty(t *testing.T) {
	current := []CurrentBlock{{Span: ast.Span{Start: 0, End: 5}, ContentHash: Fingerprint{1}}}
	result := Reconcile(nil, current)
	if len(result.Dirty) != 1 || !result.AnyDirty {
		t.Fatalf("expected every block dirty with no prior entry, got %+v", result)
	}
}
