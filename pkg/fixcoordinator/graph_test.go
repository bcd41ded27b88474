package fixcoordinator

import (
	"testing"

	"github.com/yaklabco/nllint/pkg/ast"
)

func TestResolveConflictsNoOverlapAllWin(t *testing.T) {
	edits := []Edit{
		{Span: ast.Span{Start: 0, End: 5}, RuleID: "a"},
		{Span: ast.Span{Start: 10, End: 15}, RuleID: "b"},
	}
	winners, losers := ResolveConflicts(edits)
	if len(winners) != 2 || len(losers) != 0 {
		t.Fatalf("expected 2 winners 0 losers, got %d/%d", len(winners), len(losers))
	}
}

func TestResolveConflictsOverlapPicksEarliestStart(t *testing.T) {
	edits := []Edit{
		{Span: ast.Span{Start: 5, End: 10}, RuleID: "z-rule"},
		{Span: ast.Span{Start: 2, End: 8}, RuleID: "a-rule"},
	}
	winners, losers := ResolveConflicts(edits)
	if len(winners) != 1 || len(losers) != 1 {
		t.Fatalf("expected 1 winner 1 loser, got %d/%d", len(winners), len(losers))
	}
	if winners[0].RuleID != "a-rule" {
		t.Fatalf("expected earliest-start edit to win, got %q", winners[0].RuleID)
	}
}

func TestResolveConflictsTieBreaksOnSpanLengthThenRuleID(t *testing.T) {
	edits := []Edit{
		{Span: ast.Span{Start: 0, End: 10}, RuleID: "z-rule"},
		{Span: ast.Span{Start: 0, End: 5}, RuleID: "a-rule"},
		{Span: ast.Span{Start: 0, End: 5}, RuleID: "b-rule"},
	}
	winners, losers := ResolveConflicts(edits)
	if len(winners) != 1 || len(losers) != 2 {
		t.Fatalf("expected 1 winner 2 losers, got %d/%d", len(winners), len(losers))
	}
	if winners[0].RuleID != "a-rule" {
		t.Fatalf("expected shortest-span, lowest-rule-id edit to win, got %q", winners[0].RuleID)
	}
}

func TestResolveConflictsChainOfOverlapsFormsOneComponent(t *testing.T) {
	// A overlaps B, B overlaps C, A does not overlap C directly, but
	// overlap is symmetric and transitive through B so all three must
	// land in a single conflict set with exactly one winner.
	edits := []Edit{
		{Span: ast.Span{Start: 0, End: 6}, RuleID: "a-rule"},
		{Span: ast.Span{Start: 4, End: 10}, RuleID: "b-rule"},
		{Span: ast.Span{Start: 8, End: 14}, RuleID: "c-rule"},
	}
	winners, losers := ResolveConflicts(edits)
	if len(winners) != 1 || len(losers) != 2 {
		t.Fatalf("expected 1 winner 2 losers, got %d/%d", len(winners), len(losers))
	}
	if winners[0].RuleID != "a-rule" {
		t.Fatalf("expected earliest-start edit to win, got %q", winners[0].RuleID)
	}
}

func TestIsBetterFixOrdering(t *testing.T) {
	earlier := Edit{Span: ast.Span{Start: 0, End: 5}, RuleID: "z"}
	later := Edit{Span: ast.Span{Start: 1, End: 3}, RuleID: "a"}
	if !isBetterFix(earlier, later) {
		t.Fatal("expected earliest start to win regardless of rule id")
	}

	shorter := Edit{Span: ast.Span{Start: 0, End: 2}, RuleID: "z"}
	longer := Edit{Span: ast.Span{Start: 0, End: 5}, RuleID: "a"}
	if !isBetterFix(shorter, longer) {
		t.Fatal("expected shorter span to win when starts tie")
	}
}
