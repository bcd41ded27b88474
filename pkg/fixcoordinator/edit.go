// Package fixcoordinator combines diagnostics' fixes into a single,
// conflict-free edit list and applies it to a file's source.
package fixcoordinator

import (
	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
)

// Edit is one proposed text replacement, carrying the RuleID that
// produced it so conflict tie-breaking can fall back to rule_id
// ordering.
type Edit struct {
	Span        ast.Span
	Replacement string
	RuleID      string
}

// CollectEdits extracts one Edit per diagnostic that carries a Fix,
// discarding diagnostics with none (step 1 of the coordinator
// algorithm).
func CollectEdits(diagnostics []diag.Diagnostic) []Edit {
	edits := make([]Edit, 0, len(diagnostics))
	for _, d := range diagnostics {
		if d.Fix == nil {
			continue
		}
		edits = append(edits, Edit{Span: d.Fix.Span, Replacement: d.Fix.Replacement, RuleID: d.RuleID})
	}
	return edits
}
