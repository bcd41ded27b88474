package fixcoordinator

import (
	"fmt"

	"github.com/yaklabco/nllint/pkg/diag"
)

// MaxIterations is the safety iteration limit for repeated fix passes
// (spec's "bounded by a safety iteration limit, default 10"). Coordinate
// itself makes a single pass and does not consult it: the strongly-
// connected-component conflict resolution below settles every edit as a
// winner or a loser the first time conflict sets are computed, and
// winners never overlap each other by construction. Re-linting callers
// (the multi-pass "re-parse after fix" mode) apply this limit across
// their own repeated Coordinate calls.
const MaxIterations = 10

// Result is the outcome of one Coordinate call.
type Result struct {
	// Content is the source after every winning edit has been applied.
	Content []byte
	// Applied lists the edits that were written to Content.
	Applied []Edit
	// Skipped lists edits that lost a conflict tie-break or whose span no
	// longer fit the content.
	Skipped []Edit
}

// Coordinate runs the full fix-application algorithm over content and
// diagnostics: collect fixes, validate their spans, resolve conflicts
// via strongly-connected-component detection, and apply the surviving
// edits. Coordinate never writes to disk itself; persisting
// Result.Content is the caller's job.
func Coordinate(content []byte, diagnostics []diag.Diagnostic) (*Result, error) {
	edits := CollectEdits(diagnostics)
	if len(edits) == 0 {
		return &Result{Content: content}, nil
	}

	valid, invalid := partitionValid(edits, len(content))
	winners, losers := ResolveConflicts(valid)

	sortByStartThenEnd(winners)

	if err := checkNoResidualOverlap(winners); err != nil {
		return nil, &diag.FixError{Reason: "conflict resolution left overlapping edits", Err: err}
	}

	applied := ApplyEdits(content, winners)

	skipped := make([]Edit, 0, len(invalid)+len(losers))
	skipped = append(skipped, invalid...)
	skipped = append(skipped, losers...)

	return &Result{Content: applied, Applied: winners, Skipped: skipped}, nil
}

// checkNoResidualOverlap is a defensive re-check: ResolveConflicts
// should never hand back two overlapping winners, but a fix coordinator
// silently corrupting a file on a bug in that logic is worse than an
// explicit error.
func checkNoResidualOverlap(sorted []Edit) error {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Span.Start < sorted[i-1].Span.End {
			return &overlapError{a: sorted[i-1], b: sorted[i]}
		}
	}
	return nil
}

type overlapError struct {
	a, b Edit
}

func (e *overlapError) Error() string {
	return fmt.Sprintf("overlapping edits survived conflict resolution: [%d:%d] and [%d:%d]",
		e.a.Span.Start, e.a.Span.End, e.b.Span.Start, e.b.Span.End)
}
