package fixcoordinator

import (
	"fmt"
	"sort"
)

// ValidationError reports an edit whose span does not fit the content it
// is meant to apply to.
type ValidationError struct {
	Edit    Edit
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid edit [%d:%d]: %s", e.Edit.Span.Start, e.Edit.Span.End, e.Message)
}

// partitionValid splits edits into those whose span fits within
// [0, contentLen] and those that don't, rather than aborting the whole
// batch on the first bad one the way a single-file validator would —
// one rule producing a stale fix should not cost every other rule's
// fixes for the same file.
func partitionValid(edits []Edit, contentLen int) (valid []Edit, invalid []Edit) {
	for _, e := range edits {
		switch {
		case e.Span.Start < 0:
		case e.Span.End < e.Span.Start:
		case e.Span.End > contentLen:
		default:
			valid = append(valid, e)
			continue
		}
		invalid = append(invalid, e)
	}
	return valid, invalid
}

// sortByStartThenEnd orders edits by (start, end), the order
// ApplyEdits's forward-cursor pass requires.
func sortByStartThenEnd(edits []Edit) {
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].Span.Start != edits[j].Span.Start {
			return edits[i].Span.Start < edits[j].Span.Start
		}
		return edits[i].Span.End < edits[j].Span.End
	})
}
