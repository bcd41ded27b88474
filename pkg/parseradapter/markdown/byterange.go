package markdown

import (
	gmast "github.com/yuin/goldmark/ast"

	"github.com/yaklabco/nllint/pkg/ast"
)

// nodeSpan extracts a goldmark node's byte range directly from its line
// or text segments rather than through any intermediate token stream —
// block nodes expose contiguous Lines() (or, for containers without lines,
// the union of their children's spans), inline nodes must be walked to
// find their underlying Text children.
func nodeSpan(gmNode gmast.Node, content []byte) ast.Span {
	if gmNode.Type() == gmast.TypeInline {
		return inlineNodeSpan(gmNode)
	}

	lines := gmNode.Lines()
	if lines.Len() == 0 {
		// Container blocks (lists, list items, blockquotes, tables) hold no
		// lines of their own; cover the union of their children's spans.
		span := ast.Span{}
		for child := gmNode.FirstChild(); child != nil; child = child.NextSibling() {
			cs := nodeSpan(child, content)
			if cs.End > cs.Start && (span.End == 0 || cs.Start < span.Start) {
				span.Start = cs.Start
			}
			if cs.End > span.End {
				span.End = cs.End
			}
		}
		return span
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	return ast.Span{Start: first.Start, End: last.Stop}
}

// inlineNodeSpan derives an inline node's span from the segments of its
// Text descendants, since goldmark does not expose inline ranges
// directly the way it does for block Lines().
func inlineNodeSpan(gmNode gmast.Node) ast.Span {
	if raw, ok := gmNode.(*gmast.RawHTML); ok {
		return rawHTMLSpan(raw)
	}

	start, end := -1, -1
	expand := func(segStart, segStop int) {
		if start == -1 || segStart < start {
			start = segStart
		}
		if segStop > end {
			end = segStop
		}
	}

	if t, ok := gmNode.(*gmast.Text); ok {
		expand(t.Segment.Start, t.Segment.Stop)
	}
	for child := gmNode.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*gmast.Text); ok {
			expand(t.Segment.Start, t.Segment.Stop)
		}
	}

	if start == -1 {
		return ast.Span{}
	}
	return ast.Span{Start: start, End: end}
}

// textSegmentSpan returns the byte span of a single Text node's own
// segment (its Value range, irrespective of whether it is a soft/hard
// break marker).
func textSegmentSpan(t *gmast.Text) ast.Span {
	return ast.Span{Start: t.Segment.Start, End: t.Segment.Stop}
}

// rawHTMLSpan unions every segment of a RawHTML node, which (unlike other
// inlines) can be made of several disjoint source runs.
func rawHTMLSpan(r *gmast.RawHTML) ast.Span {
	segs := r.Segments
	start, end := -1, -1
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		if start == -1 || seg.Start < start {
			start = seg.Start
		}
		if seg.Stop > end {
			end = seg.Stop
		}
	}
	if start == -1 {
		return ast.Span{}
	}
	return ast.Span{Start: start, End: end}
}
