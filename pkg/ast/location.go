package ast

import "sort"

// LineInfo describes the byte extent of one source line.
type LineInfo struct {
	StartOffset  int // first byte of the line
	NewlineStart int // offset where the line terminator begins (== EndOffset on the last, newline-less line)
	EndOffset    int // offset just past the line terminator
}

// BuildLines constructs line metadata for content, handling both LF and
// CRLF terminators. The result always has at least one entry, even for
// empty content.
func BuildLines(content []byte) []LineInfo {
	if len(content) == 0 {
		return []LineInfo{{}}
	}

	var lines []LineInfo
	lineStart := 0

	for idx, b := range content {
		if b != '\n' {
			continue
		}
		newlineStart := idx
		if idx > 0 && content[idx-1] == '\r' {
			newlineStart = idx - 1
		}
		lines = append(lines, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
		})
		lineStart = idx + 1
	}

	if lineStart <= len(content) {
		lines = append(lines, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: len(content),
			EndOffset:    len(content),
		})
	}

	return lines
}

// Position is a 1-based line/column pair. Column counts bytes, not runes,
// matching byte-offset Spans throughout the package.
type Position struct {
	Line   int
	Column int
}

// SourcePosition is the resolved start/end location of a Span.
type SourcePosition struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Start returns the position's start as a Position.
func (p SourcePosition) Start() Position { return Position{p.StartLine, p.StartColumn} }

// End returns the position's end as a Position.
func (p SourcePosition) End() Position { return Position{p.EndLine, p.EndColumn} }

// IsSingleLine reports whether the span begins and ends on the same line.
func (p SourcePosition) IsSingleLine() bool { return p.StartLine == p.EndLine }

// LineIndex resolves byte offsets to line/column positions on demand. One
// LineIndex is built per source buffer and shared read-only across every
// node derived from it, and across concurrent rule invocations for that
// file — resolution is pure lookup, never mutated after construction.
type LineIndex struct {
	content []byte
	lines   []LineInfo
}

// NewLineIndex builds a LineIndex over content.
func NewLineIndex(content []byte) *LineIndex {
	return &LineIndex{content: content, lines: BuildLines(content)}
}

// LineCount returns the number of lines in the indexed content.
func (li *LineIndex) LineCount() int { return len(li.lines) }

// PositionAt converts a byte offset to a 1-based Position. Returns the
// zero Position if offset is negative.
func (li *LineIndex) PositionAt(offset int) Position {
	if offset < 0 || len(li.lines) == 0 {
		return Position{}
	}

	if offset >= len(li.content) {
		last := li.lines[len(li.lines)-1]
		return Position{Line: len(li.lines), Column: offset - last.StartOffset + 1}
	}

	idx := sort.Search(len(li.lines), func(i int) bool {
		return li.lines[i].EndOffset > offset
	})
	if idx >= len(li.lines) {
		idx = len(li.lines) - 1
	}

	line := li.lines[idx]
	if offset < line.StartOffset {
		return Position{}
	}
	return Position{Line: idx + 1, Column: offset - line.StartOffset + 1}
}

// SourcePositionOf resolves a Span's start and end into a SourcePosition.
func (li *LineIndex) SourcePositionOf(s Span) SourcePosition {
	start := li.PositionAt(s.Start)
	end := li.PositionAt(s.End)
	return SourcePosition{
		StartLine:   start.Line,
		StartColumn: start.Column,
		EndLine:     end.Line,
		EndColumn:   end.Column,
	}
}

// Offset converts a 1-based line/column pair back to a byte offset.
func (li *LineIndex) Offset(line, col int) (int, bool) {
	if line < 1 || line > len(li.lines) {
		return 0, false
	}
	info := li.lines[line-1]
	if col < 1 {
		return 0, false
	}
	offset := info.StartOffset + col - 1
	if offset > info.EndOffset {
		return 0, false
	}
	return offset, true
}

// LineContent returns the byte content of a 1-based line number, excluding
// its terminator. Returns nil for an out-of-range line.
func (li *LineIndex) LineContent(line int) []byte {
	if line < 1 || line > len(li.lines) {
		return nil
	}
	info := li.lines[line-1]
	return li.content[info.StartOffset:info.NewlineStart]
}

// SourcePosition resolves n's Span against idx. Callers hold idx once per
// file and pass it to every node they need to locate; nodes themselves do
// not cache a position since most visitors never ask for one.
func (n *Node) SourcePosition(idx *LineIndex) SourcePosition {
	if n == nil || idx == nil {
		return SourcePosition{}
	}
	return idx.SourcePositionOf(n.Span)
}
