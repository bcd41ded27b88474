package textanalysis

import (
	"unicode/utf8"

	"github.com/yaklabco/nllint/pkg/ast"
)

// Sentence is one sentence-splitter result.
type Sentence struct {
	Text string
	Span ast.Span
}

// IgnoreRange marks a byte range inside which no sentence boundary may be
// introduced, regardless of what the baseline segmenter or the override
// table would otherwise produce there (e.g. a code span or inline math
// run a caller wants treated as a single atomic unit).
type IgnoreRange struct {
	Start int
	End   int
}

func (r IgnoreRange) contains(offset int) bool { return offset > r.Start && offset < r.End }

// SentenceSplitter produces sentence spans over text, honoring a set of
// caller-supplied ignore ranges.
type SentenceSplitter interface {
	Split(text []byte, ignoreRanges []IgnoreRange) []Sentence
}

const (
	fullwidthPeriod     = '。'
	fullwidthExclaim    = '！'
	fullwidthQuestion   = '？'
	asciiExclaim        = '!'
	asciiQuestion       = '?'
)

// UAX29SentenceSplitter is the default SentenceSplitter: UAX #29 sentence
// boundaries, adjusted by the fixed override table (fullwidth period,
// emphatic-punctuation clusters, soft/hard line wraps, and paragraph
// breaks).
type UAX29SentenceSplitter struct{}

// NewUAX29SentenceSplitter creates the default sentence splitter.
func NewUAX29SentenceSplitter() *UAX29SentenceSplitter { return &UAX29SentenceSplitter{} }

// Split implements SentenceSplitter.
func (UAX29SentenceSplitter) Split(text []byte, ignoreRanges []IgnoreRange) []Sentence {
	if len(text) == 0 {
		return nil
	}

	boundaries := baselineBoundaries(text)
	forced, suppressed := overrideBoundaries(text)

	final := make(map[int]bool, len(boundaries)+len(forced))
	for b := range boundaries {
		final[b] = true
	}
	for b := range forced {
		final[b] = true
	}
	for b := range suppressed {
		delete(final, b)
	}
	for _, r := range ignoreRanges {
		for b := range final {
			if r.contains(b) {
				delete(final, b)
			}
		}
	}
	final[len(text)] = true

	points := make([]int, 0, len(final))
	for b := range final {
		points = append(points, b)
	}
	sortInts(points)

	var out []Sentence
	start := 0
	for _, end := range points {
		if end <= start {
			continue
		}
		if len(out) > 0 && isAllWhitespace(text[start:end]) {
			// A whitespace-only gap between two boundaries joins the
			// preceding sentence instead of standing on its own.
			prev := &out[len(out)-1]
			prev.Text = string(text[prev.Span.Start:end])
			prev.Span.End = end
			start = end
			continue
		}
		out = append(out, Sentence{
			Text: string(text[start:end]),
			Span: ast.Span{Start: start, End: end},
		})
		start = end
	}
	return out
}

// baselineBoundaries returns every offset immediately after a uax29
// sentence segment, derived by accumulating segment lengths (see
// wordSegments for why this is safe without depending on a
// segmenter-specific offset accessor).
func baselineBoundaries(text []byte) map[int]bool {
	b := make(map[int]bool)
	pos := 0
	for seg := range rawSentenceSegments(text) {
		pos += len(seg)
		b[pos] = true
	}
	return b
}

// overrideBoundaries scans text rune-by-rune and returns the set of
// offsets the override table forces to be a boundary, and the set it
// forces to NOT be a boundary, per spec.md §4.3's table.
func overrideBoundaries(text []byte) (forced, suppressed map[int]bool) {
	forced = make(map[int]bool)
	suppressed = make(map[int]bool)

	i := 0
	n := len(text)
	for i < n {
		r, size := utf8.DecodeRune(text[i:])
		switch r {
		case fullwidthPeriod:
			forced[i+size] = true

		case asciiExclaim, asciiQuestion, fullwidthExclaim, fullwidthQuestion:
			end := i + size
			if end >= n || isSplitWhitespace(text[end:]) {
				forced[end] = true
			} else {
				suppressed[end] = true
			}

		case '\n':
			runStart := i
			runBytes, runCount := countNewlineRun(text[runStart:])
			if runCount >= 2 {
				// Paragraph break: always a boundary at the run's start;
				// Split then joins the newline run itself to the
				// preceding sentence.
				forced[runStart] = true
			} else {
				// Single \n: soft wrap, never a boundary.
				suppressed[runStart+runBytes] = true
			}
			i = runStart + runBytes
			continue
		}

		i += size
	}

	return forced, suppressed
}

// countNewlineRun returns the byte length and line count of a maximal run
// of newline characters (tolerating \r\n pairs) starting at text[0].
func countNewlineRun(text []byte) (byteLen int, count int) {
	for byteLen < len(text) {
		if text[byteLen] == '\n' {
			byteLen++
			count++
			continue
		}
		if text[byteLen] == '\r' && byteLen+1 < len(text) && text[byteLen+1] == '\n' {
			byteLen += 2
			count++
			continue
		}
		break
	}
	return byteLen, count
}

func isSplitWhitespace(rest []byte) bool {
	if len(rest) == 0 {
		return true
	}
	r, _ := utf8.DecodeRune(rest)
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}
