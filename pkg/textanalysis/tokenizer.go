// Package textanalysis provides the tokenizer and sentence splitter rules
// can request alongside a file's AST. Both are computed once per file by
// the driver and shared read-only across every rule invocation.
package textanalysis

import (
	"github.com/yaklabco/nllint/pkg/ast"
)

// Token is one tokenizer result: a word-boundary segment of text plus
// whatever morphological detail the underlying tokenizer can offer. Rules
// that only need word boundaries (most do) can ignore POS/Detail.
type Token struct {
	Surface string
	Span    ast.Span
	POS     string   // part-of-speech tag, empty if the tokenizer does not classify
	Detail  []string // tokenizer-specific morphological detail, e.g. reading/lemma
}

// Tokenizer produces word-boundary tokens spanning text. Implementations
// must be safe for concurrent use after construction, since the driver
// shares one Tokenizer across every worker.
type Tokenizer interface {
	Tokenize(text []byte) []Token
}

// UAX29Tokenizer is the default Tokenizer, backed by UAX #29 word
// boundary segmentation. It does not attempt morphological analysis
// (POS/Detail are always empty) — true morphological tokenization (e.g.
// Japanese dictionary-based segmentation) is left to a dedicated
// Tokenizer implementation behind this same interface, since it is out of
// scope for the core.
type UAX29Tokenizer struct{}

// NewUAX29Tokenizer creates the default word-boundary tokenizer.
func NewUAX29Tokenizer() *UAX29Tokenizer { return &UAX29Tokenizer{} }

// Tokenize implements Tokenizer using clipperhouse/uax29/v2's word
// segmenter. Offsets are reconstructed by accumulating segment lengths,
// since the segmenter yields contiguous, gap-free segments covering the
// entire input.
func (UAX29Tokenizer) Tokenize(text []byte) []Token {
	if len(text) == 0 {
		return nil
	}

	var tokens []Token
	pos := 0
	for seg := range wordSegments(text) {
		start := pos
		end := pos + len(seg)
		pos = end
		if isAllWhitespace(seg) {
			continue
		}
		tokens = append(tokens, Token{
			Surface: string(seg),
			Span:    ast.Span{Start: start, End: end},
		})
	}
	return tokens
}

func isAllWhitespace(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			continue
		default:
			return false
		}
	}
	return true
}
