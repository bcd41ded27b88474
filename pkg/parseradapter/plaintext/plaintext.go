// Package plaintext provides the fallback parser for files that are not
// claimed by a more specific adapter: it splits content on blank lines
// into paragraphs, each holding a single Str child.
package plaintext

import (
	"context"
	"regexp"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/parseradapter"
)

// Parser implements parseradapter.Parser for untyped plain text.
type Parser struct{}

// New creates a plain-text parser.
func New() *Parser { return &Parser{} }

// Name implements parseradapter.Parser.
func (p *Parser) Name() string { return "plaintext" }

// Extensions implements parseradapter.Parser. Plain text is also the
// driver's default when no extension matches any registered parser, so
// this list is intentionally small.
func (p *Parser) Extensions() []string { return []string{"txt", "text"} }

// blankLine matches a run of one or more blank lines (CRLF or LF) that
// separates two paragraphs.
var blankLine = regexp.MustCompile(`\r?\n[ \t]*\r?\n[ \t\r\n]*`)

// Parse splits content into paragraphs on runs of blank lines, each
// becoming a Paragraph node with one Str child spanning the paragraph's
// own trimmed text extent.
func (p *Parser) Parse(ctx context.Context, builder *ast.Builder, content []byte) (*ast.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, &parseradapter.InternalError{Reason: "parse cancelled", Err: err}
	}

	var children []*ast.Node
	pos := 0
	n := len(content)

	for pos < n {
		loc := blankLine.FindIndex(content[pos:])
		var chunkEnd int
		if loc == nil {
			chunkEnd = n
		} else {
			chunkEnd = pos + loc[0]
		}

		if node := paragraphNode(builder, content, pos, chunkEnd); node != nil {
			children = append(children, node)
		}

		if loc == nil {
			break
		}
		pos += loc[1]
	}

	span := ast.Span{Start: 0, End: n}
	return builder.NewParent(ast.KindDocument, span, children), nil
}

// paragraphNode trims surrounding whitespace-only lines from [start, end)
// and, if any non-blank content remains, builds a Paragraph/Str pair
// spanning exactly that content.
func paragraphNode(builder *ast.Builder, content []byte, start, end int) *ast.Node {
	s, e := start, end
	for s < e && isTrimByte(content[s]) {
		s++
	}
	for e > s && isTrimByte(content[e-1]) {
		e--
	}
	if s >= e {
		return nil
	}

	span := ast.Span{Start: s, End: e}
	str := builder.NewLeaf(ast.KindStr, span, content[s:e])
	return builder.NewParent(ast.KindParagraph, span, []*ast.Node{str})
}

func isTrimByte(b byte) bool {
	return b == '\n' || b == '\r' || b == ' ' || b == '\t'
}
