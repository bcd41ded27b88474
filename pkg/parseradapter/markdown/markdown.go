// Package markdown adapts goldmark into the parseradapter.Parser
// contract, mapping its AST onto the arena-backed ast.Node tree.
package markdown

import (
	"context"
	"strings"

	"github.com/go-enry/go-enry/v2"
	gm "github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/langdetect"
	"github.com/yaklabco/nllint/pkg/parseradapter"
)

// Flavor selects which Markdown dialect the adapter parses.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// Parser implements parseradapter.Parser using goldmark.
type Parser struct {
	flavor Flavor
	md     gm.Markdown
}

// New creates a Markdown parser for the given flavor. An unrecognized
// flavor value falls back to CommonMark.
func New(flavor Flavor) *Parser {
	f := flavorOrDefault(flavor)
	return &Parser{flavor: f, md: newGoldmarkInstance(f)}
}

func flavorOrDefault(f Flavor) Flavor {
	switch f {
	case FlavorCommonMark, FlavorGFM:
		return f
	default:
		return FlavorCommonMark
	}
}

func newGoldmarkInstance(flavor Flavor) gm.Markdown {
	var opts []gm.Option
	if flavor == FlavorGFM {
		opts = append(opts, gm.WithExtensions(extension.GFM))
	}
	return gm.New(opts...)
}

// Name implements parseradapter.Parser.
func (p *Parser) Name() string { return "markdown" }

// Extensions implements parseradapter.Parser.
func (p *Parser) Extensions() []string { return []string{"md", "markdown", "mdown", "mkd"} }

// Parse implements parseradapter.Parser. Byte ranges are extracted
// directly from goldmark's line/segment bookkeeping (see byterange.go) so
// that every node's Span is bit-exact against the source, with no
// intermediate token-stream layer.
func (p *Parser) Parse(ctx context.Context, builder *ast.Builder, content []byte) (*ast.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, &parseradapter.InternalError{Reason: "parse cancelled", Err: err}
	}

	reader := text.NewReader(content)
	gmDoc := p.md.Parser().Parse(reader, gmparser.WithContext(gmparser.NewContext()))

	if err := ctx.Err(); err != nil {
		return nil, &parseradapter.InternalError{Reason: "parse cancelled", Err: err}
	}

	m := &mapper{content: content, builder: builder}
	doc, err := m.mapDocument(gmDoc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// mapper converts a goldmark tree into ast.Node, allocating exclusively
// from the supplied builder's arena.
type mapper struct {
	content []byte
	builder *ast.Builder
}

func (m *mapper) mapDocument(gmDoc gmast.Node) (*ast.Node, error) {
	children, err := m.mapChildren(gmDoc)
	if err != nil {
		return nil, err
	}
	span := ast.Span{Start: 0, End: len(m.content)}
	return m.builder.NewParent(ast.KindDocument, span, children), nil
}

func (m *mapper) mapChildren(gmParent gmast.Node) ([]*ast.Node, error) {
	var out []*ast.Node
	for child := gmParent.FirstChild(); child != nil; child = child.NextSibling() {
		n, err := m.mapNode(child)
		if err != nil {
			return nil, err
		}
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mapper) mapNode(gmNode gmast.Node) (*ast.Node, error) {
	switch n := gmNode.(type) {
	case *gmast.Heading:
		return m.mapHeading(n)
	case *gmast.Paragraph:
		return m.mapContainer(n, ast.KindParagraph)
	case *gmast.List:
		return m.mapList(n)
	case *gmast.ListItem:
		return m.mapContainer(n, ast.KindListItem)
	case *gmast.Blockquote:
		return m.mapContainer(n, ast.KindBlockQuote)
	case *gmast.FencedCodeBlock:
		return m.mapFencedCodeBlock(n)
	case *gmast.CodeBlock:
		return m.mapIndentedCodeBlock(n)
	case *gmast.ThematicBreak:
		return m.mapLeaf(n, ast.KindHorizontalRule)
	case *gmast.HTMLBlock:
		return m.mapHTMLBlock(n)
	case *gmast.Text:
		return m.mapText(n)
	case *gmast.Emphasis:
		return m.mapEmphasis(n)
	case *gmast.CodeSpan:
		return m.mapCodeSpan(n)
	case *gmast.Link:
		return m.mapLink(n)
	case *gmast.Image:
		return m.mapImage(n)
	case *gmast.AutoLink:
		return m.mapAutoLink(n)
	case *gmast.RawHTML:
		return m.mapRawHTML(n)
	case *gmast.String:
		return m.mapString(n)
	case *east.Strikethrough:
		return m.mapContainer(n, ast.KindDelete)
	case *east.Table:
		return m.mapContainer(n, ast.KindTable)
	case *east.TableHeader:
		return m.mapContainer(n, ast.KindTableRow)
	case *east.TableRow:
		return m.mapContainer(n, ast.KindTableRow)
	case *east.TableCell:
		return m.mapContainer(n, ast.KindTableCell)
	default:
		// Unrecognized construct (e.g. a TaskCheckBox with no tree-level
		// home in this node set): drop it rather than fail the whole
		// parse, matching the "Core never recovers from a failed parse,
		// but absorbs unrecognized constructs" contract.
		return nil, nil
	}
}

func (m *mapper) mapContainer(gmNode gmast.Node, kind ast.Kind) (*ast.Node, error) {
	children, err := m.mapChildren(gmNode)
	if err != nil {
		return nil, err
	}
	span := nodeSpan(gmNode, m.content)
	return m.builder.NewParent(kind, span, children), nil
}

func (m *mapper) mapLeaf(gmNode gmast.Node, kind ast.Kind) (*ast.Node, error) {
	span := nodeSpan(gmNode, m.content)
	return m.builder.New(kind, span), nil
}

func (m *mapper) mapHeading(h *gmast.Heading) (*ast.Node, error) {
	children, err := m.mapChildren(h)
	if err != nil {
		return nil, err
	}
	span := nodeSpan(h, m.content)
	// An ATX heading's lines hold only its text; start the span at the
	// beginning of its source line so the "#" markers are included.
	for span.End > span.Start && span.Start > 0 && m.content[span.Start-1] != '\n' {
		span.Start--
	}
	n := m.builder.NewWithData(ast.KindHeader, span, ast.Header(h.Level))
	n.Children = children
	return n, nil
}

func (m *mapper) mapList(list *gmast.List) (*ast.Node, error) {
	children, err := m.mapChildren(list)
	if err != nil {
		return nil, err
	}
	span := nodeSpan(list, m.content)
	n := m.builder.NewWithData(ast.KindList, span, ast.List(list.IsOrdered()))
	n.Children = children
	return n, nil
}

func (m *mapper) mapFencedCodeBlock(cb *gmast.FencedCodeBlock) (*ast.Node, error) {
	span := nodeSpan(cb, m.content)

	info := ""
	if cb.Info != nil {
		info = string(cb.Info.Value(m.content))
	}
	body := codeBlockContent(cb, m.content)
	lang := normalizeLang(info)
	if lang == "" {
		lang = guessLang(body)
	}

	n := m.builder.NewWithData(ast.KindCodeBlock, span, ast.CodeBlock(lang))
	n.Value = body
	return n, nil
}

func (m *mapper) mapIndentedCodeBlock(cb *gmast.CodeBlock) (*ast.Node, error) {
	span := nodeSpan(cb, m.content)
	body := codeBlockContent(cb, m.content)
	n := m.builder.NewWithData(ast.KindCodeBlock, span, ast.CodeBlock(guessLang(body)))
	n.Value = body
	return n, nil
}

// guessLang is the fallback for a code block with no declared language:
// indented blocks never have an info string, and a fenced block may
// leave it blank. langdetect.Detect's own "don't know" answer is "text",
// which carries no information a rule could key off of, so it collapses
// to the same empty lang a declared-but-unrecognized fence never
// produces (normalizeLang always returns the fence's own first word,
// lowercased, in that case instead).
func guessLang(body []byte) string {
	if lang := langdetect.Detect(body); lang != "text" {
		return lang
	}
	return ""
}

func (m *mapper) mapHTMLBlock(h *gmast.HTMLBlock) (*ast.Node, error) {
	span := nodeSpan(h, m.content)
	n := m.builder.New(ast.KindHTML, span)
	n.Value = sliceSpan(m.content, span)
	return n, nil
}

func (m *mapper) mapText(t *gmast.Text) (*ast.Node, error) {
	span := textSegmentSpan(t)
	if t.SoftLineBreak() {
		return m.builder.New(ast.KindBreak, span), nil
	}
	if t.HardLineBreak() {
		return m.builder.New(ast.KindBreak, span), nil
	}
	n := m.builder.New(ast.KindStr, span)
	n.Value = t.Value(m.content)
	return n, nil
}

func (m *mapper) mapEmphasis(e *gmast.Emphasis) (*ast.Node, error) {
	children, err := m.mapChildren(e)
	if err != nil {
		return nil, err
	}
	span := nodeSpan(e, m.content)
	// nodeSpan covers only the Text children; widen it over the
	// delimiter run on each side (one byte per emphasis level).
	if span.End > span.Start && span.Start >= e.Level && span.End+e.Level <= len(m.content) {
		span.Start -= e.Level
		span.End += e.Level
	}
	kind := ast.KindEmphasis
	if e.Level == 2 {
		kind = ast.KindStrong
	}
	return m.builder.NewParent(kind, span, children), nil
}

func (m *mapper) mapCodeSpan(c *gmast.CodeSpan) (*ast.Node, error) {
	span := nodeSpan(c, m.content)
	var text []byte
	for child := c.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*gmast.Text); ok {
			text = append(text, t.Value(m.content)...)
		}
	}
	n := m.builder.New(ast.KindCode, span)
	n.Value = text
	return n, nil
}

func (m *mapper) mapLink(l *gmast.Link) (*ast.Node, error) {
	children, err := m.mapChildren(l)
	if err != nil {
		return nil, err
	}
	span := nodeSpan(l, m.content)
	n := m.builder.NewWithData(ast.KindLink, span, ast.Link(string(l.Destination), string(l.Title)))
	n.Children = children
	return n, nil
}

func (m *mapper) mapImage(img *gmast.Image) (*ast.Node, error) {
	children, err := m.mapChildren(img)
	if err != nil {
		return nil, err
	}
	span := nodeSpan(img, m.content)
	n := m.builder.NewWithData(ast.KindImage, span, ast.Image(string(img.Destination), string(img.Title)))
	n.Children = children
	return n, nil
}

func (m *mapper) mapAutoLink(al *gmast.AutoLink) (*ast.Node, error) {
	span := nodeSpan(al, m.content)
	url := string(al.URL(m.content))
	n := m.builder.NewWithData(ast.KindLink, span, ast.Link(url, ""))

	textNode := m.builder.New(ast.KindStr, span)
	textNode.Value = al.Label(m.content)
	n.Children = []*ast.Node{textNode}
	return n, nil
}

func (m *mapper) mapRawHTML(r *gmast.RawHTML) (*ast.Node, error) {
	span := rawHTMLSpan(r)
	n := m.builder.New(ast.KindHTML, span)
	n.Value = sliceSpan(m.content, span)
	return n, nil
}

func (m *mapper) mapString(s *gmast.String) (*ast.Node, error) {
	// gmast.String carries no source segment (it is synthesized by
	// goldmark, e.g. for smart-punctuation substitutions); give it an
	// empty span at offset 0 rather than guessing a position.
	n := m.builder.New(ast.KindStr, ast.Span{})
	n.Value = s.Value
	return n, nil
}

func sliceSpan(content []byte, span ast.Span) []byte {
	if span.Start < 0 || span.End > len(content) || span.Start > span.End {
		return nil
	}
	return content[span.Start:span.End]
}

func codeBlockContent(gmNode gmast.Node, content []byte) []byte {
	lines := gmNode.Lines()
	var out []byte
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(content)...)
	}
	return out
}

// normalizeLang maps a fenced code block's raw info string to a lowercased
// language identifier: go-enry's canonical name for the first word of
// info when its alias table knows it, otherwise that first word itself.
func normalizeLang(info string) string {
	if info == "" {
		return ""
	}
	word := info
	for i, r := range info {
		if r == ' ' || r == '\t' {
			word = info[:i]
			break
		}
	}
	if word == "" {
		return ""
	}
	if alias, ok := enry.GetLanguageByAlias(word); ok {
		return strings.ToLower(alias)
	}
	return strings.ToLower(word)
}
