package markdown_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/parseradapter/markdown"
)

func parse(t *testing.T, flavor markdown.Flavor, src string) *ast.Node {
	t.Helper()
	p := markdown.New(flavor)
	builder := ast.NewBuilder(0)
	doc, err := p.Parse(context.Background(), builder, []byte(src))
	require.NoError(t, err)
	return doc
}

func TestHeadingDepthAndSpan(t *testing.T) {
	src := "## Title\n"
	doc := parse(t, markdown.FlavorCommonMark, src)

	headers := ast.FindByKind(doc, ast.KindHeader)
	require.Len(t, headers, 1)
	require.Equal(t, 2, headers[0].HeaderDepth())
	require.Equal(t, "## Title", src[headers[0].Span.Start:headers[0].Span.End])
}

func TestFencedCodeBlockLangAndContent(t *testing.T) {
	src := "```go\nfmt.Println(1)\n```\n"
	doc := parse(t, markdown.FlavorCommonMark, src)

	blocks := ast.FindByKind(doc, ast.KindCodeBlock)
	require.Len(t, blocks, 1)
	require.Equal(t, "go", blocks[0].CodeLang())
	require.Equal(t, "fmt.Println(1)\n", blocks[0].Text())
}

func TestLinkDestinationAndTitle(t *testing.T) {
	src := `[text](https://example.com "a title")` + "\n"
	doc := parse(t, markdown.FlavorCommonMark, src)

	links := ast.FindByKind(doc, ast.KindLink)
	require.Len(t, links, 1)
	require.Equal(t, "https://example.com", links[0].LinkURL())
	require.Equal(t, "a title", links[0].LinkTitle())
}

func TestGFMStrikethroughRequiresExtension(t *testing.T) {
	src := "~~gone~~\n"

	doc := parse(t, markdown.FlavorCommonMark, src)
	require.Empty(t, ast.FindByKind(doc, ast.KindDelete))

	doc = parse(t, markdown.FlavorGFM, src)
	require.Len(t, ast.FindByKind(doc, ast.KindDelete), 1)
}

func TestGFMTable(t *testing.T) {
	src := "| a | b |\n| - | - |\n| 1 | 2 |\n"
	doc := parse(t, markdown.FlavorGFM, src)

	tables := ast.FindByKind(doc, ast.KindTable)
	require.Len(t, tables, 1)
	rows := ast.FindByKind(doc, ast.KindTableRow)
	require.Len(t, rows, 2)
	cells := ast.FindByKind(doc, ast.KindTableCell)
	require.Len(t, cells, 4)
}

func TestSpansAreByteExact(t *testing.T) {
	src := "Some *emphasis* and **strong** text.\n"
	doc := parse(t, markdown.FlavorCommonMark, src)

	em := ast.FindFirst(doc, func(n *ast.Node) bool { return n.Kind == ast.KindEmphasis })
	require.NotNil(t, em)
	require.Equal(t, "*emphasis*", src[em.Span.Start:em.Span.End])

	strong := ast.FindFirst(doc, func(n *ast.Node) bool { return n.Kind == ast.KindStrong })
	require.NotNil(t, strong)
	require.Equal(t, "**strong**", src[strong.Span.Start:strong.Span.End])
}

func TestNameAndExtensions(t *testing.T) {
	p := markdown.New(markdown.FlavorGFM)
	require.Equal(t, "markdown", p.Name())
	require.Contains(t, p.Extensions(), "md")
}
