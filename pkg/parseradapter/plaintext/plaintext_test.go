package plaintext_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/parseradapter/plaintext"
)

func TestParseSplitsOnBlankLines(t *testing.T) {
	p := plaintext.New()
	builder := ast.NewBuilder(0)

	content := []byte("first paragraph\nstill first\n\nsecond paragraph\n\n\nthird paragraph")
	doc, err := p.Parse(context.Background(), builder, content)
	require.NoError(t, err)
	require.Equal(t, ast.KindDocument, doc.Kind)
	require.Len(t, doc.Children, 3)

	require.Equal(t, ast.KindParagraph, doc.Children[0].Kind)
	require.Equal(t, "first paragraph\nstill first", doc.Children[0].Children[0].Text())
	require.Equal(t, "second paragraph", doc.Children[1].Children[0].Text())
	require.Equal(t, "third paragraph", doc.Children[2].Children[0].Text())
}

func TestParseSingleParagraphNoBlankLines(t *testing.T) {
	p := plaintext.New()
	builder := ast.NewBuilder(0)

	content := []byte("just one paragraph of text")
	doc, err := p.Parse(context.Background(), builder, content)
	require.NoError(t, err)
	require.Len(t, doc.Children, 1)
}

func TestParseEmptyContent(t *testing.T) {
	p := plaintext.New()
	builder := ast.NewBuilder(0)

	doc, err := p.Parse(context.Background(), builder, []byte(""))
	require.NoError(t, err)
	require.Empty(t, doc.Children)
}

func TestParseCancelledContext(t *testing.T) {
	p := plaintext.New()
	builder := ast.NewBuilder(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Parse(ctx, builder, []byte("text"))
	require.Error(t, err)
}

func TestNameAndExtensions(t *testing.T) {
	p := plaintext.New()
	require.Equal(t, "plaintext", p.Name())
	require.Contains(t, p.Extensions(), "txt")
}
