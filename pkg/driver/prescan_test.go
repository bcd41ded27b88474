package driver

import (
	"testing"

	"github.com/yaklabco/nllint/pkg/ast"
)

func TestPreScanAlwaysSetsHasAny(t *testing.T) {
	characteristics := preScan(nil)
	if !characteristics["has_any"] {
		t.Fatal("expected has_any to always be set, even for a nil tree")
	}
	if len(characteristics) != 1 {
		t.Fatalf("expected no other characteristics for a nil tree, got %v", characteristics)
	}
}

func TestPreScanDetectsHeadingsAndLinks(t *testing.T) {
	builder := ast.NewBuilder(0)
	header := builder.NewWithData(ast.KindHeader, ast.Span{Start: 0, End: 5}, ast.Header(1))
	link := builder.NewWithData(ast.KindLink, ast.Span{Start: 10, End: 20}, ast.Link("https://example.com", ""))
	para := builder.NewParent(ast.KindParagraph, ast.Span{Start: 6, End: 20}, []*ast.Node{link})
	root := builder.NewParent(ast.KindDocument, ast.Span{Start: 0, End: 20}, []*ast.Node{header, para})

	characteristics := preScan(root)

	for _, want := range []string{"has_any", "has_headings", "has_links"} {
		if !characteristics[want] {
			t.Errorf("expected characteristic %q to be set, got %v", want, characteristics)
		}
	}
	if characteristics["has_tables"] {
		t.Error("did not expect has_tables to be set")
	}
}

func TestPreScanDetectsCodeAndTables(t *testing.T) {
	builder := ast.NewBuilder(0)
	code := builder.NewWithData(ast.KindCodeBlock, ast.Span{Start: 0, End: 10}, ast.CodeBlock("go"))
	cell := builder.New(ast.KindTableCell, ast.Span{Start: 20, End: 25})
	row := builder.NewParent(ast.KindTableRow, ast.Span{Start: 20, End: 25}, []*ast.Node{cell})
	table := builder.NewParent(ast.KindTable, ast.Span{Start: 20, End: 25}, []*ast.Node{row})
	root := builder.NewParent(ast.KindDocument, ast.Span{Start: 0, End: 25}, []*ast.Node{code, table})

	characteristics := preScan(root)

	for _, want := range []string{"has_code_blocks", "has_tables"} {
		if !characteristics[want] {
			t.Errorf("expected characteristic %q to be set, got %v", want, characteristics)
		}
	}
}
