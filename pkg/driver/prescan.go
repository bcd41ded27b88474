package driver

import "github.com/yaklabco/nllint/pkg/ast"

// characteristics are pre-scan content tags a parsed file either has or
// doesn't, computed once per file in a single traversal: the coarse
// has_* tags below plus the name of every node kind present (the names
// manifests list in node_types, e.g. "Str", "Header"). They are consulted
// against every loaded rule's Manifest.NodeTypes so that a rule whose
// declared interests are entirely absent from the file is never invoked
// at all (a rule that only ever fires on tables costs nothing on a file
// with no table).
var nodeKindCharacteristic = map[ast.Kind]string{
	ast.KindHeader:             "has_headings",
	ast.KindBlockQuote:         "has_blockquotes",
	ast.KindList:               "has_lists",
	ast.KindListItem:           "has_lists",
	ast.KindCodeBlock:          "has_code_blocks",
	ast.KindHTML:               "has_html",
	ast.KindTable:              "has_tables",
	ast.KindTableRow:           "has_tables",
	ast.KindTableCell:          "has_tables",
	ast.KindFootnoteDefinition: "has_footnotes",
	ast.KindFootnoteReference:  "has_footnotes",
	ast.KindEmphasis:           "has_emphasis",
	ast.KindStrong:             "has_emphasis",
	ast.KindDelete:             "has_strikethrough",
	ast.KindCode:               "has_inline_code",
	ast.KindLink:               "has_links",
	ast.KindLinkReference:      "has_links",
	ast.KindImage:              "has_images",
	ast.KindImageReference:     "has_images",
	ast.KindDefinition:         "has_links",
	ast.KindHorizontalRule:     "has_rules",
	ast.KindParagraph:          "has_text",
	ast.KindStr:                "has_text",
}

// preScan walks root once and returns the set of characteristics present
// in the file (each node's Kind.String() and its has_* tag), always
// including "has_any" so a rule that declares
// interest in every node regardless of kind can still be matched.
func preScan(root *ast.Node) map[string]bool {
	characteristics := map[string]bool{"has_any": true}
	if root == nil {
		return characteristics
	}
	ast.Walk(root, func(n *ast.Node, _ []*ast.Node) ast.VisitAction {
		characteristics[n.Kind.String()] = true
		if tag, ok := nodeKindCharacteristic[n.Kind]; ok {
			characteristics[tag] = true
		}
		return ast.Continue
	})
	return characteristics
}
