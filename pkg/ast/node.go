// Package ast defines the arena-backed syntax tree shared by every parser
// adapter and consumed by rule plugins. Nodes carry a byte span into the
// original source and a small tagged-union payload; they do not carry
// parent, previous, or next pointers. Visitors that need ancestor context
// maintain their own path stack while walking (see Walk).
package ast

// Kind identifies the syntactic category of a Node.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Block kinds.
	KindDocument
	KindParagraph
	KindHeader
	KindBlockQuote
	KindList
	KindListItem
	KindCodeBlock
	KindHorizontalRule
	KindHTML
	KindTable
	KindTableRow
	KindTableCell
	KindFootnoteDefinition

	// Inline kinds.
	KindStr
	KindBreak
	KindEmphasis
	KindStrong
	KindDelete
	KindCode
	KindLink
	KindImage
	KindLinkReference
	KindImageReference
	KindFootnoteReference
	KindDefinition
)

var kindNames = [...]string{
	KindInvalid:            "Invalid",
	KindDocument:           "Document",
	KindParagraph:          "Paragraph",
	KindHeader:             "Header",
	KindBlockQuote:         "BlockQuote",
	KindList:               "List",
	KindListItem:           "ListItem",
	KindCodeBlock:          "CodeBlock",
	KindHorizontalRule:     "HorizontalRule",
	KindHTML:               "Html",
	KindTable:              "Table",
	KindTableRow:           "TableRow",
	KindTableCell:          "TableCell",
	KindFootnoteDefinition: "FootnoteDefinition",
	KindStr:                "Str",
	KindBreak:              "Break",
	KindEmphasis:           "Emphasis",
	KindStrong:             "Strong",
	KindDelete:             "Delete",
	KindCode:               "Code",
	KindLink:               "Link",
	KindImage:              "Image",
	KindLinkReference:      "LinkReference",
	KindImageReference:     "ImageReference",
	KindFootnoteReference:  "FootnoteReference",
	KindDefinition:         "Definition",
}

// String returns the wire name used in the JSON node projection.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Invalid"
}

// IsBlock reports whether k is a block-level kind.
func (k Kind) IsBlock() bool {
	switch k {
	case KindDocument, KindParagraph, KindHeader, KindBlockQuote, KindList,
		KindListItem, KindCodeBlock, KindHorizontalRule, KindHTML,
		KindTable, KindTableRow, KindTableCell, KindFootnoteDefinition:
		return true
	}
	return false
}

// IsInline reports whether k is an inline-level kind.
func (k Kind) IsInline() bool {
	return !k.IsBlock() && k != KindInvalid
}

// Span is a half-open byte range [Start, End) into the source buffer a
// Node was parsed from.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// IsEmpty reports whether the span covers zero bytes.
func (s Span) IsEmpty() bool { return s.Start == s.End }

// Contains reports whether offset falls within the span.
func (s Span) Contains(offset int) bool { return offset >= s.Start && offset < s.End }

// Overlaps reports whether s and o share any byte.
func (s Span) Overlaps(o Span) bool { return s.Start < o.End && o.Start < s.End }

// Node is one element of the syntax tree. Nodes are allocated from an
// arena.Typed[Node] and referenced exclusively by pointer; Children holds
// pointers into the same arena. There are deliberately no Parent, Prev, or
// Next fields — keeping the struct small and the tree trivially shareable
// across read-only rule invocations. Visitors reconstruct ancestry with a
// path stack while walking.
type Node struct {
	Kind     Kind
	Span     Span
	Children []*Node
	Value    []byte // raw text payload for leaf kinds (Str, Code, Html, raw CodeBlock content)
	Data     Data
}

// Text returns the node's own text payload as a string. For container
// nodes with no direct Value (most block kinds), it returns "".
func (n *Node) Text() string {
	if n == nil || n.Value == nil {
		return ""
	}
	return string(n.Value)
}
