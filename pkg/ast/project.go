package ast

import "encoding/json"

// Projection is the stable wire form of a Node, sent to rule plugins over
// the plugin host's JSON or MessagePack codec (see pkg/pluginhost). It is
// built once per file and shared read-only across every rule invocation
// for that file — rules never see a *Node directly, since that would leak
// arena-owned pointers across the WASM boundary.
type Projection struct {
	Type     string        `json:"type"`
	Range    [2]int        `json:"range"`
	Children []*Projection `json:"children,omitempty"`
	Value    string        `json:"value,omitempty"`

	// Header
	Depth int `json:"depth,omitempty"`

	// List
	Ordered bool `json:"ordered,omitempty"`

	// CodeBlock
	Lang string `json:"lang,omitempty"`

	// Link, Image
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`

	// LinkReference, ImageReference, FootnoteReference, Definition
	Identifier string `json:"identifier,omitempty"`
	Label      string `json:"label,omitempty"`
}

// Project converts n and its subtree into the stable wire projection.
func Project(n *Node) *Projection {
	if n == nil {
		return nil
	}

	p := &Projection{
		Type:  n.Kind.String(),
		Range: [2]int{n.Span.Start, n.Span.End},
	}
	if len(n.Value) > 0 {
		p.Value = string(n.Value)
	}

	switch n.Data.Tag {
	case DataHeader:
		p.Depth = n.Data.Depth
	case DataList:
		p.Ordered = n.Data.Ordered
	case DataCodeBlock:
		p.Lang = n.Data.Lang
	case DataLink, DataImage:
		p.URL = n.Data.URL
		p.Title = n.Data.Title
	case DataReference:
		p.Identifier = n.Data.Identifier
		p.Label = n.Data.Label
	case DataDefinition:
		p.Identifier = n.Data.Identifier
		p.URL = n.Data.URL
		p.Title = n.Data.Title
		p.Label = n.Data.Label
	}

	if len(n.Children) > 0 {
		p.Children = make([]*Projection, len(n.Children))
		for i, c := range n.Children {
			p.Children[i] = Project(c)
		}
	}

	return p
}

// MarshalJSON serializes root's projection as the rule-facing wire format.
func MarshalJSON(root *Node) ([]byte, error) {
	return json.Marshal(Project(root))
}
