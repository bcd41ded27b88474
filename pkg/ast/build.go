package ast

import "github.com/yaklabco/nllint/pkg/arena"

// Builder constructs nodes for a single file out of one arena. Parser
// adapters hold a Builder for the duration of one Parse call; nothing
// about it is retained afterward except the finished tree.
type Builder struct {
	arena *arena.Typed[Node]
}

// NewBuilder creates a Builder backed by a fresh node arena sized for an
// estimated node count (0 uses the arena's default starting capacity).
func NewBuilder(estimatedNodes int) *Builder {
	if estimatedNodes <= 0 {
		return &Builder{arena: arena.NewTyped[Node]()}
	}
	return &Builder{arena: arena.NewTypedSized[Node](estimatedNodes)}
}

// New allocates a node of the given kind and span with no children, ready
// to have its Children slice assigned once the caller has parsed them.
func (b *Builder) New(kind Kind, span Span) *Node {
	n := b.arena.Alloc()
	n.Kind = kind
	n.Span = span
	return n
}

// NewLeaf allocates a leaf node carrying a text Value (Str, Code, raw
// Html content).
func (b *Builder) NewLeaf(kind Kind, span Span, value []byte) *Node {
	n := b.New(kind, span)
	n.Value = value
	return n
}

// NewWithData allocates a node carrying a tagged Data payload (Header,
// List, CodeBlock, Link, Image, Reference, Definition).
func (b *Builder) NewWithData(kind Kind, span Span, data Data) *Node {
	n := b.New(kind, span)
	n.Data = data
	return n
}

// NewParent allocates a node with a fixed set of children, computing the
// parent span as the union of the children's spans when start/end are not
// already known (pass an explicit span when the container has delimiter
// bytes, e.g. a BlockQuote's leading `>`, outside its children's ranges).
func (b *Builder) NewParent(kind Kind, span Span, children []*Node) *Node {
	n := b.New(kind, span)
	n.Children = children
	return n
}

// ChildSlice returns a fresh slice of n child-pointer slots, for callers
// that build a parent's children incrementally before linking them in.
// Pointer slices are ordinary Go allocations (small, GC-managed); only the
// Node values themselves need the arena's stable-address guarantee.
func (b *Builder) ChildSlice(n int) []*Node {
	if n <= 0 {
		return nil
	}
	return make([]*Node, n)
}

// NodeCount returns the number of nodes allocated so far.
func (b *Builder) NodeCount() int {
	return b.arena.Len()
}
