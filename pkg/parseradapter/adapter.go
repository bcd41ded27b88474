// Package parseradapter defines the thin, pluggable boundary between raw
// file content and the arena-backed syntax tree in pkg/ast. Each
// supported source format (Markdown, plain text, future formats) ships
// its own Parser implementation behind this interface; the driver never
// depends on a concrete parser package directly.
package parseradapter

import (
	"context"
	"fmt"

	"github.com/yaklabco/nllint/pkg/ast"
)

// Parser converts raw source bytes into an ast.Node tree rooted at
// ast.KindDocument.
type Parser interface {
	// Name identifies the parser for logging and cache-key namespacing,
	// e.g. "markdown" or "plaintext".
	Name() string

	// Extensions lists the file extensions (without a leading dot) this
	// parser claims by default, e.g. []string{"md", "markdown"}.
	Extensions() []string

	// Parse builds a tree from content. The returned *ast.Node and every
	// node beneath it were allocated from builder's arena; the tree must
	// not be used once that arena is discarded.
	Parse(ctx context.Context, builder *ast.Builder, content []byte) (*ast.Node, error)
}

// InvalidSourceError reports content the parser could not make sense of
// at all (as distinct from recoverable per-construct fallbacks, which a
// parser should absorb rather than fail on).
type InvalidSourceError struct {
	Message    string
	ByteOffset int
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid source at byte %d: %s", e.ByteOffset, e.Message)
}

// UnsupportedFeatureError reports a construct a parser recognizes but
// deliberately does not translate into the tree (e.g. a markdown
// extension syntax the adapter has not been configured for).
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported feature: %s", e.Feature)
}

// InternalError wraps an unexpected failure inside a parser's own
// dependency (e.g. a panic recovered from a third-party library).
type InternalError struct {
	Reason string
	Err    error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal parser error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("internal parser error: %s", e.Reason)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Registry resolves a Parser by name or file extension. One Registry is
// built at process start and shared read-only by every driver worker.
type Registry struct {
	byName map[string]Parser
	byExt  map[string]Parser
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Parser),
		byExt:  make(map[string]Parser),
	}
}

// Register adds p, indexing it by name and by every extension it claims.
// A later registration for the same extension overrides an earlier one,
// so callers can layer a custom parser over a built-in default.
func (r *Registry) Register(p Parser) {
	r.byName[p.Name()] = p
	for _, ext := range p.Extensions() {
		r.byExt[ext] = p
	}
}

// ByName looks up a parser by its registered name.
func (r *Registry) ByName(name string) (Parser, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// ByExtension looks up a parser by file extension (without a leading
// dot, case-sensitive — callers normalize case before calling).
func (r *Registry) ByExtension(ext string) (Parser, bool) {
	p, ok := r.byExt[ext]
	return p, ok
}
