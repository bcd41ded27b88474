// Package cache persists lint results across runs: a single on-disk
// archive keyed by workspace-relative file path, with block-level
// reconciliation so an edit to one paragraph doesn't force a whole-file
// re-lint.
package cache

import (
	"time"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
)

// Fingerprint is a 32-byte content hash (blake3-256).
type Fingerprint [32]byte

// BlockEntry is one top-level block's cached diagnostics, keyed by its
// own content hash so a block can be matched across edits that shift its
// byte offset without changing its text.
type BlockEntry struct {
	Span        ast.Span
	ContentHash Fingerprint
	Diagnostics []diag.Diagnostic
}

// FileCacheEntry is the unit of persistence. An entry is valid for reuse
// only when all three of ContentHash, ConfigHash, and RuleVersions match
// the current lint request exactly (spec's three-way validity rule).
type FileCacheEntry struct {
	ContentHash  Fingerprint
	ConfigHash   Fingerprint
	RuleVersions map[string]string
	Diagnostics  []diag.Diagnostic
	Blocks       []BlockEntry
	CreatedAt    time.Time
}

// Valid reports whether e is still usable as a whole-file cache hit
// against the given fingerprints and rule version set.
func (e *FileCacheEntry) Valid(contentHash, configHash Fingerprint, ruleVersions map[string]string) bool {
	if e == nil {
		return false
	}
	if e.ContentHash != contentHash || e.ConfigHash != configHash {
		return false
	}
	return ruleVersionsEqual(e.RuleVersions, ruleVersions)
}

func ruleVersionsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
