package cache

import (
	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/diag"
)

// CurrentBlock is one top-level block of the file currently being linted,
// as seen by the driver before any cache lookup.
type CurrentBlock struct {
	Span        ast.Span
	ContentHash Fingerprint
}

// ReconcileResult is the outcome of matching a file's current top-level
// blocks against a cache entry's previously-cached blocks.
type ReconcileResult struct {
	// Reused holds diagnostics carried over from matched blocks, with
	// spans already shifted to the current block's position.
	Reused []diag.Diagnostic
	// Dirty lists the current blocks that had no matching cached block by
	// content hash; these must be re-linted by both Global- and
	// Block-isolation rules.
	Dirty []CurrentBlock
	// AnyDirty is true if len(Dirty) > 0, provided as a named field so
	// callers reads as "are Global-isolation rules forced to re-run"
	// without re-deriving it.
	AnyDirty bool
}

// Reconcile matches current against entry.Blocks by content hash,
// picking for each current block the cached block with the same hash
// whose original span starts nearest the current block's start (least
// |Δstart|), and shifts its diagnostics' spans by the resulting offset.
// Current blocks with no cached match by hash are reported as Dirty.
func Reconcile(entry *FileCacheEntry, current []CurrentBlock) ReconcileResult {
	var result ReconcileResult
	if entry == nil {
		result.Dirty = current
		result.AnyDirty = len(current) > 0
		return result
	}

	byHash := make(map[Fingerprint][]BlockEntry)
	for _, b := range entry.Blocks {
		byHash[b.ContentHash] = append(byHash[b.ContentHash], b)
	}

	for _, cur := range current {
		candidates := byHash[cur.ContentHash]
		if len(candidates) == 0 {
			result.Dirty = append(result.Dirty, cur)
			continue
		}

		best := candidates[0]
		bestDelta := absInt(cur.Span.Start - best.Span.Start)
		for _, cand := range candidates[1:] {
			if d := absInt(cur.Span.Start - cand.Span.Start); d < bestDelta {
				best, bestDelta = cand, d
			}
		}

		shift := cur.Span.Start - best.Span.Start
		for _, d := range best.Diagnostics {
			d.Span = ast.Span{Start: d.Span.Start + shift, End: d.Span.End + shift}
			if d.Fix != nil {
				shifted := *d.Fix
				shifted.Span = ast.Span{Start: shifted.Span.Start + shift, End: shifted.Span.End + shift}
				d.Fix = &shifted
			}
			result.Reused = append(result.Reused, d)
		}
	}

	result.AnyDirty = len(result.Dirty) > 0
	return result
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
