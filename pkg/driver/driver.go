// Package driver implements end-to-end per-run orchestration: pattern
// expansion, the parse/pre-scan/tokenize/reconcile/invoke pipeline for a
// single file, and the worker pool that fans that pipeline out across
// every discovered file while keeping output order and content
// independent of scheduling.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/yaklabco/nllint/pkg/ast"
	"github.com/yaklabco/nllint/pkg/cache"
	"github.com/yaklabco/nllint/pkg/diag"
	"github.com/yaklabco/nllint/pkg/fixcoordinator"
	"github.com/yaklabco/nllint/pkg/fsutil"
	"github.com/yaklabco/nllint/pkg/parseradapter"
	"github.com/yaklabco/nllint/pkg/pluginhost"
	"github.com/yaklabco/nllint/pkg/textanalysis"
)

const defaultCacheFile = "nllint.cache"

// MaxFixPasses bounds Config.ReParseAfterFix's re-lint loop. It reuses
// fixcoordinator.MaxIterations rather than defining a second safety
// constant, since both bounds exist for the same reason: a fix
// convergence loop that hasn't settled by 10 passes is stuck, not slow.
const MaxFixPasses = fixcoordinator.MaxIterations

// LintDriver is the core entry point: one instance is built per run from
// a resolved Config, a parser registry, and a pattern expander, and
// exposes the two public operations external callers (the CLI wrapper,
// an LSP collaborator) drive the core through.
type LintDriver struct {
	cfg      Config
	parsers  *parseradapter.Registry
	expander PatternExpander
	pool     *pluginhost.Pool
	jobs     int

	tokenizer textanalysis.Tokenizer
	splitter  textanalysis.SentenceSplitter

	cacheStore   *cache.Store
	cacheEnabled bool

	configHash   cache.Fingerprint
	ruleVersions map[string]string
}

// New builds a LintDriver: validates cfg, compiles and loads every rule
// binding into a pool of PluginHost instances (one per worker), and
// opens the persistent cache archive if enabled. expander may be nil to
// use the default filesystem-backed PatternExpander rooted at the
// current working directory.
func New(ctx context.Context, cfg Config, parsers *parseradapter.Registry, expander PatternExpander) (*LintDriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}

	pool, err := pluginhost.NewPool(ctx, jobs, cfg.Rules, cfg.limitsOrDefault())
	if err != nil {
		return nil, &diag.ConfigError{Reason: "failed to initialize plugin host pool", Err: err}
	}

	ruleVersions, err := collectRuleVersions(pool, cfg.Rules)
	if err != nil {
		pool.Close(ctx)
		return nil, err
	}

	configHash, err := cache.HashConfig(effectiveConfigValue(cfg))
	if err != nil {
		pool.Close(ctx)
		return nil, &diag.ConfigError{Reason: "failed to fingerprint effective configuration", Err: err}
	}

	if expander == nil {
		expander = NewDefaultExpander("", cfg.Extensions)
	}

	d := &LintDriver{
		cfg:          cfg,
		parsers:      parsers,
		expander:     expander,
		pool:         pool,
		jobs:         jobs,
		tokenizer:    textanalysis.NewUAX29Tokenizer(),
		splitter:     textanalysis.NewUAX29SentenceSplitter(),
		cacheEnabled: cfg.CacheEnabled,
		configHash:   configHash,
		ruleVersions: ruleVersions,
	}

	if cfg.CacheEnabled {
		dir := cfg.CacheDir
		if dir == "" {
			dir = "."
		}
		d.cacheStore = cache.New(filepath.Join(dir, defaultCacheFile))
		if err := d.cacheStore.Load(); err != nil {
			// Absorbed per the core's cache failure policy: disable the
			// cache for this run rather than fail construction.
			d.cacheEnabled = false
		}
	}

	return d, nil
}

// collectRuleVersions acquires one host from the pool just long enough
// to read back every loaded rule's manifest version, then returns it.
// Every host in the pool loaded the identical binding set, so any one of
// them carries the same versions.
func collectRuleVersions(pool *pluginhost.Pool, bindings []pluginhost.RuleBinding) (map[string]string, error) {
	host, ok := pool.Acquire()
	if !ok {
		return nil, &diag.ConfigError{Reason: "plugin host pool produced no hosts"}
	}
	defer pool.Release(host)

	versions := make(map[string]string, len(bindings))
	for _, b := range bindings {
		m, ok := host.Manifest(b.Alias)
		if !ok {
			return nil, &diag.ConfigError{Reason: fmt.Sprintf("rule %q loaded but its manifest is missing", b.Alias)}
		}
		versions[b.Alias] = m.Version
	}
	return versions, nil
}

// effectiveConfigValue builds the map cache.HashConfig fingerprints: a
// stable view of everything that changes a rule's output, so that
// identical content linted under a different ruleset or options never
// produces a false cache hit.
func effectiveConfigValue(cfg Config) map[string]any {
	rules := make([]map[string]any, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rules = append(rules, map[string]any{
			"alias":     r.Alias,
			"config":    r.Config,
			"isolation": string(r.Isolation),
		})
	}
	return map[string]any{
		"rules":      rules,
		"include":    cfg.Include,
		"exclude":    cfg.Exclude,
		"extensions": cfg.Extensions,
		"limits":     cfg.limitsOrDefault(),
	}
}

// Close releases every pooled PluginHost and, if the cache is enabled,
// flushes it to disk.
func (d *LintDriver) Close(ctx context.Context) error {
	var saveErr error
	if d.cacheEnabled {
		saveErr = d.cacheStore.Save()
	}
	d.pool.Close(ctx)
	return saveErr
}

// LintPatterns expands patterns into a file list, lints every file with
// a pool of workers bounded to the driver's job count, and returns
// results in the same order the input patterns resolved the files in —
// parallelism never becomes observable in output order or content.
func (d *LintDriver) LintPatterns(ctx context.Context, patterns []string) (*Result, error) {
	files, err := d.expander.Expand(ctx, patterns, d.cfg.Exclude)
	if err != nil {
		return nil, &diag.ConfigError{Reason: "failed to expand lint patterns", Err: err}
	}

	result := &Result{}
	if len(files) == 0 {
		return result, nil
	}

	order := make(map[string]int, len(files))
	for i, f := range files {
		order[f] = i
	}

	fileResults := make([]*FileResult, len(files))
	fileFailures := make([]*FileFailure, len(files))
	var ruleFailuresMu sync.Mutex
	var ruleFailures []RuleFailure

	sem := semaphore.NewWeighted(int64(d.jobs))
	g, gctx := errgroup.WithContext(ctx)

	for i, path := range files {
		i, path := i, path

		// Cooperative cancellation is consulted between files, never
		// within one: once observed, no new file is scheduled, but
		// everything already dispatched runs to completion.
		if gctx.Err() != nil {
			break
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			fr, rfs, ffErr := d.lintFile(gctx, path)
			if len(rfs) > 0 {
				ruleFailuresMu.Lock()
				ruleFailures = append(ruleFailures, rfs...)
				ruleFailuresMu.Unlock()
			}
			if ffErr != nil {
				fileFailures[i] = &FileFailure{Path: path, Err: ffErr}
				return nil
			}
			fileResults[i] = fr
			return nil
		})
	}

	// errgroup.Wait's error is only non-nil for a genuinely unexpected
	// failure in the dispatch loop itself (context cancellation);
	// per-file failures are always captured above rather than
	// propagated here, matching the "never abort a whole run for one
	// file" contract.
	_ = g.Wait()

	for _, fr := range fileResults {
		if fr != nil {
			result.Files = append(result.Files, *fr)
		}
	}
	for _, ff := range fileFailures {
		if ff != nil {
			result.Failures = append(result.Failures, *ff)
		}
	}
	sort.Slice(ruleFailures, func(a, b int) bool {
		if ruleFailures[a].Path != ruleFailures[b].Path {
			return order[ruleFailures[a].Path] < order[ruleFailures[b].Path]
		}
		return ruleFailures[a].Err.RuleID < ruleFailures[b].Err.RuleID
	})
	result.RuleFailures = ruleFailures

	return result, nil
}

// LintText lints a single in-memory source buffer against path's
// extension, bypassing discovery entirely — the shape an LSP
// collaborator needs for an unsaved buffer.
func (d *LintDriver) LintText(ctx context.Context, path string, source []byte) (*FileResult, error) {
	host, ok := d.pool.Acquire()
	if !ok {
		return nil, &diag.ConfigError{Reason: "no plugin host available"}
	}
	defer d.pool.Release(host)

	// lint_text's contract has no separate rule-failure channel: a rule
	// failure here is silent in the same way lint_patterns' per-file
	// RuleFailures never touch a successful FileResult's Diagnostics.
	fr, _, err := d.lintOne(ctx, host, path, source)
	if err != nil {
		return nil, err
	}
	return fr, nil
}

// lintFile reads path from disk and runs it through lintOne, acquiring
// and releasing a pooled PluginHost around the call. A read failure is
// reported as a FileFailure, matching a parse failure's propagation
// policy (the whole file fails, nothing is returned for it). When
// Config.Fix is set and lintOne produced a FixedContent, the result is
// written back to path before returning.
func (d *LintDriver) lintFile(ctx context.Context, path string) (*FileResult, []RuleFailure, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, diag.CategorizeError(err)
	}

	host, ok := d.pool.Acquire()
	if !ok {
		return nil, nil, &diag.ConfigError{Reason: "no plugin host available"}
	}
	defer d.pool.Release(host)

	fr, ruleFailures, err := d.lintOne(ctx, host, path, source)
	if err != nil {
		return nil, nil, err
	}

	if d.cfg.Fix && len(fr.FixedContent) > 0 {
		if err := d.WriteFixedContent(ctx, path, fr.FixedContent, d.cfg.Backup); err != nil {
			return nil, nil, err
		}
	}

	return fr, ruleFailures, nil
}

// WriteFixedContent replaces path's on-disk content with content,
// atomically. It is what lintFile calls internally when Config.Fix is
// set, and is exported so a caller driving lint_text for an unsaved
// buffer can apply that result's FixedContent the same way once it
// decides to persist it — lint_text itself never writes back, since the
// driver has no file of record for a buffer it was only ever handed in
// memory. When backup is true, the original content is snapshotted via
// pkg/fsutil.CreateBackup before being overwritten.
func (d *LintDriver) WriteFixedContent(ctx context.Context, path string, content []byte, backup bool) error {
	if backup {
		if _, err := fsutil.CreateBackup(ctx, path, fsutil.BackupConfig{Enabled: true, Mode: fsutil.BackupModeSidecar}); err != nil {
			return &diag.FixError{Reason: "failed to back up file before writing fixes", Err: err}
		}
	}
	if err := fsutil.WriteAtomic(ctx, path, content, 0); err != nil {
		return &diag.FixError{Reason: "failed to write fixed content back to disk", Err: err}
	}
	return nil
}

// lintOne runs the full per-file algorithm: cache lookup, parse,
// pre-scan, tokenize, block extraction and reconciliation, rule
// invocation, sort, fix coordination (optionally repeated per
// Config.ReParseAfterFix), and cache update.
func (d *LintDriver) lintOne(ctx context.Context, host *pluginhost.PluginHost, path string, source []byte) (*FileResult, []RuleFailure, error) {
	timings := newTimingsRecorder(d.cfg.Timings)
	runStart := time.Now()

	contentHash := cache.HashContent(source)

	if d.cacheEnabled {
		if entry, ok := d.cacheStore.Lookup(path, contentHash, d.configHash, d.ruleVersions); ok {
			return &FileResult{
				Path:        path,
				Diagnostics: entry.Diagnostics,
				Timings:     timings.finish(runStart),
				FromCache:   true,
			}, nil, nil
		}
	}

	outcome, err := d.runPass(ctx, host, path, source, timings, true)
	if err != nil {
		return nil, nil, err
	}

	diagnostics := outcome.diagnostics
	ruleFailures := outcome.ruleFailures
	fixedContent := outcome.fixedContent

	// ReParseAfterFix spans multiple fixcoordinator.Coordinate calls
	// rather than retrying the same one: applying pass N's winning edits
	// shifts byte offsets, so pass N+1 must re-lint the newly written
	// buffer from scratch before it can even collect valid diagnostics to
	// feed back into the coordinator, let alone resolve them. The loop
	// stops as soon as a pass applies nothing further; MaxFixPasses
	// (shared with fixcoordinator.MaxIterations) is the same "stuck, not
	// slow" bound the coordinator itself applies to one call.
	if d.cfg.ReParseAfterFix && fixedContent != nil {
		content := fixedContent
		converged := false
		for i := 1; i < MaxFixPasses; i++ {
			next, nextErr := d.runPass(ctx, host, path, content, timings, false)
			if nextErr != nil {
				return nil, nil, nextErr
			}
			ruleFailures = append(ruleFailures, next.ruleFailures...)
			if next.fixedContent == nil {
				converged = true
				break
			}
			content = next.fixedContent
		}
		if !converged {
			return nil, nil, &diag.FixError{Reason: fmt.Sprintf("re-parse-after-fix did not converge within %d passes", MaxFixPasses)}
		}
		fixedContent = content
	}

	d.updateCache(path, contentHash, diagnostics, outcome.blocks)

	return &FileResult{
		Path:         path,
		Diagnostics:  diagnostics,
		FixedContent: fixedContent,
		Timings:      timings.finish(runStart),
		FromCache:    false,
	}, ruleFailures, nil
}

// passOutcome is one parse+pre-scan+tokenize+reconcile+invoke+fix cycle's
// result, the unit runPass produces and lintOne's ReParseAfterFix loop
// repeats over successive fixed buffers.
type passOutcome struct {
	diagnostics  []diag.Diagnostic
	ruleFailures []RuleFailure
	fixedContent []byte
	blocks       []cache.CurrentBlock
}

// runPass runs one full parse-through-fix cycle over source. useCache
// gates block-level cache reconciliation: only the first pass over a
// file's original on-disk content may reuse the persistent cache's
// reused diagnostics, since every later pass lints a buffer that exists
// only in memory and has no cache entry of its own — every block in
// such a pass is treated as dirty.
func (d *LintDriver) runPass(ctx context.Context, host *pluginhost.PluginHost, path string, source []byte, timings *timingsRecorder, useCache bool) (*passOutcome, error) {
	parser := d.parserFor(path)

	parseStart := time.Now()
	builder := ast.NewBuilder(0)
	root, err := parser.Parse(ctx, builder, source)
	timings.phase(phaseParse, parseStart)
	if err != nil {
		return nil, &diag.ParseError{Path: path, Err: err}
	}

	preScanStart := time.Now()
	characteristics := preScan(root)
	timings.phase(phasePreScan, preScanStart)

	tokenizeStart := time.Now()
	tokens := d.tokenizer.Tokenize(source)
	sentences := d.splitter.Split(source, nil)
	timings.phase(phaseTokenize, tokenizeStart)

	currentBlocks := extractBlocks(root, source)

	reconcileStart := time.Now()
	var reused []diag.Diagnostic
	var dirtyBlocks []cache.CurrentBlock
	anyDirty := true
	if useCache {
		reused, dirtyBlocks, anyDirty = d.reconcile(path, currentBlocks)
	} else {
		dirtyBlocks = currentBlocks
	}
	timings.phase(phaseReconcile, reconcileStart)

	projection := ast.Project(root)

	var diagnostics []diag.Diagnostic
	diagnostics = append(diagnostics, reused...)

	var ruleFailures []RuleFailure
	for _, binding := range d.cfg.Rules {
		manifest, ok := host.Manifest(binding.Alias)
		if !ok {
			continue
		}
		if !manifest.MatchesAny(characteristics) {
			continue
		}

		// Global-isolation rules are re-run whenever any block is dirty
		// (they may reason across block boundaries, so a partial change
		// still invalidates their whole-file view); Block-isolation rules
		// are re-run only for the dirty blocks themselves, via the
		// narrowed batch below. Neither runs at all when nothing is
		// dirty — the file's diagnostics are already fully covered by
		// the block-reconciled `reused` set in that case.
		if !anyDirty {
			continue
		}

		ruleStart := time.Now()
		batch := projection.Children
		if manifest.Isolation == pluginhost.IsolationBlock && len(dirtyBlocks) > 0 {
			batch = filterProjectionToBlocks(projection, dirtyBlocks)
		}

		results, err := host.RunBatch(ctx, binding.Alias, batch, string(source), path, tokens, sentences)
		timings.rule(binding.Alias, ruleStart)
		if err != nil {
			var ruleErr *diag.RuleError
			if asRuleError(err, &ruleErr) {
				ruleFailures = append(ruleFailures, RuleFailure{Path: path, Err: ruleErr})
				continue
			}
			ruleFailures = append(ruleFailures, RuleFailure{
				Path: path,
				Err:  &diag.RuleError{RuleID: binding.Alias, Kind: diag.RuleTrap, Reason: "rule invocation failed", Err: err},
			})
			continue
		}
		diagnostics = append(diagnostics, results...)
	}

	sort.Slice(diagnostics, func(i, j int) bool {
		return diag.ByStartThenRuleID(diagnostics[i], diagnostics[j]) < 0
	})

	var fixedContent []byte
	if hasFixableDiagnostic(diagnostics) {
		fixStart := time.Now()
		fixResult, fixErr := fixcoordinator.Coordinate(source, diagnostics)
		timings.phase(phaseFixApply, fixStart)
		// A FixError is absorbed per the core's fix-error policy: fixes
		// are skipped for this file, but its diagnostics are still
		// reported below exactly as already computed.
		if fixErr == nil && len(fixResult.Applied) > 0 {
			fixedContent = fixResult.Content
		}
	}

	return &passOutcome{
		diagnostics:  diagnostics,
		ruleFailures: ruleFailures,
		fixedContent: fixedContent,
		blocks:       currentBlocks,
	}, nil
}

func hasFixableDiagnostic(diagnostics []diag.Diagnostic) bool {
	for _, d := range diagnostics {
		if d.HasFix() {
			return true
		}
	}
	return false
}

// asRuleError is a small helper so runPass can branch on whether a
// plugin host failure already arrived typed (the common case) without
// importing errors.As noise at every call site.
func asRuleError(err error, out **diag.RuleError) bool {
	re, ok := err.(*diag.RuleError)
	if ok {
		*out = re
	}
	return ok
}

func (d *LintDriver) parserFor(path string) parseradapter.Parser {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if p, ok := d.parsers.ByExtension(ext); ok {
		return p
	}
	if p, ok := d.parsers.ByName("plaintext"); ok {
		return p
	}
	// Never reachable when the registry was built by the core's own
	// wiring, which always registers a plaintext fallback; panicking
	// here would hide a construction bug rather than a per-file one.
	panic("driver: no parser registered, not even a plaintext fallback")
}

// extractBlocks reads root's direct children as the file's top-level
// blocks — the unit block-level cache reconciliation operates over —
// and hashes each one's own slice of the original source buffer.
func extractBlocks(root *ast.Node, source []byte) []cache.CurrentBlock {
	if root == nil {
		return nil
	}
	blocks := make([]cache.CurrentBlock, 0, len(root.Children))
	for _, child := range root.Children {
		start, end := child.Span.Start, child.Span.End
		if start < 0 {
			start = 0
		}
		if end > len(source) {
			end = len(source)
		}
		blocks = append(blocks, cache.CurrentBlock{
			Span:        child.Span,
			ContentHash: cache.HashContent(source[start:end]),
		})
	}
	return blocks
}

// reconcile attempts block-level cache reuse, gated on the cached
// entry's config and rule-version fingerprint matching the current run
// exactly — a block content hash collision under a different ruleset
// must never be treated as a hit.
func (d *LintDriver) reconcile(path string, current []cache.CurrentBlock) (reused []diag.Diagnostic, dirty []cache.CurrentBlock, anyDirty bool) {
	if !d.cacheEnabled {
		return nil, current, len(current) > 0
	}

	entry, ok := d.cacheStore.Get(path)
	if !ok || entry.ConfigHash != d.configHash || !ruleVersionsMatch(entry.RuleVersions, d.ruleVersions) {
		return nil, current, len(current) > 0
	}

	result := cache.Reconcile(entry, current)
	return result.Reused, result.Dirty, result.AnyDirty
}

func ruleVersionsMatch(a, b map[string]string) bool {
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

// filterProjectionToBlocks returns the subset of full's top-level
// children whose span overlaps one of dirty's current blocks, the batch
// a Block-isolation rule is invoked with when only some blocks changed.
func filterProjectionToBlocks(full *ast.Projection, dirty []cache.CurrentBlock) []*ast.Projection {
	if full == nil {
		return nil
	}
	var out []*ast.Projection
	for _, child := range full.Children {
		for _, b := range dirty {
			if child.Range[0] < b.Span.End && b.Span.Start < child.Range[1] {
				out = append(out, child)
				break
			}
		}
	}
	return out
}

// updateCache stages the new entry for path and commits it to the
// in-memory working set; Save persists the whole working set at Close.
func (d *LintDriver) updateCache(path string, contentHash cache.Fingerprint, diagnostics []diag.Diagnostic, blocks []cache.CurrentBlock) {
	if !d.cacheEnabled {
		return
	}

	entryBlocks := make([]cache.BlockEntry, 0, len(blocks))
	for _, b := range blocks {
		var blockDiags []diag.Diagnostic
		for _, dg := range diagnostics {
			if dg.Span.Start >= b.Span.Start && dg.Span.End <= b.Span.End {
				blockDiags = append(blockDiags, dg)
			}
		}
		entryBlocks = append(entryBlocks, cache.BlockEntry{
			Span:        b.Span,
			ContentHash: b.ContentHash,
			Diagnostics: blockDiags,
		})
	}

	d.cacheStore.Set(path, &cache.FileCacheEntry{
		ContentHash:  contentHash,
		ConfigHash:   d.configHash,
		RuleVersions: d.ruleVersions,
		Diagnostics:  diagnostics,
		Blocks:       entryBlocks,
		CreatedAt:    time.Now(),
	})
}
