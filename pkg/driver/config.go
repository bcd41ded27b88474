package driver

import (
	"fmt"

	"github.com/yaklabco/nllint/pkg/diag"
	"github.com/yaklabco/nllint/pkg/pluginhost"
)

// Config is the driver-supplied value the core consumes (spec's
// "External Interfaces"): an already-resolved rule binding list plus
// include/exclude patterns, cache settings, and timing instrumentation.
// The driver never parses a configuration file itself — resolving rule
// aliases to manifests and WASM blobs, and decoding any on-disk
// config format, is the caller's job.
type Config struct {
	// Rules is the ordered list of rule bindings to load into every
	// worker's PluginHost. Each binding's Alias must be unique; conflicts
	// across short rule names must already be disambiguated via `as`
	// aliases by the time Config reaches the driver.
	Rules []pluginhost.RuleBinding

	// Exclude holds glob patterns that LintPatterns passes to the
	// PatternExpander; the default one matches them against each
	// discovered file's path relative to its working directory and
	// against the file's base name. A custom PatternExpander may
	// interpret them differently or ignore them. Include is part of the
	// configuration fingerprint but is not applied to discovery: neither
	// LintPatterns nor DefaultExpander filters files by it.
	Include []string
	Exclude []string

	// Extensions lists the file extensions lint_patterns discovers by
	// default (without leading dots). Empty uses the default expander's
	// built-in list.
	Extensions []string

	// CacheEnabled turns on the persistent cross-run cache; CacheDir is
	// the directory holding its single archive file.
	CacheEnabled bool
	CacheDir     string

	// Timings turns on per-rule and per-phase wall-clock accumulation in
	// FileResult.
	Timings bool

	// Jobs sets the worker pool size. Zero or negative uses one worker
	// per hardware thread (runtime.GOMAXPROCS(0)).
	Jobs int

	// Limits bounds every loaded rule instance's memory, fuel, and
	// wall-clock time. Zero value uses pluginhost.DefaultLimits().
	Limits pluginhost.ResourceLimits

	// Fix turns on write-back: every file lint_patterns processes that
	// produces a FixedContent is rewritten on disk via WriteFixedContent.
	// LintText never writes back on its own, since an unsaved buffer has
	// no file of record for the driver to own; a caller that wants the
	// same behavior for lint_text calls WriteFixedContent itself.
	Fix bool

	// Backup, when Fix is also set, snapshots each file's original
	// content as a sidecar backup before the fixed content replaces it.
	Backup bool

	// ReParseAfterFix, when true, repeats parse, rule invocation, and fix
	// coordination on the newly fixed buffer until a full pass applies no
	// further fixes, bounded by MaxFixPasses. Applying one fix shifts
	// byte offsets enough to invalidate a sibling diagnostic's span, so
	// converging on the fullest possible fix requires re-linting the
	// fixed buffer from scratch rather than retrying the same diagnostic
	// set against new coordinates.
	ReParseAfterFix bool
}

// Validate checks the parts of Config the driver itself is responsible
// for catching before any file is processed (spec's "configuration
// failures are surfaced immediately"). Resolving rule aliases to actual
// WASM bytes, and validating the bytes are a loadable module, happens
// later as each PluginHost loads its bindings.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Rules))
	for _, r := range c.Rules {
		if r.Alias == "" {
			return &diag.ConfigError{Reason: "rule binding missing an alias"}
		}
		if _, ok := seen[r.Alias]; ok {
			return &diag.ConfigError{Reason: fmt.Sprintf(
				"duplicate rule alias %q; disambiguate conflicting short names with an `as` alias before handing configuration to the core", r.Alias)}
		}
		seen[r.Alias] = struct{}{}
	}
	return nil
}

func (c Config) limitsOrDefault() pluginhost.ResourceLimits {
	zero := pluginhost.ResourceLimits{}
	if c.Limits == zero {
		return pluginhost.DefaultLimits()
	}
	return c.Limits
}
