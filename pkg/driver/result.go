package driver

import (
	"github.com/yaklabco/nllint/pkg/diag"
)

// FileResult is the outcome of successfully linting one file.
type FileResult struct {
	Path        string
	Diagnostics []diag.Diagnostic
	// FixedContent is set only when the caller requested fix application
	// and at least one fix was applied; nil otherwise.
	FixedContent []byte
	Timings      *FileTimings
	FromCache    bool
}

// FileFailure is a file the driver could not produce diagnostics for at
// all (the file could not be read, or it failed to parse; a rule error
// never reaches here, since rule
// failures are contained per-file and recorded as RuleErrors alongside
// the file's otherwise-successful diagnostics rather than failing it).
type FileFailure struct {
	Path string
	Err  error
}

// RuleFailure is a non-fatal per-(file, rule) error recorded alongside an
// otherwise successful FileResult (spec's "diagnostic-less annotation").
type RuleFailure struct {
	Path string
	Err  *diag.RuleError
}

// Result aggregates one lint_patterns call: successes and failures are
// kept separate per spec's public contract, and RuleFailures travel
// alongside successful file results rather than being folded into
// Failures.
type Result struct {
	Files        []FileResult
	Failures     []FileFailure
	RuleFailures []RuleFailure
}

// HasErrorSeverity reports whether any diagnostic across every file
// carries error severity — the signal a CLI wrapper maps to a non-zero
// exit code (spec §6's exit conventions are external to the core; this
// is the structured value that mapping consumes).
func (r *Result) HasErrorSeverity() bool {
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			if d.Severity == diag.SeverityError {
				return true
			}
		}
	}
	return false
}
