// Package diag defines the diagnostic and error types shared by every
// rule-facing component: the plugin host, the cache, the fix
// coordinator, and the driver.
package diag

import "github.com/yaklabco/nllint/pkg/ast"

// Severity classifies how serious a diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Fix is a single proposed text replacement a diagnostic carries.
// Applying Fix means replacing the bytes in Span with Replacement.
type Fix struct {
	Span        ast.Span
	Replacement string
}

// Diagnostic is one finding reported by a rule. RuleID is always assigned
// by the host from the alias the rule was loaded under — a rule's own
// self-reported identifier in its response is ignored, per the host
// contract.
type Diagnostic struct {
	RuleID   string
	Message  string
	Span     ast.Span
	Severity Severity
	Fix      *Fix
}

// HasFix reports whether d carries an applicable fix.
func (d Diagnostic) HasFix() bool { return d.Fix != nil }

// ByStartThenRuleID orders diagnostics by (span.start, rule_id), the
// ordering spec.md's driver contract guarantees callers.
func ByStartThenRuleID(a, b Diagnostic) int {
	if a.Span.Start != b.Span.Start {
		if a.Span.Start < b.Span.Start {
			return -1
		}
		return 1
	}
	if a.RuleID == b.RuleID {
		return 0
	}
	if a.RuleID < b.RuleID {
		return -1
	}
	return 1
}
