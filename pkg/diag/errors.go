package diag

import (
	"errors"
	"fmt"
	"os"
)

var (
	fsErrNotExist   = os.ErrNotExist
	fsErrPermission = os.ErrPermission
)

// ConfigError reports malformed configuration, an unknown rule alias, or
// an unresolved rule binding. These are surfaced immediately before any
// file is processed — propagation policy never contains a ConfigError at
// the file level.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParseError reports a per-file parse failure, surfaced in a
// FileFailure; rule execution is skipped entirely for that file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RuleErrorKind distinguishes the ways a single rule invocation can fail
// without taking down the rest of the file's lint.
type RuleErrorKind string

const (
	RuleLoadFailure       RuleErrorKind = "load_failure"
	RuleManifestInvalid   RuleErrorKind = "manifest_invalid"
	RuleConfigRejected    RuleErrorKind = "config_rejected"
	RuleTrap              RuleErrorKind = "trap"
	RuleTimeout           RuleErrorKind = "timeout"
	RuleMemoryLimit       RuleErrorKind = "memory_limit"
	RuleProtocolViolation RuleErrorKind = "protocol_violation"
)

// RuleError is a per-(file, rule) failure. It never aborts the file: the
// host records it as a diagnostic-less annotation and continues with
// every other configured rule.
type RuleError struct {
	RuleID string
	Kind   RuleErrorKind
	Reason string
	Err    error
}

func (e *RuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rule %s: %s: %s: %v", e.RuleID, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("rule %s: %s: %s", e.RuleID, e.Kind, e.Reason)
}

func (e *RuleError) Unwrap() error { return e.Err }

// CacheError reports corruption or an I/O failure in the cache. Cache
// errors are absorbed: the caller disables the cache for the remainder
// of the run and continues linting without it.
type CacheError struct {
	Reason string
	Err    error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cache error: %s", e.Reason)
}

func (e *CacheError) Unwrap() error { return e.Err }

// FixError reports an unresolvable conflict or an exceeded iteration
// limit in the fix coordinator. Non-fatal: fixes for that file are
// skipped, but its diagnostics are still reported.
type FixError struct {
	Reason string
	Err    error
}

func (e *FixError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fix error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fix error: %s", e.Reason)
}

func (e *FixError) Unwrap() error { return e.Err }

// Sentinel errors for the driver's categorizeError-style helper to map
// low-level os/io failures onto the typed taxonomy above.
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrParseFailure     = errors.New("parse failure")
	ErrWriteFailure     = errors.New("write failure")
)

// CategorizeError maps a low-level os/io error onto the sentinels above
// by inspecting the underlying syscall-level errors it wraps. Mirrors the
// teacher's categorizeError helper: one place that turns "whatever the
// filesystem said" into the taxonomy the rest of the core reasons about.
func CategorizeError(err error) error {
	switch {
	case errors.Is(err, fsErrNotExist):
		return fmt.Errorf("%w: %v", ErrFileNotFound, err)
	case errors.Is(err, fsErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return err
	}
}
