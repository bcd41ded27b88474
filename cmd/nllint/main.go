// Package main is nllint's thin CLI entry point. It turns --rule flags
// into loaded WASM bytes, wires them into a driver.LintDriver alongside
// the core's own Markdown and plain-text parsers, and renders the
// result with lipgloss-styled text. It does not parse a JSONC ruleset
// file or do its own glob discovery beyond what it hands the driver's
// injectable PatternExpander — that remains a collaborator's job.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yaklabco/nllint/internal/logging"
	"github.com/yaklabco/nllint/pkg/diag"
	"github.com/yaklabco/nllint/pkg/driver"
	"github.com/yaklabco/nllint/pkg/parseradapter"
	"github.com/yaklabco/nllint/pkg/parseradapter/markdown"
	"github.com/yaklabco/nllint/pkg/parseradapter/plaintext"
	"github.com/yaklabco/nllint/pkg/pluginhost"
)

// Set by GoReleaser via ldflags at build time.
//
//nolint:gochecknoglobals // version metadata must be package-level for ldflags injection
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errLintIssuesFound distinguishes "the lint ran fine and found
// error-severity diagnostics" (exit 1) from an operational failure
// (exit 2) without run logging the former as an error itself.
var errLintIssuesFound = errors.New("lint issues found")

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, errLintIssuesFound) {
			return 1
		}
		logging.Default().Error("nllint failed", "error", err)
		return 2
	}
	return 0
}

type options struct {
	rules           []string
	include         []string
	exclude         []string
	fix             bool
	backup          bool
	reparseAfterFix bool
	cache           bool
	cacheDir        string
	jobs            int
	timings         bool
	flavor          string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "nllint [patterns...]",
		Short:        "Lint Markdown and plain-text prose with sandboxed WASM rule modules",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd.Context(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.rules, "rule", nil, "rule module to load, as path or alias=path (repeatable)")
	flags.StringArrayVar(&opts.include, "include", nil, "glob recorded in the configuration fingerprint; discovery does not filter by it (repeatable)")
	flags.StringArrayVar(&opts.exclude, "exclude", nil, "glob a discovered path must not match (repeatable)")
	flags.BoolVar(&opts.fix, "fix", false, "write each file's fixed content back to disk")
	flags.BoolVar(&opts.backup, "backup", false, "snapshot a file's original content before --fix overwrites it")
	flags.BoolVar(&opts.reparseAfterFix, "reparse-after-fix", false, "re-lint a fixed buffer until fix application converges")
	flags.BoolVar(&opts.cache, "cache", false, "enable the persistent cross-run cache")
	flags.StringVar(&opts.cacheDir, "cache-dir", ".", "directory holding the cache archive")
	flags.IntVar(&opts.jobs, "jobs", 0, "worker pool size (0 = one per hardware thread)")
	flags.BoolVar(&opts.timings, "timings", false, "record per-phase and per-rule timings")
	flags.StringVar(&opts.flavor, "flavor", "gfm", "markdown flavor to parse: gfm or commonmark")

	return cmd
}

func runLint(ctx context.Context, opts *options, patterns []string) error {
	bindings, err := loadRuleBindings(opts.rules)
	if err != nil {
		return err
	}

	registry := parseradapter.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New(markdownFlavor(opts.flavor)))

	cfg := driver.Config{
		Rules:           bindings,
		Include:         opts.include,
		Exclude:         opts.exclude,
		CacheEnabled:    opts.cache,
		CacheDir:        opts.cacheDir,
		Timings:         opts.timings,
		Jobs:            opts.jobs,
		Fix:             opts.fix,
		Backup:          opts.backup,
		ReParseAfterFix: opts.reparseAfterFix,
	}

	d, err := driver.New(ctx, cfg, registry, nil)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	result, err := d.LintPatterns(ctx, patterns)
	if err != nil {
		return err
	}

	render(os.Stdout, result)

	for _, rf := range result.RuleFailures {
		logging.Default().Warn("rule failed", "path", rf.Path, "error", rf.Err)
	}
	for _, ff := range result.Failures {
		logging.Default().Error("file failed", "path", ff.Path, "error", ff.Err)
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d file(s) could not be linted", len(result.Failures))
	}
	if result.HasErrorSeverity() {
		return errLintIssuesFound
	}
	return nil
}

func markdownFlavor(s string) markdown.Flavor {
	if strings.EqualFold(s, "commonmark") {
		return markdown.FlavorCommonMark
	}
	return markdown.FlavorGFM
}

// loadRuleBindings resolves each --rule value into a loaded
// pluginhost.RuleBinding. A value of the form alias=path loads path
// under that alias; a bare path derives an alias from the file's base
// name with its extension stripped. Resolving a ruleset file's alias
// table and disambiguating short-name conflicts happens upstream of
// this — by the time a value reaches here it already names one module.
func loadRuleBindings(specs []string) ([]pluginhost.RuleBinding, error) {
	bindings := make([]pluginhost.RuleBinding, 0, len(specs))
	for _, spec := range specs {
		path := spec
		alias := strings.TrimSuffix(filepath.Base(spec), filepath.Ext(spec))
		if i := strings.IndexByte(spec, '='); i >= 0 {
			alias, path = spec[:i], spec[i+1:]
		}

		wasmBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, &diag.ConfigError{Reason: fmt.Sprintf("failed to read rule module %q", path), Err: err}
		}

		bindings = append(bindings, pluginhost.RuleBinding{Alias: alias, WasmBytes: wasmBytes})
	}
	return bindings, nil
}

func render(w *os.File, result *driver.Result) {
	styles := newStyleSet(w)
	for _, fr := range result.Files {
		if len(fr.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintln(w, styles.path.Render(fr.Path))
		for _, d := range fr.Diagnostics {
			fmt.Fprintf(w, "  %s %s %s\n",
				styles.forSeverity(d.Severity).Render(string(d.Severity)),
				styles.ruleID.Render(d.RuleID),
				d.Message)
		}
	}
}

type styleSet struct {
	path   lipgloss.Style
	ruleID lipgloss.Style
	errorS lipgloss.Style
	warnS  lipgloss.Style
	infoS  lipgloss.Style
	plain  lipgloss.Style
}

// newStyleSet disables color entirely when stdout isn't an attached
// terminal, the same isatty check the teacher's interactive-vs-piped
// output split was built around.
func newStyleSet(w *os.File) styleSet {
	if !isatty.IsTerminal(w.Fd()) {
		plain := lipgloss.NewStyle()
		return styleSet{path: plain, ruleID: plain, errorS: plain, warnS: plain, infoS: plain, plain: plain}
	}
	return styleSet{
		path:   lipgloss.NewStyle().Bold(true),
		ruleID: lipgloss.NewStyle().Faint(true),
		errorS: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warnS:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		infoS:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		plain:  lipgloss.NewStyle(),
	}
}

func (s styleSet) forSeverity(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SeverityError:
		return s.errorS
	case diag.SeverityWarning:
		return s.warnS
	case diag.SeverityInfo:
		return s.infoS
	default:
		return s.plain
	}
}
