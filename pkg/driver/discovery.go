package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternExpander resolves caller-supplied patterns (literal file paths,
// directories, or globs) into a deterministically sorted list of absolute
// file paths. lint_patterns calls through this interface rather than
// hard-coding discovery: pattern expansion is a Non-goal of the core's
// own responsibility, but the driver still needs a default implementation
// to be testable end-to-end.
type PatternExpander interface {
	Expand(ctx context.Context, patterns, exclude []string) ([]string, error)
}

// DefaultExpander is the default PatternExpander. Each pattern must name
// an existing file or directory; glob patterns are not expanded (a
// pattern that is not an existing path is an error). Directories are
// walked recursively, skipping hidden entries, and files are filtered by
// extension and by doublestar exclude pattern as it goes.
type DefaultExpander struct {
	// WorkDir anchors relative patterns and relative-path exclude
	// matching. Empty means the process's current working directory.
	WorkDir string
	// Extensions lists the file extensions (without a leading dot,
	// case-insensitive) this expander will return. Empty defaults to the
	// core's built-in parser extensions (Markdown + plain text).
	Extensions []string
}

// NewDefaultExpander creates an expander rooted at workDir.
func NewDefaultExpander(workDir string, extensions []string) *DefaultExpander {
	if len(extensions) == 0 {
		extensions = []string{"md", "markdown", "mdown", "mkd", "txt", "text"}
	}
	return &DefaultExpander{WorkDir: workDir, Extensions: extensions}
}

func (e *DefaultExpander) resolveWorkDir() (string, error) {
	if e.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	return filepath.Abs(e.WorkDir)
}

// Expand implements PatternExpander.
func (e *DefaultExpander) Expand(ctx context.Context, patterns, exclude []string) ([]string, error) {
	workDir, err := e.resolveWorkDir()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		absPath := pattern
		if !filepath.IsAbs(pattern) {
			absPath = filepath.Join(workDir, pattern)
		}
		absPath = filepath.Clean(absPath)

		info, statErr := os.Stat(absPath)
		if statErr != nil {
			return nil, fmt.Errorf("stat %s: %w", pattern, statErr)
		}

		var discovered []string
		if info.IsDir() {
			discovered, err = e.walkDir(ctx, absPath, workDir, exclude)
			if err != nil {
				return nil, err
			}
		} else if e.matches(absPath, workDir, exclude) {
			discovered = []string{absPath}
		}

		for _, f := range discovered {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func (e *DefaultExpander) walkDir(ctx context.Context, root, workDir string, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			if e.matchesExclude(path, workDir, exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		if e.matches(path, workDir, exclude) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}
	return files, nil
}

func (e *DefaultExpander) matches(path, workDir string, exclude []string) bool {
	if !e.hasMatchingExtension(path) {
		return false
	}
	return !e.matchesExclude(path, workDir, exclude)
}

func (e *DefaultExpander) matchesExclude(path, workDir string, exclude []string) bool {
	relPath, err := filepath.Rel(workDir, path)
	if err != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range exclude {
		if matched, matchErr := doublestar.Match(pattern, relPath); matchErr == nil && matched {
			return true
		}
		if matched, matchErr := doublestar.Match(pattern, filepath.Base(path)); matchErr == nil && matched {
			return true
		}
	}
	return false
}

func (e *DefaultExpander) hasMatchingExtension(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, want := range e.Extensions {
		if strings.ToLower(want) == ext {
			return true
		}
	}
	return false
}
