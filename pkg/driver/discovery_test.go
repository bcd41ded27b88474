package driver

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultExpanderFindsFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "# A")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "c.png"), "binary")

	expander := NewDefaultExpander(dir, nil)
	files, err := expander.Expand(context.Background(), []string{"."}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	sort.Strings(names)

	if len(names) != 2 || names[0] != "a.md" || names[1] != "b.txt" {
		t.Fatalf("got %v", names)
	}
}

func TestDefaultExpanderHonorsExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.md"), "keep")
	writeFile(t, filepath.Join(dir, "vendor", "skip.md"), "skip")

	expander := NewDefaultExpander(dir, nil)
	files, err := expander.Expand(context.Background(), []string{"."}, []string{"vendor/**"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "keep.md" {
		t.Fatalf("got %v", files)
	}
}

func TestDefaultExpanderSkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "visible.md"), "v")
	writeFile(t, filepath.Join(dir, ".git", "hidden.md"), "h")

	expander := NewDefaultExpander(dir, nil)
	files, err := expander.Expand(context.Background(), []string{"."}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "visible.md" {
		t.Fatalf("got %v", files)
	}
}

func TestDefaultExpanderAcceptsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.md")
	writeFile(t, path, "content")

	expander := NewDefaultExpander(dir, nil)
	files, err := expander.Expand(context.Background(), []string{"only.md"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %v", files)
	}
}

func TestDefaultExpanderDeduplicatesOverlappingPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "only.md"), "content")

	expander := NewDefaultExpander(dir, nil)
	files, err := expander.Expand(context.Background(), []string{".", "only.md"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected deduplication, got %v", files)
	}
}
