package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGlobToolRecursiveMatch(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub", "deep"), 0o755); err != nil {
		t.Fatal(err)
	}
	old := filepath.Join(root, "old.txt")
	recent := filepath.Join(root, "sub", "deep", "recent.txt")
	for _, p := range []string{old, recent} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// 保证修改时间有序 / pin the modification order
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	out, err := NewGlobTool().Execute(context.Background(), mustArgs(t, map[string]any{
		"pattern": "**/*.txt",
		"path":    root,
	}))
	if err != nil {
		t.Fatalf("execute glob: %v", err)
	}
	if !strings.Contains(out, "Found 2 files matching pattern") {
		t.Fatalf("unexpected header: %q", out)
	}
	recentPos := strings.Index(out, "recent.txt")
	oldPos := strings.Index(out, "old.txt")
	if recentPos < 0 || oldPos < 0 || recentPos > oldPos {
		t.Fatalf("newest-first ordering broken: %q", out)
	}
}

func TestGlobToolNoMatches(t *testing.T) {
	root := t.TempDir()
	out, err := NewGlobTool().Execute(context.Background(), mustArgs(t, map[string]any{
		"pattern": "*.zig",
		"path":    root,
	}))
	if err != nil {
		t.Fatalf("execute glob: %v", err)
	}
	if !strings.Contains(out, "No files found matching pattern '*.zig'") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestGlobToolMissingDirectory(t *testing.T) {
	_, err := NewGlobTool().Execute(context.Background(), mustArgs(t, map[string]any{
		"pattern": "*.txt",
		"path":    "/nonexistent/definitely/absent",
	}))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobToolExcludesDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "dir.txt"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := NewGlobTool().Execute(context.Background(), mustArgs(t, map[string]any{
		"pattern": "*.txt",
		"path":    root,
	}))
	if err != nil {
		t.Fatalf("execute glob: %v", err)
	}
	if !strings.Contains(out, "Found 1 files matching pattern") {
		t.Fatalf("directories should not match: %q", out)
	}
}
