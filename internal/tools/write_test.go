package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteToolCreatesFileWithParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "a.txt")
	tool := NewWriteTool()

	args, _ := json.Marshal(map[string]any{
		"file_path": path,
		"content":   "hello\n",
	})
	out, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("execute write: %v", err)
	}
	if !strings.Contains(out, "Successfully created file") {
		t.Fatalf("unexpected message: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Fatalf("content=%q", data)
	}
}

func TestWriteToolOverwrites(t *testing.T) {
	path := writeTemp(t, "a.txt", "old\n")
	tool := NewWriteTool()

	args, _ := json.Marshal(map[string]any{
		"file_path": path,
		"content":   "new\n",
	})
	out, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("execute write: %v", err)
	}
	if !strings.Contains(out, "Successfully overwrote file") {
		t.Fatalf("unexpected message: %q", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new\n" {
		t.Fatalf("content=%q", data)
	}
}

func TestWriteToolRejectsDirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	tool := NewWriteTool()

	args, _ := json.Marshal(map[string]any{
		"file_path": dir,
		"content":   "x",
	})
	_, err := tool.Execute(context.Background(), args)
	if err == nil || !strings.Contains(err.Error(), "might be a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}
