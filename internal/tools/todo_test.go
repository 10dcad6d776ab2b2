package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"toolbelt/internal/storage"
)

func newTodoStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestTodoWriteThenRead(t *testing.T) {
	store := newTodoStore(t)
	writeTool := NewTodoWriteTool(store)
	readTool := NewTodoReadTool(store)

	args := mustArgs(t, map[string]any{
		"todos": []map[string]any{
			{"id": "1", "content": "design schema", "status": "completed", "priority": "high"},
			{"id": "2", "content": "implement parser", "status": "in_progress", "priority": "high"},
			{"id": "3", "content": "write docs", "status": "pending", "priority": "low"},
		},
	})
	out, err := writeTool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("execute todowrite: %v", err)
	}
	if !strings.Contains(out, "PROGRESS: 1/3 completed (33%)") {
		t.Fatalf("missing progress footer: %q", out)
	}
	if !strings.Contains(out, "CURRENT FOCUS: implement parser") {
		t.Fatalf("missing current focus: %q", out)
	}

	got, err := readTool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute todoread: %v", err)
	}
	for _, want := range []string{"design schema", "implement parser", "write docs"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
}

func TestTodoWriteRejectsEmptyList(t *testing.T) {
	writeTool := NewTodoWriteTool(newTodoStore(t))
	_, err := writeTool.Execute(context.Background(), mustArgs(t, map[string]any{
		"todos": []map[string]any{},
	}))
	if err == nil || !strings.Contains(err.Error(), "Todo list cannot be empty") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTodoWriteRejectsDuplicateIDs(t *testing.T) {
	writeTool := NewTodoWriteTool(newTodoStore(t))
	_, err := writeTool.Execute(context.Background(), mustArgs(t, map[string]any{
		"todos": []map[string]any{
			{"id": "1", "content": "a", "status": "pending", "priority": "high"},
			{"id": "1", "content": "b", "status": "pending", "priority": "low"},
		},
	}))
	if err == nil || !strings.Contains(err.Error(), "unique IDs") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTodoWriteMultipleInProgressWarnsWithoutPersisting(t *testing.T) {
	store := newTodoStore(t)
	writeTool := NewTodoWriteTool(store)

	out, err := writeTool.Execute(context.Background(), mustArgs(t, map[string]any{
		"todos": []map[string]any{
			{"id": "1", "content": "task one", "status": "in_progress", "priority": "high"},
			{"id": "2", "content": "task two", "status": "in_progress", "priority": "low"},
		},
	}))
	if err != nil {
		t.Fatalf("warning path should not error: %v", err)
	}
	if !strings.HasPrefix(out, "Warning: Multiple tasks marked as in_progress") {
		t.Fatalf("unexpected output: %q", out)
	}

	items, err := store.ListTodos()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("warned list should not persist, got %d items", len(items))
	}
}

func TestTodoWriteAllCompleted(t *testing.T) {
	writeTool := NewTodoWriteTool(newTodoStore(t))
	out, err := writeTool.Execute(context.Background(), mustArgs(t, map[string]any{
		"todos": []map[string]any{
			{"id": "1", "content": "done thing", "status": "completed", "priority": "medium"},
		},
	}))
	if err != nil {
		t.Fatalf("execute todowrite: %v", err)
	}
	if !strings.Contains(out, "PROGRESS: 1/1 completed (100%)") {
		t.Fatalf("missing progress footer: %q", out)
	}
	if !strings.Contains(out, "All tasks completed!") {
		t.Fatalf("missing completion footer: %q", out)
	}
}

func TestTodoReadEmptyList(t *testing.T) {
	readTool := NewTodoReadTool(newTodoStore(t))
	out, err := readTool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute todoread: %v", err)
	}
	if out != "No todos found. The todo list is empty." {
		t.Fatalf("unexpected output: %q", out)
	}
}
