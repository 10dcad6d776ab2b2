package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"toolbelt/internal/storage"
)

func TestRegistryRunCollapsesErrorsToStrings(t *testing.T) {
	reg := NewRegistry(NewEditTool())

	out := reg.Run(context.Background(), "edit", mustArgs(t, map[string]any{
		"file_path":  "relative.txt",
		"old_string": "a",
		"new_string": "b",
	}))
	if !strings.HasPrefix(out, "Error: ") {
		t.Fatalf("boundary should prefix errors: %q", out)
	}
	if !strings.Contains(out, "must be absolute") {
		t.Fatalf("unexpected message: %q", out)
	}
}

func TestRegistryRunUnknownTool(t *testing.T) {
	reg := NewRegistry()
	out := reg.Run(context.Background(), "nope", nil)
	if out != "Error: unknown tool: nope" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry(NewWriteTool(), NewEditTool(), NewMultiEditTool())
	names := reg.Names()
	want := []string{"edit", "multiedit", "write"}
	if len(names) != len(want) {
		t.Fatalf("names=%v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names=%v", names)
		}
	}
}

func TestRegistryAuditLogsInvocations(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	reg := NewRegistry(NewEditTool())
	reg.SetAudit(store)

	out := reg.Run(context.Background(), "edit", mustArgs(t, map[string]any{
		"file_path":  "relative.txt",
		"old_string": "a",
		"new_string": "b",
	}))
	if !strings.HasPrefix(out, "Error: ") {
		t.Fatalf("unexpected output: %q", out)
	}
	if err := store.LogOperation(storage.AuditEntry{Tool: "edit", OK: false, Summary: "probe"}); err != nil {
		t.Fatalf("audit store unusable after Run: %v", err)
	}
}
