package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "toolbelt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestReplaceTodosIsFullSnapshot(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.ReplaceTodos([]TodoItem{
		{ID: "1", Content: "first", Status: "pending", Priority: "high"},
		{ID: "2", Content: "second", Status: "in_progress", Priority: "low"},
	}))

	items, err := store.ListTodos()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Content)
	assert.Equal(t, "in_progress", items[1].Status)

	// 第二次提交完全取代第一次 / the second commit fully supersedes the first
	require.NoError(t, store.ReplaceTodos([]TodoItem{
		{ID: "9", Content: "only survivor", Status: "completed", Priority: "medium"},
	}))
	items, err = store.ListTodos()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "9", items[0].ID)
}

func TestReplaceTodosNormalizesFields(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.ReplaceTodos([]TodoItem{
		{ID: "", Content: "  padded  ", Status: "WEIRD", Priority: ""},
		{ID: "x", Content: "", Status: "pending", Priority: "low"},
	}))

	items, err := store.ListTodos()
	require.NoError(t, err)
	require.Len(t, items, 1, "empty-content items are dropped")
	assert.Equal(t, "todo_1", items[0].ID)
	assert.Equal(t, "padded", items[0].Content)
	assert.Equal(t, "pending", items[0].Status)
	assert.Equal(t, "medium", items[0].Priority)
}

func TestReplaceTodosPreservesOrder(t *testing.T) {
	store := newTestStore(t)

	var items []TodoItem
	for _, id := range []string{"c", "a", "b"} {
		items = append(items, TodoItem{ID: id, Content: "task " + id, Status: "pending", Priority: "medium"})
	}
	require.NoError(t, store.ReplaceTodos(items))

	got, err := store.ListTodos()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "b", got[2].ID)
}

func TestLogOperation(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.LogOperation(AuditEntry{Tool: "edit", OK: true, Summary: "replaced 1 occurrence"}))
	require.NoError(t, store.LogOperation(AuditEntry{Tool: "bash", OK: false, Summary: "Error: timed out"}))
}

func TestNewSQLiteStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}
