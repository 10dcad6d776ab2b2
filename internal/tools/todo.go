package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"toolbelt/internal/storage"
	"toolbelt/internal/toolerr"
)

// TodoWriteTool replaces the persisted task list wholesale after validation;
// there is no per-item patching. TodoReadTool renders the persisted list.
type TodoWriteTool struct {
	store storage.Store
}

type TodoReadTool struct {
	store storage.Store
}

func NewTodoWriteTool(store storage.Store) *TodoWriteTool {
	return &TodoWriteTool{store: store}
}

func NewTodoReadTool(store storage.Store) *TodoReadTool {
	return &TodoReadTool{store: store}
}

func (t *TodoWriteTool) Name() string {
	return "todowrite"
}

func (t *TodoReadTool) Name() string {
	return "todoread"
}

func (t *TodoWriteTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Replace the persisted task list for the current session. The list must be non-empty, every item needs a unique id, and at most one item may be in_progress.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"todos": map[string]any{
					"type":        "array",
					"description": "The updated todo list",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":       map[string]any{"type": "string", "description": "Unique identifier for the todo item"},
							"content":  map[string]any{"type": "string", "description": "The todo task description"},
							"status":   map[string]any{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
							"priority": map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
						},
						"required": []string{"id", "content", "status", "priority"},
					},
				},
			},
			"required": []string{"todos"},
		},
	}
}

func (t *TodoReadTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Read the persisted task list for the current session.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func (t *TodoWriteTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	if t.store == nil {
		return "", toolerr.New(toolerr.CodeUnhandled, "todo store unavailable")
	}
	var in struct {
		Todos []storage.TodoItem `json:"todos"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "todowrite args: %v", err)
	}
	if len(in.Todos) == 0 {
		return "", toolerr.New(toolerr.CodeInvalidArgument, "Todo list cannot be empty")
	}

	seen := make(map[string]bool, len(in.Todos))
	for i := range in.Todos {
		in.Todos[i].Status = strings.ToLower(strings.TrimSpace(in.Todos[i].Status))
		in.Todos[i].Priority = strings.ToLower(strings.TrimSpace(in.Todos[i].Priority))
		if strings.TrimSpace(in.Todos[i].Content) == "" {
			return "", toolerr.New(toolerr.CodeInvalidArgument, "Todo item content cannot be empty")
		}
		if seen[in.Todos[i].ID] {
			return "", toolerr.New(toolerr.CodeInvalidArgument, "All todo items must have unique IDs")
		}
		seen[in.Todos[i].ID] = true
	}

	// 多个 in_progress 返回可恢复的 Warning 字符串，且不落库。
	// Multiple in_progress items produce a recoverable Warning string and
	// leave the persisted list untouched.
	var inProgress []string
	for _, todo := range in.Todos {
		if todo.Status == "in_progress" {
			inProgress = append(inProgress, todo.Content)
		}
	}
	if len(inProgress) > 1 {
		lines := []string{"Warning: Multiple tasks marked as in_progress. Recommended to have only one task in_progress at a time:"}
		for _, item := range inProgress {
			lines = append(lines, "- "+item)
		}
		return strings.Join(lines, "\n"), nil
	}

	if err := t.store.ReplaceTodos(in.Todos); err != nil {
		return "", toolerr.Wrap(toolerr.CodeUnhandled, err, "persist todo list: %v", err)
	}
	return renderTodoList(in.Todos), nil
}

func (t *TodoReadTool) Execute(_ context.Context, _ json.RawMessage) (string, error) {
	if t.store == nil {
		return "", toolerr.New(toolerr.CodeUnhandled, "todo store unavailable")
	}
	items, err := t.store.ListTodos()
	if err != nil {
		return "", toolerr.Wrap(toolerr.CodeUnhandled, err, "load todo list: %v", err)
	}
	if len(items) == 0 {
		return "No todos found. The todo list is empty.", nil
	}
	return renderTodoList(items), nil
}

var priorityRank = map[string]int{"high": 1, "medium": 2, "low": 3}

// renderTodoList groups items by status (in_progress first), sorts each group
// by priority, and appends the progress footer.
func renderTodoList(todos []storage.TodoItem) string {
	lines := []string{"=== TODO LIST ===\n"}

	statusOrder := []string{"in_progress", "pending", "completed"}
	statusMark := map[string]string{"in_progress": "[~]", "pending": "[ ]", "completed": "[x]"}
	priorityMark := map[string]string{"high": "(high)", "medium": "(med)", "low": "(low)"}

	counts := map[string]int{}
	for _, todo := range todos {
		counts[todo.Status]++
	}

	for _, status := range statusOrder {
		group := make([]storage.TodoItem, 0, len(todos))
		for _, todo := range todos {
			if todo.Status == status {
				group = append(group, todo)
			}
		}
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			ri, ok := priorityRank[group[i].Priority]
			if !ok {
				ri = 4
			}
			rj, ok := priorityRank[group[j].Priority]
			if !ok {
				rj = 4
			}
			return ri < rj
		})

		lines = append(lines, fmt.Sprintf("%s (%d):", strings.ToUpper(strings.ReplaceAll(status, "_", " ")), len(group)))
		for _, todo := range group {
			mark := statusMark[todo.Status]
			pri, ok := priorityMark[todo.Priority]
			if !ok {
				pri = "(?)"
			}
			lines = append(lines, fmt.Sprintf("  %s [%s] %s %s", mark, todo.ID, pri, todo.Content))
		}
		lines = append(lines, "")
	}

	total := len(todos)
	completed := counts["completed"]
	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	lines = append(lines, fmt.Sprintf("PROGRESS: %d/%d completed (%.0f%%)", completed, total, percent))

	switch {
	case counts["in_progress"] > 0:
		for _, todo := range todos {
			if todo.Status == "in_progress" {
				lines = append(lines, "CURRENT FOCUS: "+todo.Content)
				break
			}
		}
	case counts["pending"] > 0:
		pending := make([]storage.TodoItem, 0, counts["pending"])
		for _, todo := range todos {
			if todo.Status == "pending" {
				pending = append(pending, todo)
			}
		}
		sort.SliceStable(pending, func(i, j int) bool {
			ri, ok := priorityRank[pending[i].Priority]
			if !ok {
				ri = 4
			}
			rj, ok := priorityRank[pending[j].Priority]
			if !ok {
				rj = 4
			}
			return ri < rj
		})
		lines = append(lines, "NEXT UP: "+pending[0].Content)
	default:
		lines = append(lines, "All tasks completed!")
	}

	return strings.Join(lines, "\n")
}
