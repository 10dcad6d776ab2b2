package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"toolbelt/internal/fspath"
	"toolbelt/internal/toolerr"
)

// WriteTool overwrites or creates a whole file, materializing parent
// directories as needed. For localized changes edit/multiedit are the right
// tools; this one always replaces the full content.
type WriteTool struct{}

func NewWriteTool() *WriteTool {
	return &WriteTool{}
}

func (t *WriteTool) Name() string {
	return "write"
}

func (t *WriteTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Write full content to a file, overwriting any existing content and creating parent directories as needed.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "description": "The absolute path to the file to write (must be absolute, not relative)"},
				"content":   map[string]any{"type": "string", "description": "The content to write to the file"},
			},
			"required": []string{"file_path", "content"},
		},
	}
}

func (t *WriteTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "write args: %v", err)
	}
	if err := fspath.RequireAbs(in.FilePath); err != nil {
		return "", err
	}

	existed := fspath.Exists(in.FilePath)
	if existed {
		info, err := os.Stat(in.FilePath)
		if err != nil {
			return "", toolerr.FromOS(err, "stat '%s': %v", in.FilePath, err)
		}
		if info.IsDir() {
			return "", toolerr.New(toolerr.CodeWrongType, "'%s' exists but is not a file (might be a directory)", in.FilePath)
		}
	}

	if dir := filepath.Dir(in.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", toolerr.FromOS(err, "create parent directories for '%s': %v", in.FilePath, err)
		}
	}
	if err := os.WriteFile(in.FilePath, []byte(in.Content), 0o644); err != nil {
		return "", toolerr.FromOS(err, "Permission denied writing to file '%s'", in.FilePath)
	}

	if existed {
		return fmt.Sprintf("Successfully overwrote file '%s' (%d bytes)", in.FilePath, len(in.Content)), nil
	}
	return fmt.Sprintf("Successfully created file '%s' (%d bytes)", in.FilePath, len(in.Content)), nil
}
