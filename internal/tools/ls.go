package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"toolbelt/internal/fspath"
	"toolbelt/internal/toolerr"
)

// LSTool lists a single directory level, directories first. Ignore patterns
// are matched against both the bare entry name and its full path.
type LSTool struct{}

func NewLSTool() *LSTool {
	return &LSTool{}
}

func (t *LSTool) Name() string {
	return "ls"
}

func (t *LSTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "List files and directories in a given path. The path must be absolute. Optionally provide glob patterns to ignore.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "The absolute path to the directory to list (must be absolute, not relative)"},
				"ignore": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "List of glob patterns to ignore",
				},
			},
			"required": []string{"path"},
		},
	}
}

func (t *LSTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Path   string   `json:"path"`
		Ignore []string `json:"ignore"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "ls args: %v", err)
	}
	if err := fspath.RequireAbs(in.Path); err != nil {
		return "", err
	}
	if err := fspath.RequireDir(in.Path); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(in.Path)
	if err != nil {
		return "", toolerr.FromOS(err, "Permission denied accessing '%s'", in.Path)
	}

	var dirs, files []string
	for _, entry := range entries {
		name := entry.Name()
		if ignored(name, filepath.Join(in.Path, name), in.Ignore) {
			continue
		}
		if entry.IsDir() {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	lines := []string{fmt.Sprintf("Contents of '%s':\n", in.Path)}
	if len(dirs) == 0 && len(files) == 0 {
		lines = append(lines, "(empty directory)")
		return strings.Join(lines, "\n"), nil
	}
	for _, d := range dirs {
		lines = append(lines, "  "+d+"/")
	}
	for _, f := range files {
		lines = append(lines, "  "+f)
	}
	lines = append(lines, fmt.Sprintf("\nTotal: %d directories, %d files", len(dirs), len(files)))
	return strings.Join(lines, "\n"), nil
}

func ignored(name, fullPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, fullPath); err == nil && ok {
			return true
		}
	}
	return false
}
