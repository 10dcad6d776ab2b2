package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"toolbelt/internal/fspath"
	"toolbelt/internal/toolerr"
)

// GlobTool matches files (never directories) under a base directory with
// doublestar patterns, newest modification first.
type GlobTool struct{}

func NewGlobTool() *GlobTool {
	return &GlobTool{}
}

func (t *GlobTool) Name() string {
	return "glob"
}

func (t *GlobTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Fast file pattern matching with glob patterns like \"**/*.js\" or \"src/**/*.ts\". Returns matching file paths sorted by modification time.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "description": "The glob pattern to match files against"},
				"path":    map[string]any{"type": "string", "description": "The directory to search in. Defaults to the current working directory."},
			},
			"required": []string{"pattern"},
		},
	}
}

func (t *GlobTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "glob args: %v", err)
	}

	searchDir := in.Path
	usedCwd := false
	if searchDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", toolerr.FromOS(err, "determine working directory: %v", err)
		}
		searchDir = cwd
		usedCwd = true
	}
	if !fspath.Exists(searchDir) {
		return "", toolerr.New(toolerr.CodeNotFound, "Directory '%s' does not exist", searchDir)
	}
	if err := fspath.RequireDir(searchDir); err != nil {
		return "", err
	}

	matches, err := doublestar.Glob(os.DirFS(searchDir), in.Pattern)
	if err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "Error executing glob pattern '%s': %v", in.Pattern, err)
	}

	type hit struct {
		path string
		mod  time.Time
	}
	var hits []hit
	for _, rel := range matches {
		full := filepath.Join(searchDir, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		p := full
		if usedCwd {
			p = filepath.FromSlash(rel)
		}
		hits = append(hits, hit{path: p, mod: info.ModTime()})
	}

	// 最近修改的排前面 / most recently modified first.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].mod.After(hits[j].mod)
	})

	if len(hits) == 0 {
		return fmt.Sprintf("No files found matching pattern '%s' in directory '%s'", in.Pattern, searchDir), nil
	}

	lines := make([]string, 0, len(hits)+1)
	lines = append(lines, fmt.Sprintf("Found %d files matching pattern '%s':\n", len(hits), in.Pattern))
	for _, h := range hits {
		lines = append(lines, h.path)
	}
	return strings.Join(lines, "\n"), nil
}
