package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolbelt/internal/fspath"
	"toolbelt/internal/toolerr"
)

// editOperation 是一次 find-and-replace；多个操作按序作用于同一文件。
// editOperation is one find-and-replace; a sequence of them applies in
// order to a single file.
type editOperation struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// MultiEditTool applies an ordered edit sequence as a single all-or-nothing
// transaction: a staging pass validates every step against an in-memory copy,
// then the materialized result is written once. The file is never touched on
// any validation failure.
type MultiEditTool struct{}

func NewMultiEditTool() *MultiEditTool {
	return &MultiEditTool{}
}

func (t *MultiEditTool) Name() string {
	return "multiedit"
}

func (t *MultiEditTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Apply multiple exact string replacements to one file atomically. Each edit operates on the result of the previous edit; if any edit fails, none are applied. To create a new file, the first edit must have an empty old_string.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "description": "The absolute path to the file to modify"},
				"edits": map[string]any{
					"type":        "array",
					"description": "Array of edit operations to perform sequentially on the file",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"old_string":  map[string]any{"type": "string"},
							"new_string":  map[string]any{"type": "string"},
							"replace_all": map[string]any{"type": "boolean"},
						},
						"required": []string{"old_string", "new_string"},
					},
				},
			},
			"required": []string{"file_path", "edits"},
		},
	}
}

func (t *MultiEditTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		FilePath string          `json:"file_path"`
		Edits    []editOperation `json:"edits"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "multiedit args: %v", err)
	}
	if err := fspath.RequireAbs(in.FilePath); err != nil {
		return "", err
	}
	if len(in.Edits) == 0 {
		return "", toolerr.New(toolerr.CodeInvalidArgument, "At least one edit operation must be provided")
	}

	exists := fspath.Exists(in.FilePath)
	if exists {
		if err := fspath.RequireFile(in.FilePath); err != nil {
			return "", err
		}
	} else if in.Edits[0].OldString != "" {
		return "", toolerr.New(toolerr.CodeNotFound,
			"File '%s' does not exist. To create a new file, the first edit must have an empty old_string.", in.FilePath)
	}

	content := ""
	if exists {
		var err error
		content, err = readTextFile(in.FilePath)
		if err != nil {
			return "", err
		}
	}

	// 阶段一：对暂存副本做完整校验并物化最终内容；任何一步失败都不触盘。
	// Phase 1: validate the full sequence against a scratch copy and
	// materialize the final buffer; a failing step leaves the disk untouched.
	final, steps, err := stageEdits(content, in.Edits, !exists)
	if err != nil {
		return "", err
	}

	// 阶段二：唯一一次写盘 / Phase 2: the single commit write.
	if dir := filepath.Dir(in.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", toolerr.FromOS(err, "create parent directories for '%s': %v", in.FilePath, err)
		}
	}
	if err := os.WriteFile(in.FilePath, []byte(final), 0o644); err != nil {
		return "", toolerr.FromOS(err, "Permission denied modifying file '%s'", in.FilePath)
	}

	lines := make([]string, 0, len(steps)+1)
	lines = append(lines, fmt.Sprintf("Successfully applied %d edits to '%s':", len(in.Edits), in.FilePath))
	lines = append(lines, steps...)
	return strings.Join(lines, "\n"), nil
}

// stageEdits is the pure staging pass: it replays the sequence against an
// in-memory buffer and returns either the fully materialized result plus a
// per-step summary, or the first failing step's error. Ordering is
// significant: each step consumes the previous step's output, so a later
// edit may target text an earlier edit introduced.
func stageEdits(content string, edits []editOperation, newFile bool) (string, []string, error) {
	steps := make([]string, 0, len(edits))
	current := content

	for i, edit := range edits {
		if newFile && i == 0 && edit.OldString == "" {
			// 新建文件模式：第 0 项的 new_string 即初始内容，唯一允许
			// old==new 与缺失的情形。/ New-file mode: step 0's new_string is
			// the initial content, the only case where old==new and absence
			// are both permitted.
			current = edit.NewString
			steps = append(steps, fmt.Sprintf("Edit %d: Created new file with content", i+1))
			continue
		}

		updated, replaced, err := replaceExact(current, edit.OldString, edit.NewString, edit.ReplaceAll)
		if err != nil {
			return "", nil, toolerr.New(toolerr.CodeOf(err), "Edit %d failed: %v", i+1, err)
		}
		current = updated
		if replaced == 1 {
			steps = append(steps, fmt.Sprintf("Edit %d: Replaced 1 occurrence", i+1))
		} else {
			steps = append(steps, fmt.Sprintf("Edit %d: Replaced %d occurrences", i+1, replaced))
		}
	}

	return current, steps, nil
}
