package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"toolbelt/internal/fspath"
	"toolbelt/internal/toolerr"
)

// EditTool 提供基于 old_string/new_string 的精确局部替换，并强制唯一性。
// EditTool performs exact string replacement with uniqueness enforcement,
// instead of asking the caller to handcraft diffs.
type EditTool struct{}

func NewEditTool() *EditTool {
	return &EditTool{}
}

func (t *EditTool) Name() string {
	return "edit"
}

func (t *EditTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Perform an exact string replacement in a file. Fails if old_string is not unique unless replace_all is set.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path":   map[string]any{"type": "string", "description": "The absolute path to the file to modify"},
				"old_string":  map[string]any{"type": "string", "description": "The text to replace"},
				"new_string":  map[string]any{"type": "string", "description": "The text to replace it with (must be different from old_string)"},
				"replace_all": map[string]any{"type": "boolean", "description": "Replace all occurrences of old_string (default false)"},
			},
			"required": []string{"file_path", "old_string", "new_string"},
		},
	}
}

func (t *EditTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		FilePath   string `json:"file_path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "edit args: %v", err)
	}
	if in.OldString == in.NewString {
		return "", toolerr.New(toolerr.CodeNoOpEdit, "old_string and new_string must be different")
	}
	if err := fspath.RequireFile(in.FilePath); err != nil {
		return "", err
	}

	original, err := readTextFile(in.FilePath)
	if err != nil {
		return "", err
	}

	updated, replaced, err := replaceExact(original, in.OldString, in.NewString, in.ReplaceAll)
	if err != nil {
		return "", err
	}

	// 整文件重写：读者只会看到全旧或全新内容 / whole-file rewrite: readers
	// observe fully-old or fully-new content, never an intermediate state.
	if err := os.WriteFile(in.FilePath, []byte(updated), 0o644); err != nil {
		return "", toolerr.FromOS(err, "Permission denied modifying file '%s'", in.FilePath)
	}

	if replaced == 1 {
		return fmt.Sprintf("Successfully replaced 1 occurrence of the specified text in '%s'", in.FilePath), nil
	}
	return fmt.Sprintf("Successfully replaced %d occurrences of the specified text in '%s'", replaced, in.FilePath), nil
}

// replaceExact applies one exact-match substitution (or all of them). The
// occurrence count is a literal substring count; overlapping patterns keep
// the source semantics rather than a smarter interpretation.
func replaceExact(content, oldStr, newStr string, replaceAll bool) (string, int, error) {
	if oldStr == newStr {
		return "", 0, toolerr.New(toolerr.CodeNoOpEdit, "old_string and new_string must be different")
	}
	count := strings.Count(content, oldStr)
	if count == 0 {
		return "", 0, toolerr.New(toolerr.CodeNotFound, "String '%s' not found in file content", oldStr)
	}
	if !replaceAll && count > 1 {
		return "", 0, toolerr.New(toolerr.CodeAmbiguousMatch,
			"String '%s' appears %d times in the file. Either provide a larger string with more context to make it unique, or use replace_all=true to change all instances.", oldStr, count)
	}
	if replaceAll {
		return strings.ReplaceAll(content, oldStr, newStr), count, nil
	}
	return strings.Replace(content, oldStr, newStr, 1), 1, nil
}

// readTextFile loads the whole file as UTF-8 text; undecodable content is an
// encoding error, never silently replaced.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", toolerr.FromOS(err, "read file '%s': %v", path, err)
	}
	if !utf8.Valid(data) {
		return "", toolerr.New(toolerr.CodeEncodingError, "File '%s' contains non-UTF-8 content and cannot be edited as text", path)
	}
	return string(data), nil
}
