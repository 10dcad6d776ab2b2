package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"toolbelt/internal/config"
	"toolbelt/internal/fspath"
)

type ReadTool struct {
	cfg config.ReadConfig
}

func NewReadTool(cfg config.ReadConfig) *ReadTool {
	return &ReadTool{cfg: cfg}
}

func (t *ReadTool) Name() string {
	return "read"
}

func (t *ReadTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Read a file from the local filesystem with cat -n style line numbering.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{"type": "string", "description": "The absolute path to the file to read"},
				"offset":    map[string]any{"type": "integer", "description": "The line number to start reading from (1-based). Only provide if the file is too large to read at once."},
				"limit":     map[string]any{"type": "integer", "description": "The number of lines to read. Defaults to 2000."},
			},
			"required": []string{"file_path"},
		},
	}
}

func (t *ReadTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		FilePath string `json:"file_path"`
		Offset   int    `json:"offset"`
		Limit    int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("read args: %w", err)
	}
	if err := fspath.RequireFile(in.FilePath); err != nil {
		return "", err
	}

	content, err := readTextFile(in.FilePath)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "File is empty.", nil
	}

	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	totalLines := len(lines)

	start := 0
	if in.Offset > 0 {
		start = in.Offset - 1
	}
	if start >= totalLines {
		return fmt.Sprintf("File: %s has %d lines; offset %d is past the end of the file.", in.FilePath, totalLines, in.Offset), nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = t.cfg.DefaultLimit
	}
	end := start + limit
	if end > totalLines {
		end = totalLines
	}
	selected := lines[start:end]

	out := make([]string, 0, len(selected)+1)
	for i, line := range selected {
		if len(line) > t.cfg.MaxLineChars {
			line = line[:t.cfg.MaxLineChars] + "... [line truncated]"
		}
		out = append(out, fmt.Sprintf("%6d|%s", start+i+1, line))
	}

	var header string
	switch {
	case in.Offset > 0 || in.Limit > 0:
		header = fmt.Sprintf("File: %s (showing lines %d-%d of %d)\n", in.FilePath, start+1, start+len(selected), totalLines)
	case len(selected) < totalLines:
		header = fmt.Sprintf("File: %s (showing first %d lines of %d)\n", in.FilePath, len(selected), totalLines)
	default:
		header = fmt.Sprintf("File: %s (%d lines)\n", in.FilePath, totalLines)
	}

	return header + strings.Join(out, "\n"), nil
}
