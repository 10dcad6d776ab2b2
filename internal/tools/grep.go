package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"toolbelt/internal/toolerr"
)

// GrepTool is a recursive regexp search over file contents, done as an
// in-process walk rather than shelling out to an external searcher. Binary
// files are skipped, matches are capped at maxMatches per invocation.
type GrepTool struct {
	maxMatches int
}

func NewGrepTool(maxMatches int) *GrepTool {
	return &GrepTool{maxMatches: maxMatches}
}

func (t *GrepTool) Name() string {
	return "grep"
}

func (t *GrepTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Search file contents with a regular expression. Output modes: \"content\" shows matching lines, \"files_with_matches\" shows only file paths (default), \"count\" shows per-file match counts.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern":     map[string]any{"type": "string", "description": "The regular expression pattern to search for in file contents"},
				"path":        map[string]any{"type": "string", "description": "File or directory to search in. Defaults to current working directory."},
				"glob":        map[string]any{"type": "string", "description": "Glob pattern to filter files (e.g. \"*.js\", \"**/*.tsx\")"},
				"output_mode": map[string]any{"type": "string", "enum": []string{"content", "files_with_matches", "count"}, "description": "Output mode. Defaults to \"files_with_matches\"."},
				"-i":          map[string]any{"type": "boolean", "description": "Case insensitive search"},
				"-n":          map[string]any{"type": "boolean", "description": "Show line numbers in output. Requires output_mode: \"content\"."},
				"head_limit":  map[string]any{"type": "integer", "description": "Limit output to first N lines/entries"},
			},
			"required": []string{"pattern"},
		},
	}
}

type grepArgs struct {
	Pattern     string `json:"pattern"`
	Path        string `json:"path"`
	Glob        string `json:"glob"`
	OutputMode  string `json:"output_mode"`
	Insensitive bool   `json:"-i"`
	LineNumbers bool   `json:"-n"`
	HeadLimit   int    `json:"head_limit"`
}

func (t *GrepTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in grepArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "grep args: %v", err)
	}
	if in.OutputMode == "" {
		in.OutputMode = "files_with_matches"
	}
	switch in.OutputMode {
	case "content", "files_with_matches", "count":
	default:
		return "", toolerr.New(toolerr.CodeInvalidArgument, "invalid output_mode '%s'", in.OutputMode)
	}

	expr := in.Pattern
	if in.Insensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "invalid regular expression '%s': %v", in.Pattern, err)
	}

	root := in.Path
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", toolerr.FromOS(err, "determine working directory: %v", err)
		}
		root = cwd
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", toolerr.FromOS(err, "Path '%s' does not exist", root)
	}

	var files []string
	if info.IsDir() {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped, not fatal
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if name := d.Name(); name == ".git" || name == "node_modules" {
					return filepath.SkipDir
				}
				return nil
			}
			if in.Glob != "" {
				rel, relErr := filepath.Rel(root, path)
				if relErr != nil {
					return nil
				}
				rel = filepath.ToSlash(rel)
				ok, _ := doublestar.Match(in.Glob, rel)
				if !ok {
					// 同时允许只写文件名形式的 glob / bare-name globs match too.
					ok, _ = doublestar.Match(in.Glob, filepath.Base(path))
				}
				if !ok {
					return nil
				}
			}
			files = append(files, path)
			return nil
		})
		if walkErr != nil {
			return "", toolerr.Wrap(toolerr.CodeUnhandled, walkErr, "search walk failed: %v", walkErr)
		}
	} else {
		files = []string{root}
	}
	sort.Strings(files)

	type fileResult struct {
		path  string
		lines []string
		count int
	}
	var results []fileResult
	total := 0

scan:
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
			continue
		}
		res := fileResult{path: path}
		for lineNo, line := range strings.Split(string(data), "\n") {
			if !re.MatchString(line) {
				continue
			}
			res.count++
			total++
			if in.OutputMode == "content" {
				if in.LineNumbers {
					res.lines = append(res.lines, fmt.Sprintf("%s:%d:%s", path, lineNo+1, line))
				} else {
					res.lines = append(res.lines, fmt.Sprintf("%s:%s", path, line))
				}
			}
			if total >= t.maxMatches {
				results = append(results, res)
				break scan
			}
		}
		if res.count > 0 {
			results = append(results, res)
		}
	}

	if len(results) == 0 {
		switch in.OutputMode {
		case "files_with_matches":
			return fmt.Sprintf("No files found containing pattern '%s'", in.Pattern), nil
		case "count":
			return fmt.Sprintf("No matches found for pattern '%s'", in.Pattern), nil
		default:
			return fmt.Sprintf("No content matches found for pattern '%s'", in.Pattern), nil
		}
	}

	var lines []string
	switch in.OutputMode {
	case "files_with_matches":
		lines = append(lines, fmt.Sprintf("Files containing pattern '%s':", in.Pattern))
		for _, r := range results {
			lines = append(lines, r.path)
		}
	case "count":
		lines = append(lines, fmt.Sprintf("Match counts for pattern '%s':", in.Pattern))
		for _, r := range results {
			lines = append(lines, fmt.Sprintf("%s: %d matches", r.path, r.count))
		}
	default:
		lines = append(lines, fmt.Sprintf("Content matches for pattern '%s':", in.Pattern))
		for _, r := range results {
			lines = append(lines, r.lines...)
		}
	}

	if in.HeadLimit > 0 && len(lines) > in.HeadLimit+1 {
		lines = lines[:in.HeadLimit+1]
	}
	return strings.Join(lines, "\n"), nil
}
