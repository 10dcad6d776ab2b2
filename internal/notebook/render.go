package notebook

import (
	"fmt"
	"sort"
	"strings"
)

// RenderCell formats one cell for display: header, execution count, fenced
// source, then outputs for code cells. Rendering never mutates the document.
func RenderCell(cell Cell, label string) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("=== Cell %s (%s) ===", label, cell.Type))

	if cell.Type == CellCode && cell.ExecutionCount != nil {
		lines = append(lines, fmt.Sprintf("Execution count: %d", *cell.ExecutionCount))
	}

	if len(cell.Source) > 0 {
		lines = append(lines, "Source:")
		fence := "markdown"
		if cell.Type == CellCode {
			fence = "python"
		}
		lines = append(lines, "```"+fence)
		lines = append(lines, strings.TrimRight(JoinSource(cell.Source), "\n"))
		lines = append(lines, "```")
	}

	if cell.Type == CellCode && len(cell.Outputs) > 0 {
		lines = append(lines, "Outputs:")
		for i, out := range cell.Outputs {
			lines = append(lines, fmt.Sprintf("  Output %d (%s):", i+1, out.Type))
			lines = append(lines, renderOutput(out)...)
		}
	}

	return strings.Join(lines, "\n")
}

func renderOutput(out Output) []string {
	var lines []string
	switch out.Type {
	case OutputStream:
		lines = append(lines, "    "+strings.TrimRight(JoinSource(out.Text), "\n"))
	case OutputExecuteResult, OutputDisplayData:
		for _, mime := range sortedMimes(out) {
			text, ok := out.DataText(mime)
			if !ok {
				continue
			}
			switch {
			case mime == "text/plain":
				lines = append(lines, fmt.Sprintf("    %s: %s", mime, strings.TrimRight(text, "\n")))
			case strings.HasPrefix(mime, "image/"):
				// 图像数据只报告大小，不展开 / image payloads report size only, never dumped
				lines = append(lines, fmt.Sprintf("    %s: [Image data - %d characters]", mime, len(text)))
			default:
				preview := text
				if len(preview) > 100 {
					preview = preview[:100] + "..."
				}
				lines = append(lines, fmt.Sprintf("    %s: %s", mime, preview))
			}
		}
	case OutputError:
		lines = append(lines, fmt.Sprintf("    Error: %s: %s", out.EName, out.EValue))
		if len(out.Traceback) > 0 {
			lines = append(lines, "    Traceback:")
			for _, tb := range out.Traceback {
				lines = append(lines, "      "+tb)
			}
		}
	}
	return lines
}

func sortedMimes(out Output) []string {
	mimes := make([]string, 0, len(out.Data))
	// text/plain first, the rest in lexical order for stable rendering.
	if _, ok := out.Data["text/plain"]; ok {
		mimes = append(mimes, "text/plain")
	}
	rest := make([]string, 0, len(out.Data))
	for mime := range out.Data {
		if mime != "text/plain" {
			rest = append(rest, mime)
		}
	}
	sort.Strings(rest)
	return append(mimes, rest...)
}
