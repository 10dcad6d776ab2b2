package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"toolbelt/internal/fspath"
	"toolbelt/internal/notebook"
	"toolbelt/internal/toolerr"
)

// NotebookReadTool renders a .ipynb document (or a single cell of it) as
// text, outputs included. It never modifies the file.
type NotebookReadTool struct{}

func NewNotebookReadTool() *NotebookReadTool {
	return &NotebookReadTool{}
}

func (t *NotebookReadTool) Name() string {
	return "notebookread"
}

func (t *NotebookReadTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Read a Jupyter notebook (.ipynb file) and return its cells with their outputs.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"notebook_path": map[string]any{"type": "string", "description": "The absolute path to the Jupyter notebook file to read (must be absolute, not relative)"},
				"cell_id":       map[string]any{"type": "string", "description": "The ID of a specific cell to read. If not provided, all cells will be read."},
			},
			"required": []string{"notebook_path"},
		},
	}
}

func (t *NotebookReadTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		NotebookPath string `json:"notebook_path"`
		CellID       string `json:"cell_id"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "notebookread args: %v", err)
	}
	if !filepath.IsAbs(in.NotebookPath) {
		return "", toolerr.New(toolerr.CodeInvalidPath, "Notebook path must be absolute, not relative. Received: %s", in.NotebookPath)
	}
	if !fspath.Exists(in.NotebookPath) {
		return "", toolerr.New(toolerr.CodeNotFound, "Notebook file '%s' does not exist", in.NotebookPath)
	}

	doc, err := notebook.Open(in.NotebookPath)
	if err != nil {
		return "", err
	}

	if in.CellID != "" {
		idx, err := doc.Resolve(in.CellID)
		if err != nil {
			return "", err
		}
		return notebook.RenderCell(doc.Cells[idx], in.CellID), nil
	}

	lines := []string{
		fmt.Sprintf("Jupyter Notebook: %s", in.NotebookPath),
		fmt.Sprintf("Total cells: %d\n", len(doc.Cells)),
	}
	for i, cell := range doc.Cells {
		lines = append(lines, notebook.RenderCell(cell, strconv.Itoa(i)))
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}
