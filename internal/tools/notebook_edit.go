package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"toolbelt/internal/fspath"
	"toolbelt/internal/notebook"
	"toolbelt/internal/toolerr"
)

// NotebookEditTool edits one cell of a .ipynb document: replace its source,
// insert a new cell after it, or delete it. The document is parsed, mutated
// in memory and rewritten whole.
type NotebookEditTool struct{}

func NewNotebookEditTool() *NotebookEditTool {
	return &NotebookEditTool{}
}

func (t *NotebookEditTool) Name() string {
	return "notebookedit"
}

func (t *NotebookEditTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Replace, insert, or delete a cell in a Jupyter notebook (.ipynb file). Cells are addressed by id or by zero-based index.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"notebook_path": map[string]any{"type": "string", "description": "The absolute path to the Jupyter notebook file to edit (must be absolute, not relative)"},
				"cell_id":       map[string]any{"type": "string", "description": "The ID of the cell to edit. When inserting, the new cell is inserted after the cell with this ID, or at the beginning if not specified."},
				"new_source":    map[string]any{"type": "string", "description": "The new source for the cell"},
				"cell_type":     map[string]any{"type": "string", "enum": []string{"code", "markdown"}, "description": "The type of the cell. Defaults to the current cell type; required for edit_mode=insert."},
				"edit_mode":     map[string]any{"type": "string", "enum": []string{"replace", "insert", "delete"}, "description": "The type of edit to make. Defaults to replace."},
			},
			"required": []string{"notebook_path", "new_source"},
		},
	}
}

func (t *NotebookEditTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var in struct {
		NotebookPath string `json:"notebook_path"`
		CellID       string `json:"cell_id"`
		NewSource    string `json:"new_source"`
		CellType     string `json:"cell_type"`
		EditMode     string `json:"edit_mode"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "notebookedit args: %v", err)
	}
	if !filepath.IsAbs(in.NotebookPath) {
		return "", toolerr.New(toolerr.CodeInvalidPath, "Notebook path must be absolute, not relative. Received: %s", in.NotebookPath)
	}
	if !fspath.Exists(in.NotebookPath) {
		return "", toolerr.New(toolerr.CodeNotFound, "Notebook file '%s' does not exist", in.NotebookPath)
	}

	if in.EditMode == "" {
		in.EditMode = "replace"
	}
	switch in.EditMode {
	case "replace", "insert", "delete":
	default:
		return "", toolerr.New(toolerr.CodeInvalidArgument, "invalid edit_mode '%s'", in.EditMode)
	}
	if in.EditMode == "insert" && in.CellType == "" {
		return "", toolerr.New(toolerr.CodeMissingCellType, "cell_type is required when edit_mode is 'insert'")
	}
	if in.CellType != "" && in.CellType != string(notebook.CellCode) && in.CellType != string(notebook.CellMarkdown) {
		return "", toolerr.New(toolerr.CodeInvalidArgument, "invalid cell_type '%s'", in.CellType)
	}

	doc, err := notebook.Open(in.NotebookPath)
	if err != nil {
		return "", err
	}

	// 先解析目标位置，再按模式修改 / resolve the target position first, then
	// apply the mode-specific mutation.
	target := -1
	if in.CellID != "" {
		target, err = doc.Resolve(in.CellID)
		if err != nil {
			return "", err
		}
	} else if in.EditMode != "insert" {
		if len(doc.Cells) == 0 {
			return "", toolerr.New(toolerr.CodeNotFound, "No cells in notebook and no cell_id specified")
		}
		target = 0
	}

	var message string
	switch in.EditMode {
	case "delete":
		deleted := doc.Cells[target]
		doc.Cells = append(doc.Cells[:target], doc.Cells[target+1:]...)
		message = fmt.Sprintf("Successfully deleted cell %d (%s type)", target, deleted.Type)

	case "insert":
		cell := notebook.Cell{
			ID:       uuid.NewString(),
			Type:     notebook.CellType(in.CellType),
			Source:   notebook.SplitSource(in.NewSource),
			Metadata: map[string]any{},
		}
		if cell.Type == notebook.CellCode {
			cell.Outputs = []notebook.Output{}
		}
		position := 0
		if in.CellID != "" {
			position = target + 1
		}
		doc.Cells = append(doc.Cells, notebook.Cell{})
		copy(doc.Cells[position+1:], doc.Cells[position:])
		doc.Cells[position] = cell
		message = fmt.Sprintf("Successfully inserted new %s cell at position %d", in.CellType, position)

	default: // replace
		doc.Cells[target].Source = notebook.SplitSource(in.NewSource)
		if in.CellType != "" && notebook.CellType(in.CellType) != doc.Cells[target].Type {
			doc.Cells[target].Type = notebook.CellType(in.CellType)
			if doc.Cells[target].Type == notebook.CellCode {
				doc.Cells[target].ExecutionCount = nil
				doc.Cells[target].Outputs = []notebook.Output{}
			} else {
				doc.Cells[target].ExecutionCount = nil
				doc.Cells[target].Outputs = nil
			}
		}
		message = fmt.Sprintf("Successfully replaced cell %d content", target)
	}

	if err := doc.Save(in.NotebookPath); err != nil {
		return "", err
	}
	return message, nil
}
