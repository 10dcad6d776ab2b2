// Package notebook 以显式的类型化 schema 表示 .ipynb 文档：有序 cell 列表，
// 每个 cell 是 code/markdown 变体，只携带其类型允许的字段。
// Package notebook models .ipynb documents with an explicit typed schema: an
// ordered cell list where each cell is a code/markdown variant carrying only
// the fields its kind permits.
package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"toolbelt/internal/fspath"
	"toolbelt/internal/toolerr"
)

type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
)

// Cell is one unit of the document. ExecutionCount and Outputs exist only on
// code cells; switching a cell to markdown strips them.
type Cell struct {
	ID             string
	Type           CellType
	Source         []string
	Metadata       map[string]any
	ExecutionCount *int
	Outputs        []Output
}

type OutputType string

const (
	OutputStream        OutputType = "stream"
	OutputExecuteResult OutputType = "execute_result"
	OutputDisplayData   OutputType = "display_data"
	OutputError         OutputType = "error"
)

// Output is a tagged variant over the four nbformat output kinds. Data values
// stay as raw JSON so a rewrite preserves the original payload bytes.
type Output struct {
	Type OutputType

	// stream
	Name string
	Text []string

	// execute_result / display_data
	Data           map[string]json.RawMessage
	ExecutionCount *int
	Metadata       map[string]any

	// error
	EName     string
	EValue    string
	Traceback []string
}

// Document is the whole notebook: ordered cells plus the format envelope.
type Document struct {
	Cells         []Cell
	Metadata      map[string]any
	NBFormat      int
	NBFormatMinor int
}

// Open validates the path as a notebook file and parses it. Failure modes:
// WrongFormat (extension), MalformedDocument (JSON), InvalidSchema (no cells).
func Open(path string) (*Document, error) {
	if err := fspath.RequireFile(path); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".ipynb") {
		return nil, toolerr.New(toolerr.CodeWrongFormat, "File '%s' is not a Jupyter notebook (.ipynb) file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, toolerr.FromOS(err, "read notebook file '%s': %v", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		switch toolerr.CodeOf(err) {
		case toolerr.CodeMalformedDocument:
			return nil, toolerr.New(toolerr.CodeMalformedDocument, "Invalid JSON in notebook file '%s': %v", path, err)
		case toolerr.CodeInvalidSchema:
			return nil, toolerr.New(toolerr.CodeInvalidSchema, "Invalid notebook format - no 'cells' found in '%s'", path)
		}
		return nil, err
	}
	return doc, nil
}

type documentJSON struct {
	Cells         *[]Cell        `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Parse decodes notebook JSON into the typed schema.
func Parse(data []byte) (*Document, error) {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, toolerr.Wrap(toolerr.CodeMalformedDocument, err, "%s", err.Error())
	}
	if raw.Cells == nil {
		return nil, toolerr.New(toolerr.CodeInvalidSchema, "no 'cells' found")
	}
	doc := &Document{
		Cells:         *raw.Cells,
		Metadata:      raw.Metadata,
		NBFormat:      raw.NBFormat,
		NBFormatMinor: raw.NBFormatMinor,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	return doc, nil
}

// Save re-serializes the whole document and writes it back in one step.
// indent=1 and unescaped non-ASCII match the upstream notebook convention.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(d); err != nil {
		return toolerr.Wrap(toolerr.CodeUnhandled, err, "serialize notebook: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return toolerr.FromOS(err, "write notebook file '%s': %v", path, err)
	}
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	meta := d.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	cells := d.Cells
	if cells == nil {
		cells = []Cell{}
	}
	return json.Marshal(documentJSON{
		Cells:         &cells,
		Metadata:      meta,
		NBFormat:      d.NBFormat,
		NBFormatMinor: d.NBFormatMinor,
	})
}

// Resolve maps a cell reference to a definite position: explicit id equality
// over the whole list first, then a zero-based positional interpretation.
// Replace/insert/delete all share this single lookup.
func (d *Document) Resolve(cellID string) (int, error) {
	for i, cell := range d.Cells {
		if cell.ID != "" && cell.ID == cellID {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(cellID); err == nil {
		if idx >= 0 && idx < len(d.Cells) {
			return idx, nil
		}
	}
	return -1, toolerr.New(toolerr.CodeNotFound, "Cell with ID '%s' not found in notebook", cellID)
}

// SplitSource normalizes text into the notebook line-array convention: every
// line except the last keeps its terminator, a trailing empty line is dropped.
func SplitSource(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		last := i == len(lines)-1
		if last && line == "" {
			continue
		}
		if last {
			out = append(out, line)
		} else {
			out = append(out, line+"\n")
		}
	}
	return out
}

// JoinSource is the inverse view used for rendering.
func JoinSource(lines []string) string {
	return strings.Join(lines, "")
}

// --- Cell JSON ---

type cellJSON struct {
	ID             string          `json:"id,omitempty"`
	CellType       string          `json:"cell_type"`
	ExecutionCount json.RawMessage `json:"execution_count,omitempty"`
	Metadata       map[string]any  `json:"metadata"`
	Outputs        []Output        `json:"outputs,omitempty"`
	Source         json.RawMessage `json:"source"`
}

type codeCellJSON struct {
	ID             string         `json:"id,omitempty"`
	CellType       string         `json:"cell_type"`
	ExecutionCount *int           `json:"execution_count"`
	Metadata       map[string]any `json:"metadata"`
	Outputs        []Output       `json:"outputs"`
	Source         []string       `json:"source"`
}

type markdownCellJSON struct {
	ID       string         `json:"id,omitempty"`
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw cellJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.CellType {
	case string(CellCode), string(CellMarkdown):
		c.Type = CellType(raw.CellType)
	default:
		return fmt.Errorf("unsupported cell_type %q", raw.CellType)
	}
	c.ID = raw.ID
	c.Metadata = raw.Metadata
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	src, err := decodeLines(raw.Source)
	if err != nil {
		return fmt.Errorf("cell source: %w", err)
	}
	c.Source = src

	if c.Type == CellCode {
		if len(raw.ExecutionCount) > 0 && string(raw.ExecutionCount) != "null" {
			var n int
			if err := json.Unmarshal(raw.ExecutionCount, &n); err != nil {
				return fmt.Errorf("execution_count: %w", err)
			}
			c.ExecutionCount = &n
		}
		c.Outputs = raw.Outputs
		if c.Outputs == nil {
			c.Outputs = []Output{}
		}
	} else {
		// markdown 变体不保留可执行字段 / the markdown variant keeps no executable fields
		c.ExecutionCount = nil
		c.Outputs = nil
	}
	return nil
}

func (c Cell) MarshalJSON() ([]byte, error) {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	source := c.Source
	if source == nil {
		source = []string{}
	}
	if c.Type == CellMarkdown {
		return json.Marshal(markdownCellJSON{
			ID:       c.ID,
			CellType: string(CellMarkdown),
			Metadata: meta,
			Source:   source,
		})
	}
	outputs := c.Outputs
	if outputs == nil {
		outputs = []Output{}
	}
	return json.Marshal(codeCellJSON{
		ID:             c.ID,
		CellType:       string(CellCode),
		ExecutionCount: c.ExecutionCount,
		Metadata:       meta,
		Outputs:        outputs,
		Source:         source,
	})
}

// decodeLines accepts the two spellings nbformat allows for text payloads:
// a single string or a list of lines.
func decodeLines(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return SplitSource(s), nil
}

// --- Output JSON ---

type outputJSON struct {
	OutputType     string                     `json:"output_type"`
	Name           string                     `json:"name,omitempty"`
	Text           json.RawMessage            `json:"text,omitempty"`
	Data           map[string]json.RawMessage `json:"data,omitempty"`
	ExecutionCount *int                       `json:"execution_count,omitempty"`
	Metadata       map[string]any             `json:"metadata,omitempty"`
	EName          string                     `json:"ename,omitempty"`
	EValue         string                     `json:"evalue,omitempty"`
	Traceback      []string                   `json:"traceback,omitempty"`
}

func (o *Output) UnmarshalJSON(data []byte) error {
	var raw outputJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.OutputType {
	case string(OutputStream):
		o.Type = OutputStream
		o.Name = raw.Name
		text, err := decodeLines(raw.Text)
		if err != nil {
			return fmt.Errorf("stream text: %w", err)
		}
		o.Text = text
	case string(OutputExecuteResult), string(OutputDisplayData):
		o.Type = OutputType(raw.OutputType)
		o.Data = raw.Data
		if o.Data == nil {
			o.Data = map[string]json.RawMessage{}
		}
		o.ExecutionCount = raw.ExecutionCount
		o.Metadata = raw.Metadata
	case string(OutputError):
		o.Type = OutputError
		o.EName = raw.EName
		o.EValue = raw.EValue
		o.Traceback = raw.Traceback
	default:
		return fmt.Errorf("unsupported output_type %q", raw.OutputType)
	}
	return nil
}

func (o Output) MarshalJSON() ([]byte, error) {
	switch o.Type {
	case OutputStream:
		text := o.Text
		if text == nil {
			text = []string{}
		}
		return json.Marshal(map[string]any{
			"output_type": o.Type,
			"name":        o.Name,
			"text":        text,
		})
	case OutputExecuteResult, OutputDisplayData:
		meta := o.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		data := o.Data
		if data == nil {
			data = map[string]json.RawMessage{}
		}
		out := map[string]any{
			"output_type": o.Type,
			"data":        data,
			"metadata":    meta,
		}
		if o.Type == OutputExecuteResult {
			out["execution_count"] = o.ExecutionCount
		}
		return json.Marshal(out)
	case OutputError:
		tb := o.Traceback
		if tb == nil {
			tb = []string{}
		}
		return json.Marshal(map[string]any{
			"output_type": o.Type,
			"ename":       o.EName,
			"evalue":      o.EValue,
			"traceback":   tb,
		})
	default:
		return nil, fmt.Errorf("unsupported output_type %q", o.Type)
	}
}

// DataText decodes one mime entry of a rich output as text. Both spellings
// (string and line list) collapse to the joined form.
func (o Output) DataText(mime string) (string, bool) {
	raw, ok := o.Data[mime]
	if !ok {
		return "", false
	}
	lines, err := decodeLines(raw)
	if err != nil {
		return "", false
	}
	return JoinSource(lines), true
}
