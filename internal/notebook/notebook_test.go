package notebook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbelt/internal/toolerr"
)

const fixture = `{
 "cells": [
  {
   "cell_type": "markdown",
   "id": "m1",
   "metadata": {},
   "source": ["# Title\n", "body"]
  },
  {
   "cell_type": "code",
   "execution_count": 2,
   "id": "c1",
   "metadata": {},
   "outputs": [
    {"output_type": "stream", "name": "stdout", "text": ["out\n"]},
    {"output_type": "execute_result", "execution_count": 2, "data": {"text/plain": "42", "image/png": "aWhkcg=="}, "metadata": {}},
    {"output_type": "error", "ename": "ValueError", "evalue": "bad", "traceback": ["line1", "line2"]}
   ],
   "source": "x = 42\nx"
  }
 ],
 "metadata": {"kernelspec": {"name": "python3"}},
 "nbformat": 4,
 "nbformat_minor": 5
}`

func TestParseTypedSchema(t *testing.T) {
	doc, err := Parse([]byte(fixture))
	require.NoError(t, err)
	require.Len(t, doc.Cells, 2)

	md := doc.Cells[0]
	assert.Equal(t, CellMarkdown, md.Type)
	assert.Nil(t, md.Outputs)
	assert.Nil(t, md.ExecutionCount)
	assert.Equal(t, "# Title\nbody", JoinSource(md.Source))

	code := doc.Cells[1]
	assert.Equal(t, CellCode, code.Type)
	require.NotNil(t, code.ExecutionCount)
	assert.Equal(t, 2, *code.ExecutionCount)
	// string 形式的 source 也被接受 / string-form source is accepted too
	assert.Equal(t, "x = 42\nx", JoinSource(code.Source))
	require.Len(t, code.Outputs, 3)
	assert.Equal(t, OutputStream, code.Outputs[0].Type)
	assert.Equal(t, OutputExecuteResult, code.Outputs[1].Type)
	assert.Equal(t, OutputError, code.Outputs[2].Type)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	assert.Equal(t, toolerr.CodeMalformedDocument, toolerr.CodeOf(err))

	_, err = Parse([]byte(`{"metadata": {}}`))
	assert.Equal(t, toolerr.CodeInvalidSchema, toolerr.CodeOf(err))
}

func TestOpenRejectsWrongExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	_, err := Open(path)
	assert.Equal(t, toolerr.CodeWrongFormat, toolerr.CodeOf(err))
}

func TestSaveRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(fixture))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rt.ipynb")
	require.NoError(t, doc.Save(path))

	reread, err := Open(path)
	require.NoError(t, err)
	require.Len(t, reread.Cells, 2)
	assert.Equal(t, doc.Cells[0].Source, reread.Cells[0].Source)
	assert.Equal(t, doc.Cells[1].Outputs[0].Text, reread.Cells[1].Outputs[0].Text)

	// 富输出的原始字节在往返后保持不变 / rich output payload bytes survive the
	// round trip untouched.
	var before, after string
	require.NoError(t, json.Unmarshal(doc.Cells[1].Outputs[1].Data["image/png"], &before))
	require.NoError(t, json.Unmarshal(reread.Cells[1].Outputs[1].Data["image/png"], &after))
	assert.Equal(t, before, after)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n \"cells\""), "one-space indent expected: %q", string(raw[:20]))
}

func TestResolvePrefersIDOverIndex(t *testing.T) {
	doc := &Document{Cells: []Cell{
		{ID: "1", Type: CellMarkdown},
		{ID: "other", Type: CellCode},
	}}

	// "1" 先按 id 命中第 0 格，而不是按下标命中第 1 格。
	// "1" matches cell 0 by id before the positional reading would pick cell 1.
	idx, err := doc.Resolve("1")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = doc.Resolve("other")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = doc.Resolve("missing")
	assert.Equal(t, toolerr.CodeNotFound, toolerr.CodeOf(err))

	_, err = doc.Resolve("5")
	assert.Equal(t, toolerr.CodeNotFound, toolerr.CodeOf(err))
}

func TestSplitSourceConvention(t *testing.T) {
	assert.Equal(t, []string{}, SplitSource(""))
	assert.Equal(t, []string{"one line"}, SplitSource("one line"))
	assert.Equal(t, []string{"a\n", "b"}, SplitSource("a\nb"))
	assert.Equal(t, []string{"a\n", "b\n"}, SplitSource("a\nb\n"))
	assert.Equal(t, "a\nb", JoinSource(SplitSource("a\nb")))
}

func TestRenderCell(t *testing.T) {
	doc, err := Parse([]byte(fixture))
	require.NoError(t, err)

	out := RenderCell(doc.Cells[1], "c1")
	assert.Contains(t, out, "=== Cell c1 (code) ===")
	assert.Contains(t, out, "Execution count: 2")
	assert.Contains(t, out, "```python")
	assert.Contains(t, out, "Output 1 (stream):")
	assert.Contains(t, out, "text/plain: 42")
	assert.Contains(t, out, "image/png: [Image data - 8 characters]")
	assert.Contains(t, out, "Error: ValueError: bad")
	assert.Contains(t, out, "Traceback:")

	md := RenderCell(doc.Cells[0], "0")
	assert.Contains(t, md, "=== Cell 0 (markdown) ===")
	assert.Contains(t, md, "```markdown")
	assert.NotContains(t, md, "Outputs:")
}
