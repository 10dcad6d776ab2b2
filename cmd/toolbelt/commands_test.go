package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestServeRequestDecoding(t *testing.T) {
	var req serveRequest
	line := `{"tool": "edit", "args": {"file_path": "/tmp/a.txt"}}`
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Tool != "edit" {
		t.Fatalf("tool=%q", req.Tool)
	}
	if !strings.Contains(string(req.Args), "file_path") {
		t.Fatalf("args=%s", req.Args)
	}
}

func TestPrintResultPlain(t *testing.T) {
	var sb strings.Builder
	printResult(&sb, "Successfully created file '/tmp/a.txt' (6 bytes)")
	if !strings.HasPrefix(sb.String(), "Successfully created file") {
		t.Fatalf("output=%q", sb.String())
	}
}
