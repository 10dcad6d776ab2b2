package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"toolbelt/internal/config"
	"toolbelt/internal/toolerr"
)

// BashTool runs one blocking shell command per invocation; there is no
// persistent session, each call gets a fresh /bin/sh.
type BashTool struct {
	cfg config.ShellConfig
}

func NewBashTool(cfg config.ShellConfig) *BashTool {
	return &BashTool{cfg: cfg}
}

func (t *BashTool) Name() string {
	return "bash"
}

func (t *BashTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Execute a shell command with an optional timeout and capture its output. Each invocation runs in a fresh shell.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command":     map[string]any{"type": "string", "description": "The command to execute"},
				"timeout":     map[string]any{"type": "integer", "description": "Optional timeout in milliseconds (max 600000)"},
				"description": map[string]any{"type": "string", "description": "Clear, concise description of what this command does in 5-10 words"},
			},
			"required": []string{"command"},
		},
	}
}

func (t *BashTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Command     string `json:"command"`
		Timeout     int    `json:"timeout"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", toolerr.Wrap(toolerr.CodeInvalidArgument, err, "bash args: %v", err)
	}
	if strings.TrimSpace(in.Command) == "" {
		return "", toolerr.New(toolerr.CodeInvalidArgument, "bash command is empty")
	}
	if in.Timeout > t.cfg.MaxTimeoutMS {
		return "", toolerr.New(toolerr.CodeInvalidArgument, "Timeout cannot exceed %dms (%s)", t.cfg.MaxTimeoutMS, timeoutCeilingNote(t.cfg.MaxTimeoutMS))
	}

	timeoutMS := in.Timeout
	if timeoutMS <= 0 {
		timeoutMS = t.cfg.TimeoutMS
	}
	timeout := time.Duration(timeoutMS) * time.Millisecond
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", in.Command)

	stdout := newCappedBuffer(t.cfg.OutputLimitChars)
	stderr := newCappedBuffer(t.cfg.OutputLimitChars)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		var ee *exec.ExitError
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			return "", toolerr.New(toolerr.CodeTimeoutExceeded, "Command timed out after %g seconds", timeout.Seconds())
		case errors.As(err, &ee):
			exitCode = ee.ExitCode()
		default:
			return "", toolerr.Wrap(toolerr.CodeUnhandled, err, "Error executing command: %v", err)
		}
	}

	var lines []string
	if out := strings.TrimSpace(stdout.String()); out != "" {
		lines = append(lines, "Command output:", "```", out, "```")
	}
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		lines = append(lines, "Error output:", "```", errOut, "```")
	}
	lines = append(lines, fmt.Sprintf("Exit code: %d", exitCode))
	if exitCode == 0 {
		lines = append(lines, "\nCommand completed.")
	} else {
		lines = append(lines, fmt.Sprintf("\nCommand failed with exit code %d.", exitCode))
	}

	full := strings.Join(lines, "\n")
	if len(full) > t.cfg.OutputLimitChars {
		full = full[:t.cfg.OutputLimitChars] + "\n\n... [Output truncated due to length]"
	}
	return full, nil
}

// timeoutCeilingNote spells the configured ceiling in minutes when it divides
// evenly, otherwise as a plain duration.
func timeoutCeilingNote(ms int) string {
	if ms%60000 == 0 {
		return fmt.Sprintf("%d minutes", ms/60000)
	}
	return (time.Duration(ms) * time.Millisecond).String()
}

// cappedBuffer 丢弃超过上限的字节，避免单条命令的输出占满内存。
// cappedBuffer drops bytes past the cap so one chatty command cannot balloon
// memory; the downstream formatter appends the truncation notice.
type cappedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	if max <= 0 {
		max = 1 << 20
	}
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.truncated {
		return len(p), nil
	}
	remain := b.max - b.buf.Len()
	if remain <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remain {
		_, _ = b.buf.Write(p[:remain])
		b.truncated = true
		return len(p), nil
	}
	_, err := b.buf.Write(p)
	return len(p), err
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
