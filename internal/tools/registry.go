package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"toolbelt/internal/storage"
)

type Registry struct {
	tools map[string]Tool
	log   zerolog.Logger
	audit storage.Store
}

func NewRegistry(ts ...Tool) *Registry {
	m := make(map[string]Tool, len(ts))
	for _, t := range ts {
		m[t.Name()] = t
	}
	return &Registry{tools: m, log: zerolog.Nop()}
}

func (r *Registry) SetLogger(log zerolog.Logger) {
	r.log = log
}

// SetAudit enables the invocation audit log; nil disables it.
func (r *Registry) SetAudit(store storage.Store) {
	r.audit = store
}

func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name].Definition())
	}
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return t.Execute(ctx, args)
}

// Run 是操作边界：任何错误在这里折叠成 "Error: ..." 字符串，不向调用方抛出。
// Run is the operation boundary: every error collapses here into an
// "Error: ..." string, nothing escapes to the caller.
func (r *Registry) Run(ctx context.Context, name string, args json.RawMessage) string {
	start := time.Now()
	out, err := r.Execute(ctx, name, args)
	ok := err == nil
	if err != nil {
		out = "Error: " + err.Error()
	}
	r.log.Info().
		Str("tool", name).
		Bool("ok", ok).
		Dur("duration", time.Since(start)).
		Msg("tool invocation")
	if r.audit != nil {
		if auditErr := r.audit.LogOperation(storage.AuditEntry{
			Tool:    name,
			OK:      ok,
			Summary: firstLine(out, 160),
		}); auditErr != nil {
			r.log.Warn().Err(auditErr).Msg("audit log write failed")
		}
	}
	return out
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > max {
		s = s[:max]
	}
	return s
}
