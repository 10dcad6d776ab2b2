package tools

import (
	"context"
	"encoding/json"
)

// Definition describes a tool's request schema to the caller. Parameters is
// a JSON-schema-shaped object: required fields carry no default, optional
// fields state one.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type Tool interface {
	Name() string
	Definition() Definition
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
