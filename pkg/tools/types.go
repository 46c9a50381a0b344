// Package tools exposes device intents as named, schema-described tools for
// a higher-level caller (the MCP host or the orchestrator planner). Each
// tool is backed one-to-one by an intent; invocation goes through the bridge
// client, and every failure comes back as a structured result, never as a
// panic or raised error.
package tools

import "context"

// Tool is a named, schema-described capability.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) *ToolResult
}

// ToolResult is the structured outcome of a tool invocation. ForLLM is the
// text handed to the calling agent; Data carries the decoded device result.
type ToolResult struct {
	ForLLM  string
	Data    any
	IsError bool
	Err     error
}

func NewToolResult(forLLM string) *ToolResult {
	return &ToolResult{ForLLM: forLLM}
}

func ErrorResult(message string) *ToolResult {
	return &ToolResult{ForLLM: message, IsError: true}
}

func (r *ToolResult) WithError(err error) *ToolResult {
	r.Err = err
	return r
}

func (r *ToolResult) WithData(data any) *ToolResult {
	r.Data = data
	return r
}

// Descriptor is the static, discoverable description of a tool. Derived
// from the registry at startup; listable without a live bridge connection.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
