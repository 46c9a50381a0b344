package tools

import (
	"context"
	"strings"
	"testing"
)

type stubTool struct {
	name   string
	result *ToolResult
	panics bool
}

func (s *stubTool) Name() string { return s.name }

func (s *stubTool) Description() string { return "stub " + s.name }

func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s *stubTool) Execute(context.Context, map[string]any) *ToolResult {
	if s.panics {
		panic("stub exploded")
	}
	return s.result
}

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "greet", result: NewToolResult("hello")})

	result := r.Execute(context.Background(), "greet", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if result.ForLLM != "hello" {
		t.Errorf("ForLLM = %q", result.ForLLM)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()

	result := r.Execute(context.Background(), "missing", nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if result.ForLLM != "unknown tool: missing" {
		t.Errorf("ForLLM = %q", result.ForLLM)
	}
}

func TestRegistryRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "boom", panics: true})

	result := r.Execute(context.Background(), "boom", nil)
	if !result.IsError {
		t.Fatal("expected error result from panicking tool")
	}
	if !strings.Contains(result.ForLLM, "stub exploded") {
		t.Errorf("ForLLM = %q", result.ForLLM)
	}
}

func TestRegistryNilResult(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "empty"})

	result := r.Execute(context.Background(), "empty", nil)
	if !result.IsError {
		t.Fatal("expected error result for nil tool result")
	}
}

func TestRegistryDescriptorsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "zeta", result: NewToolResult("")})
	r.Register(&stubTool{name: "alpha", result: NewToolResult("")})

	descs := r.Descriptors()
	if len(descs) != 2 {
		t.Fatalf("Descriptors() len = %d", len(descs))
	}
	if descs[0].Name != "alpha" || descs[1].Name != "zeta" {
		t.Errorf("Descriptors order = %s, %s", descs[0].Name, descs[1].Name)
	}
	if descs[0].Description != "stub alpha" {
		t.Errorf("Description = %q", descs[0].Description)
	}
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "greet", result: NewToolResult("old")})
	r.Register(&stubTool{name: "greet", result: NewToolResult("new")})

	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
	result := r.Execute(context.Background(), "greet", nil)
	if result.ForLLM != "new" {
		t.Errorf("ForLLM = %q, want new", result.ForLLM)
	}
}
