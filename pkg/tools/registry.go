package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

// Registry holds the invokable tools by name. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		logger.WarnCF("tools", "Replacing tool", map[string]any{"tool": tool.Name()})
	}
	r.tools[tool.Name()] = tool
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns the registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the static descriptions of every registered tool,
// sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descs := make([]Descriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		descs = append(descs, Descriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the named tool. Unknown names and tool panics come back as
// error results, never as a raised error.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *ToolResult {
	tool, ok := r.Get(name)
	if !ok {
		return ErrorResult(fmt.Sprintf("unknown tool: %s", name))
	}

	logger.DebugCF("tools", "Executing tool", map[string]any{"tool": name})

	var result *ToolResult
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorCF("tools", "Tool panicked", map[string]any{
					"tool":  name,
					"panic": fmt.Sprintf("%v", rec),
				})
				result = ErrorResult(fmt.Sprintf("tool %s panicked: %v", name, rec))
			}
		}()
		result = tool.Execute(ctx, args)
	}()

	if result == nil {
		result = ErrorResult(fmt.Sprintf("tool %s returned no result", name))
	}
	return result
}
