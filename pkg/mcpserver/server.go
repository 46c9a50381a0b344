// Package mcpserver exposes the device tool registry as an MCP server over
// stdio, so any MCP-capable host can list and invoke the device tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/tools"
)

const serverVersion = "1.0.0"

// Server bridges the tool registry onto the MCP protocol. Tool failures are
// reported as MCP error results, never as protocol errors, so the host can
// show them to the model.
type Server struct {
	name     string
	registry *tools.Registry
	mcp      *mcp.Server
}

func New(name string, registry *tools.Registry) (*Server, error) {
	if name == "" {
		name = "mirrorbrain"
	}

	s := &Server{
		name:     name,
		registry: registry,
		mcp:      mcp.NewServer(&mcp.Implementation{Name: name, Version: serverVersion}, nil),
	}

	for _, desc := range registry.Descriptors() {
		schema, err := toSchema(desc.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", desc.Name, err)
		}
		toolName := desc.Name
		s.mcp.AddTool(&mcp.Tool{
			Name:        toolName,
			Description: desc.Description,
			InputSchema: schema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return s.invoke(ctx, toolName, req)
		})
	}

	return s, nil
}

// Run serves MCP over stdio until the context is cancelled or the host
// closes the pipe.
func (s *Server) Run(ctx context.Context) error {
	logger.InfoCF("mcpserver", "Serving MCP over stdio", map[string]any{
		"server": s.name,
		"tools":  s.registry.Count(),
	})
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) invoke(ctx context.Context, name string, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := map[string]any{}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
	}

	result := s.registry.Execute(ctx, name, args)
	if result.IsError {
		return errorResult(result.ForLLM), nil
	}

	text := result.ForLLM
	if result.Data != nil {
		if data, err := json.Marshal(result.Data); err == nil {
			text = fmt.Sprintf("%s\n%s", text, data)
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// toSchema converts a tool's JSON-shaped parameter description into the
// schema type the MCP SDK serves to hosts.
func toSchema(params map[string]any) (*jsonschema.Schema, error) {
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &schema, nil
}
