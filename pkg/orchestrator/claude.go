package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/tools"
)

const systemPrompt = "You control an Android device through tools. " +
	"When the user asks for a device action, call the matching tool. " +
	"Otherwise answer briefly in plain text."

// ClaudePlanner asks Claude to pick the tool. Each input is planned in
// isolation; conversation memory is the REPL's concern, not the planner's.
type ClaudePlanner struct {
	client *anthropic.Client
	model  string
}

func NewClaudePlanner(cfg config.PlannerConfig) (*ClaudePlanner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude planner requires an API key")
	}

	opts := []option.RequestOption{option.WithAuthToken(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4.6"
	}
	return &ClaudePlanner{client: &client, model: model}, nil
}

func (p *ClaudePlanner) Decide(ctx context.Context, input string, available []tools.Descriptor) (*Decision, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
		},
		Tools: translateTools(available),
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var reply string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			reply += block.AsText().Text
		case "tool_use":
			tu := block.AsToolUse()
			var args map[string]any
			if err := json.Unmarshal(tu.Input, &args); err != nil {
				logger.WarnCF("orchestrator", "Undecodable tool input", map[string]any{
					"tool":  tu.Name,
					"error": err.Error(),
				})
				args = map[string]any{}
			}
			return &Decision{Call: &ToolCall{Name: tu.Name, Args: args}}, nil
		}
	}

	return &Decision{Reply: reply}, nil
}

func translateTools(descs []tools.Descriptor) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(descs))
	for _, d := range descs {
		tool := anthropic.ToolParam{
			Name: d.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: d.Parameters["properties"],
			},
		}
		if d.Description != "" {
			tool.Description = anthropic.String(d.Description)
		}
		if req, ok := d.Parameters["required"].([]string); ok {
			tool.InputSchema.Required = req
		}
		result = append(result, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return result
}
