package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/petasbytes/tool-agent/internal/planner"
	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const anthropicName = "anthropic"

// AnthropicPlanner plans with the Anthropic Messages API.
type AnthropicPlanner struct {
	Client      *anthropic.Client
	Model       anthropic.Model
	MaxTokens   int64
	TokenBudget int
}

var _ planner.Planner = (*AnthropicPlanner)(nil)

func (p *AnthropicPlanner) Plan(ctx context.Context, turns []memory.Turn, specs []tools.ToolSpec) (planner.Output, error) {
	window, err := prepareWindow(ctx, anthropicName, string(p.Model), turns, p.TokenBudget)
	if err != nil {
		return planner.Output{}, err
	}

	system, msgs := anthropicMessages(window)
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     p.Model,
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	// No specs means the model must answer in text.
	if len(specs) > 0 {
		params.Tools = anthropicTools(specs)
	}

	log.Debug().Str("model", string(p.Model)).Int("messages", len(msgs)).Int("tools", len(specs)).Msg("anthropic: sending request")
	msg, err := p.Client.Messages.New(ctx, params)
	if err != nil {
		return planner.Output{}, planner.Transport(anthropicName, err)
	}

	var (
		texts []string
		out   planner.Output
	)
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				texts = append(texts, v.Text)
			}
		case anthropic.ToolUseBlock:
			args, err := planner.DecodeArguments(v.JSON.Input.Raw())
			if err != nil {
				return planner.Output{}, planner.Transport(anthropicName, errors.Wrapf(err, "tool_use %s", v.ID))
			}
			out.Requests = append(out.Requests, memory.ToolRequest{ID: v.ID, Name: v.Name, Arguments: args})
		}
	}
	out.Text = strings.Join(texts, "\n")
	if err := planner.CheckRequests(out.Requests); err != nil {
		return planner.Output{}, planner.Transport(anthropicName, err)
	}
	return out, nil
}

func anthropicTools(specs []tools.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		schema := anthropic.ToolInputSchemaParam{Properties: map[string]any{}}
		if s.Parameters != nil {
			if s.Parameters.Properties != nil {
				schema.Properties = s.Parameters.Properties
			}
			schema.Required = s.Parameters.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// anthropicMessages maps turns onto the Messages API. System turns become the system
// prompt and consecutive tool results share one user message.
func anthropicMessages(turns []memory.Turn) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var (
		system  []anthropic.TextBlockParam
		msgs    []anthropic.MessageParam
		results []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			msgs = append(msgs, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, t := range turns {
		if t.Role != memory.RoleTool {
			flush()
		}
		switch t.Role {
		case memory.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: t.Text})
		case memory.RoleUser:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		case memory.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(t.Requests)+1)
			if t.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Text))
			}
			for _, r := range t.Requests {
				input := r.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    r.ID,
					Name:  r.Name,
					Input: input,
				}})
			}
			if len(blocks) == 0 {
				continue
			}
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		case memory.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(t.ToolRequestID, t.Text, t.IsError))
		}
	}
	flush()
	return system, msgs
}
