package provider

import (
	"context"
	"encoding/json"

	"github.com/petasbytes/tool-agent/internal/planner"
	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const openaiName = "openai"

// OpenAIPlanner plans with the OpenAI chat completions API.
type OpenAIPlanner struct {
	Client      *openai.Client
	Model       string
	TokenBudget int
}

var _ planner.Planner = (*OpenAIPlanner)(nil)

func (p *OpenAIPlanner) Plan(ctx context.Context, turns []memory.Turn, specs []tools.ToolSpec) (planner.Output, error) {
	window, err := prepareWindow(ctx, openaiName, p.Model, turns, p.TokenBudget)
	if err != nil {
		return planner.Output{}, err
	}

	msgs, err := openaiMessages(window)
	if err != nil {
		return planner.Output{}, planner.Transport(openaiName, err)
	}
	req := openai.ChatCompletionRequest{
		Model:    p.Model,
		Messages: msgs,
	}
	if len(specs) > 0 {
		req.Tools = openaiTools(specs)
		req.ToolChoice = "auto"
	}

	log.Debug().Str("model", p.Model).Int("messages", len(msgs)).Int("tools", len(specs)).Msg("openai: sending request")
	resp, err := p.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return planner.Output{}, planner.Transport(openaiName, err)
	}
	if len(resp.Choices) == 0 {
		return planner.Output{}, planner.Transport(openaiName, errors.New("response has no choices"))
	}

	msg := resp.Choices[0].Message
	out := planner.Output{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		args, err := planner.DecodeArguments(tc.Function.Arguments)
		if err != nil {
			return planner.Output{}, planner.Transport(openaiName, errors.Wrapf(err, "tool call %s", tc.ID))
		}
		out.Requests = append(out.Requests, memory.ToolRequest{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	if err := planner.CheckRequests(out.Requests); err != nil {
		return planner.Output{}, planner.Transport(openaiName, err)
	}
	return out, nil
}

func openaiTools(specs []tools.ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		var params any = map[string]any{"type": "object", "properties": map[string]any{}}
		if s.Parameters != nil {
			params = s.Parameters
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// openaiMessages maps each turn to one chat message.
func openaiMessages(turns []memory.Turn) ([]openai.ChatCompletionMessage, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case memory.RoleSystem:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: t.Text})
		case memory.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Text})
		case memory.RoleAssistant:
			m := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Text}
			for _, r := range t.Requests {
				args := r.Arguments
				if args == nil {
					args = map[string]any{}
				}
				b, err := json.Marshal(args)
				if err != nil {
					return nil, errors.Wrapf(err, "encode arguments of %s", r.ID)
				}
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   r.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      r.Name,
						Arguments: string(b),
					},
				})
			}
			msgs = append(msgs, m)
		case memory.RoleTool:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    t.Text,
				Name:       t.ToolName,
				ToolCallID: t.ToolRequestID,
			})
		}
	}
	return msgs, nil
}
