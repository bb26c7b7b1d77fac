package memory

// Role tags a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolRequest is a tool invocation emitted by the planner.
type ToolRequest struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Arguments map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// Turn is one entry of the conversation.
//
// Requests is only set on assistant turns. ToolRequestID and ToolName are only
// set on tool turns and link the result back to the request it answers.
type Turn struct {
	Role          Role          `json:"role" yaml:"role"`
	Text          string        `json:"text,omitempty" yaml:"text,omitempty"`
	Requests      []ToolRequest `json:"requests,omitempty" yaml:"requests,omitempty"`
	ToolRequestID string        `json:"tool_request_id,omitempty" yaml:"tool_request_id,omitempty"`
	ToolName      string        `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
	IsError       bool          `json:"is_error,omitempty" yaml:"is_error,omitempty"`
}

func System(text string) Turn { return Turn{Role: RoleSystem, Text: text} }

func User(text string) Turn { return Turn{Role: RoleUser, Text: text} }

// Assistant builds an assistant turn. Text may be empty when the turn only
// carries requests.
func Assistant(text string, reqs ...ToolRequest) Turn {
	t := Turn{Role: RoleAssistant, Text: text}
	if len(reqs) > 0 {
		t.Requests = append([]ToolRequest(nil), reqs...)
	}
	return t
}

// ToolResult builds the tool turn answering request id.
func ToolResult(id, name, text string, isError bool) Turn {
	return Turn{Role: RoleTool, Text: text, ToolRequestID: id, ToolName: name, IsError: isError}
}

// HasRequests reports whether t is an assistant turn carrying tool requests.
func (t Turn) HasRequests() bool {
	return t.Role == RoleAssistant && len(t.Requests) > 0
}

func (t Turn) clone() Turn {
	if len(t.Requests) == 0 {
		return t
	}
	reqs := make([]ToolRequest, len(t.Requests))
	for i, r := range t.Requests {
		reqs[i] = r
		if r.Arguments != nil {
			reqs[i].Arguments = cloneMap(r.Arguments)
		}
	}
	t.Requests = reqs
	return t
}

// cloneMap deep-copies the JSON-shaped values that decoded arguments hold.
func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
