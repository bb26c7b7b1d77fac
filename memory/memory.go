package memory

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrOrphanToolResult    = errors.New("tool result without a matching open request")
	ErrDuplicateToolResult = errors.New("tool request already answered")
	ErrUnansweredRequests  = errors.New("previous assistant turn has unanswered tool requests")
	ErrDuplicateRequestID  = errors.New("duplicate tool request id in assistant turn")
)

// Memory is the ordered conversation log of one run.
type Memory struct {
	turns []Turn
	// open tracks the requests of the most recent assistant turn: false until answered.
	open map[string]bool
}

func New() *Memory {
	return &Memory{}
}

// Append adds t at the end of the log after checking the request/result pairing.
func (m *Memory) Append(t Turn) error {
	switch t.Role {
	case RoleTool:
		answered, ok := m.open[t.ToolRequestID]
		if !ok {
			return errors.Wrapf(ErrOrphanToolResult, "tool_request_id=%q", t.ToolRequestID)
		}
		if answered {
			return errors.Wrapf(ErrDuplicateToolResult, "tool_request_id=%q", t.ToolRequestID)
		}
		m.open[t.ToolRequestID] = true
	case RoleSystem, RoleUser, RoleAssistant:
		if n := m.pending(); n > 0 {
			return errors.Wrapf(ErrUnansweredRequests, "%d pending", n)
		}
		var open map[string]bool
		if t.Role == RoleAssistant && len(t.Requests) > 0 {
			open = make(map[string]bool, len(t.Requests))
			for _, r := range t.Requests {
				if _, dup := open[r.ID]; dup {
					return errors.Wrapf(ErrDuplicateRequestID, "id=%q", r.ID)
				}
				open[r.ID] = false
			}
		}
		m.open = open
	default:
		return fmt.Errorf("unknown role %q", t.Role)
	}
	m.turns = append(m.turns, t.clone())
	return nil
}

// Snapshot returns a copy of all turns in arrival order.
func (m *Memory) Snapshot() []Turn {
	out := make([]Turn, len(m.turns))
	for i, t := range m.turns {
		out[i] = t.clone()
	}
	return out
}

func (m *Memory) Len() int { return len(m.turns) }

// Last returns the most recent turn.
func (m *Memory) Last() (Turn, bool) {
	if len(m.turns) == 0 {
		return Turn{}, false
	}
	return m.turns[len(m.turns)-1].clone(), true
}

// OpenRequests returns the IDs of the most recent assistant turn's requests that
// have no result yet, in emission order.
func (m *Memory) OpenRequests() []string {
	if len(m.open) == 0 {
		return nil
	}
	var ids []string
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Role != RoleAssistant {
			continue
		}
		for _, r := range m.turns[i].Requests {
			if !m.open[r.ID] {
				ids = append(ids, r.ID)
			}
		}
		break
	}
	return ids
}

func (m *Memory) pending() int {
	n := 0
	for _, answered := range m.open {
		if !answered {
			n++
		}
	}
	return n
}
