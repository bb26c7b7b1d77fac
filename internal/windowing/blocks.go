package windowing

import (
	"github.com/petasbytes/tool-agent/memory"
	"github.com/rs/zerolog/log"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	// GroupPair is an assistant turn with requests plus the tool turns answering all of them.
	GroupPair
	// GroupPartial is an assistant turn whose requests were not all answered
	// (a run aborted mid-batch), plus whatever results follow it.
	GroupPartial
)

func (k GroupKind) String() string {
	switch k {
	case GroupPair:
		return "pair"
	case GroupPartial:
		return "partial"
	default:
		return "singleton"
	}
}

// Group describes a contiguous span of turns [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into turns
	End   int // exclusive index into turns
}

// GroupTurns groups turns into atomic units that never separate a request from its result.
// Invariants:
//   - A pair is an assistant turn with requests followed by exactly one tool turn per request.
//   - Tool turns are only ever included together with the assistant turn they answer.
//   - A tool turn with no preceding assistant request is a singleton; callers should never
//     produce one (memory rejects it).
func GroupTurns(turns []memory.Turn) []Group {
	groups := make([]Group, 0, len(turns))
	for i := 0; i < len(turns); {
		t := turns[i]
		if !t.HasRequests() {
			if t.Role == memory.RoleTool {
				log.Debug().Int("idx", i).Str("tool_request_id", t.ToolRequestID).Msg("windowing: orphan tool turn")
			}
			groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
			i++
			continue
		}

		want := make(map[string]struct{}, len(t.Requests))
		for _, r := range t.Requests {
			want[r.ID] = struct{}{}
		}
		end := i + 1
		for end < len(turns) && turns[end].Role == memory.RoleTool {
			delete(want, turns[end].ToolRequestID)
			end++
		}
		kind := GroupPair
		if len(want) > 0 {
			kind = GroupPartial
			log.Debug().Int("idx", i).Int("missing_results", len(want)).Msg("windowing: partial pair")
		}
		groups = append(groups, Group{Kind: kind, Start: i, End: end})
		i = end
	}
	return groups
}
