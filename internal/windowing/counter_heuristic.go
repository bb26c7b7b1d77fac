package windowing

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/petasbytes/tool-agent/memory"
)

// TokenCounter estimates input-token cost for turns or groups.
type TokenCounter interface {
	CountTurn(t memory.Turn) int
	CountGroup(g Group, all []memory.Turn) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
//   - text: rune count of Turn.Text
//   - requests: rune count of the tool name plus its JSON-encoded arguments
//   - a fixed overhead per turn and per request
type HeuristicCounter struct{}

// Fixed per-item overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountTurn(t memory.Turn) int {
	total := utf8.RuneCountInString(t.Text) + blockOverhead
	for _, r := range t.Requests {
		total += utf8.RuneCountInString(r.Name) + blockOverhead
		if len(r.Arguments) > 0 {
			if b, err := json.Marshal(r.Arguments); err == nil {
				total += utf8.RuneCount(b)
			}
		}
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []memory.Turn) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountTurn(all[i])
	}
	return total
}
