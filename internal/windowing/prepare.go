package windowing

import (
	"github.com/petasbytes/tool-agent/memory"
	"github.com/rs/zerolog/log"
)

// Stats summarizes the result of window preparation.
//
// Fields:
//   - Total: estimated tokens for the pinned system turn and included groups.
//   - Budget: the input token budget used.
//   - IncludedGroups: number of groups included (the pinned system turn is not a group).
//   - SkippedGroups: total groups minus IncludedGroups.
//   - OverBudgetNewest: true when the newest group does not fit next to the system turn.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the turns (oldest→newest) that fit within budget using the
// TokenCounter, without splitting groups.
//
// Rules:
//   - A leading system turn is always kept and counted first.
//   - Whole groups are included scanning newest→oldest while total ≤ budget.
//   - If the newest group does not fit, return an empty window and set OverBudgetNewest.
//   - If budget ≤ 0, return an empty window (OverBudgetNewest set when any turns exist).
func PrepareSendWindow(turns []memory.Turn, budget int, c TokenCounter) ([]memory.Turn, Stats) {
	if len(turns) == 0 {
		return nil, Stats{Budget: budget}
	}

	var pinned []memory.Turn
	rest := turns
	if turns[0].Role == memory.RoleSystem {
		pinned, rest = turns[:1], turns[1:]
	}
	groups := GroupTurns(rest)

	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	total := 0
	for _, t := range pinned {
		total += c.CountTurn(t)
	}

	included := 0
	startIdx := len(groups)
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], rest)
		if included == 0 && total+cost > budget {
			log.Debug().Int("budget", budget).Int("cost", cost).Int("pinned", total).Msg("windowing: newest group over budget")
			return nil, Stats{
				Budget:           budget,
				SkippedGroups:    len(groups),
				OverBudgetNewest: true,
			}
		}
		if total+cost > budget {
			break
		}
		total += cost
		included++
		startIdx = gi
	}

	window := make([]memory.Turn, 0, len(pinned)+len(rest))
	window = append(window, pinned...)
	if included > 0 {
		window = append(window, rest[groups[startIdx].Start:]...)
	}
	return window, Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}
