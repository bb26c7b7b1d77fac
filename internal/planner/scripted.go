package planner

import (
	"context"
	"sync"

	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
)

// Step is one scripted planner response.
type Step struct {
	Output Output
	Err    error
}

// Scripted replays a fixed sequence of steps and records what it was asked.
// Once the script is exhausted the last step repeats.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
	calls []Call
}

// Call is what the planner saw on one invocation.
type Call struct {
	Turns []memory.Turn
	Specs []tools.ToolSpec
}

func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

func (s *Scripted) Plan(ctx context.Context, turns []memory.Turn, specs []tools.ToolSpec) (Output, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, Call{Turns: turns, Specs: specs})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if len(s.steps) == 0 {
		return Output{}, nil
	}
	if n >= len(s.steps) {
		n = len(s.steps) - 1
	}
	st := s.steps[n]
	return st.Output, st.Err
}

// Calls returns the recorded invocations.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
