// Package planner defines the boundary between the agent loop and the external
// reasoning provider.
//
// A Planner reads the conversation and the advertised tool specs and returns
// either final text or one or more tool requests. It never writes to memory;
// the loop records its output.
package planner

import (
	"context"
	"fmt"

	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
)

// Output is the result of one planning step.
type Output struct {
	Text     string
	Requests []memory.ToolRequest
}

// Final reports whether the output ends the run.
func (o Output) Final() bool { return len(o.Requests) == 0 }

// Turn converts the output into the assistant turn the loop appends.
func (o Output) Turn() memory.Turn {
	return memory.Assistant(o.Text, o.Requests...)
}

type Planner interface {
	Plan(ctx context.Context, turns []memory.Turn, specs []tools.ToolSpec) (Output, error)
}

// Func adapts a function to Planner.
type Func func(ctx context.Context, turns []memory.Turn, specs []tools.ToolSpec) (Output, error)

func (f Func) Plan(ctx context.Context, turns []memory.Turn, specs []tools.ToolSpec) (Output, error) {
	return f(ctx, turns, specs)
}

// TransportError wraps any failure of the external model call.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("planner %s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError unless it already is one.
func Transport(provider string, err error) error {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TransportError); ok {
		return te
	}
	return &TransportError{Provider: provider, Err: err}
}

// CheckRequests rejects provider output with missing or repeated request IDs.
func CheckRequests(reqs []memory.ToolRequest) error {
	seen := make(map[string]struct{}, len(reqs))
	for i, r := range reqs {
		if r.ID == "" {
			return fmt.Errorf("tool request %d (%s) has no id", i, r.Name)
		}
		if r.Name == "" {
			return fmt.Errorf("tool request %s has no tool name", r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("duplicate tool request id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
