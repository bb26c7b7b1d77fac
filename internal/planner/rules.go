package planner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
)

var numberPattern = regexp.MustCompile(`\d+`)

// Rules is an offline planner for the add capability: it pulls the first two
// integers out of the latest user turn, requests add(a, b) and answers with
// the tool result. It needs no credentials and is useful against a remote
// tool server.
type Rules struct {
	// Tool is the tool to request; defaults to "add".
	Tool string
}

func (r Rules) toolName() string {
	if r.Tool == "" {
		return "add"
	}
	return r.Tool
}

func (r Rules) Plan(ctx context.Context, turns []memory.Turn, specs []tools.ToolSpec) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	// Answer from the results of our own request, if the last step was one.
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role == memory.RoleTool {
			if t.IsError {
				return Output{Text: fmt.Sprintf("The calculation failed: %s", t.Text)}, nil
			}
			return Output{Text: fmt.Sprintf("The result is %s.", t.Text)}, nil
		}
		if t.Role == memory.RoleUser {
			break
		}
	}

	var user string
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == memory.RoleUser {
			user = turns[i].Text
			break
		}
	}
	nums := numberPattern.FindAllString(user, -1)
	if len(nums) < 2 {
		return Output{Text: "Please give me two numbers (for example: 3 + 5)."}, nil
	}
	if !advertised(specs, r.toolName()) {
		return Output{Text: fmt.Sprintf("The %s tool is not available.", r.toolName())}, nil
	}

	a, err := strconv.ParseFloat(nums[0], 64)
	if err != nil {
		return Output{}, err
	}
	b, err := strconv.ParseFloat(nums[1], 64)
	if err != nil {
		return Output{}, err
	}
	return Output{Requests: []memory.ToolRequest{{
		ID:        "call_" + uuid.NewString(),
		Name:      r.toolName(),
		Arguments: map[string]any{"a": a, "b": b},
	}}}, nil
}

func advertised(specs []tools.ToolSpec, name string) bool {
	for _, s := range specs {
		if s.Name == name {
			return true
		}
	}
	return false
}
