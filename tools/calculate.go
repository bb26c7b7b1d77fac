package tools

import (
	"context"
	"strings"

	"github.com/petasbytes/tool-agent/internal/calc"
	"github.com/rs/zerolog/log"
)

type CalculateInput struct {
	Expression string `json:"expression" jsonschema_description:"Arithmetic expression to evaluate, e.g. '3 + 5'. Numbers, + - * / and parentheses only."`
}

var CalculateDefinition = MustFunc(
	"calculate",
	"Evaluate an arithmetic expression and return the numeric result.",
	Calculate,
)

// Calculate evaluates the expression with the restricted calc grammar.
func Calculate(_ context.Context, in CalculateInput) (string, error) {
	expr := strings.TrimSpace(in.Expression)
	log.Debug().Str("expression", expr).Msg("calculate")
	v, err := calc.Eval(expr)
	if err != nil {
		return "", ToolError{Code: CodeEval, Message: err.Error()}
	}
	return calc.Format(v), nil
}
