package tools

import (
	"context"

	"github.com/petasbytes/tool-agent/internal/calc"
)

type AddInput struct {
	A float64 `json:"a" jsonschema_description:"First addend."`
	B float64 `json:"b" jsonschema_description:"Second addend."`
}

var AddDefinition = MustFunc("add", "Add two numbers.", Add)

func Add(_ context.Context, in AddInput) (string, error) {
	return calc.Format(in.A + in.B), nil
}
