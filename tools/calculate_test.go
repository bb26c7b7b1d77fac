package tools_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_Happy(t *testing.T) {
	out, err := tools.CalculateDefinition.Execute(context.Background(), map[string]any{"expression": "3 + 5"})
	require.NoError(t, err)
	assert.Equal(t, "8", out)

	out, err = tools.CalculateDefinition.Execute(context.Background(), map[string]any{"expression": "(1 + 2) / 4"})
	require.NoError(t, err)
	assert.Equal(t, "0.75", out)
}

func TestCalculate_DivisionByZero_ToolError(t *testing.T) {
	_, err := tools.CalculateDefinition.Execute(context.Background(), map[string]any{"expression": "1/0"})
	require.Error(t, err)

	var te tools.ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, tools.CodeEval, te.Code)
	assert.Contains(t, te.Message, "division by zero")

	// The error text is compact JSON so it can be fed back to the planner verbatim.
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(err.Error()), &body))
	assert.Equal(t, tools.CodeEval, body["code"])
}

func TestCalculate_RejectsCode(t *testing.T) {
	_, err := tools.CalculateDefinition.Execute(context.Background(), map[string]any{"expression": "__import__('os').system('ls')"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), tools.CodeEval)
}

func TestCalculate_MissingExpression_InvalidArgs(t *testing.T) {
	_, err := tools.CalculateDefinition.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), tools.CodeInvalidArgs)
	assert.Contains(t, err.Error(), "expression")
}

func TestCalculate_WrongType_InvalidArgs(t *testing.T) {
	_, err := tools.CalculateDefinition.Execute(context.Background(), map[string]any{"expression": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), tools.CodeInvalidArgs)
}

func TestCalculate_ExtraArgument_InvalidArgs(t *testing.T) {
	_, err := tools.CalculateDefinition.Execute(context.Background(), map[string]any{"expression": "1", "x": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), tools.CodeInvalidArgs)
}

func TestAdd(t *testing.T) {
	out, err := tools.AddDefinition.Execute(context.Background(), map[string]any{"a": 3.0, "b": 5.0})
	require.NoError(t, err)
	assert.Equal(t, "8", out)

	out, err = tools.AddDefinition.Execute(context.Background(), map[string]any{"a": 0.5, "b": 0.25})
	require.NoError(t, err)
	assert.Equal(t, "0.75", out)

	_, err = tools.AddDefinition.Execute(context.Background(), map[string]any{"a": "three", "b": 5})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), tools.CodeInvalidArgs))
}

func TestGenerateSchema_RequiredFromJSONTags(t *testing.T) {
	type in struct {
		Name  string `json:"name"`
		Limit int    `json:"limit,omitempty"`
	}
	s := tools.GenerateSchema[in]()
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"name"}, s.Required)
	assert.Empty(t, s.Version)
	_, ok := s.Properties.Get("limit")
	assert.True(t, ok)
}

func TestBind_PassesArgumentsThrough(t *testing.T) {
	var got map[string]any
	tool := tools.Bind(tools.ToolSpec{Name: "echo"}, func(_ context.Context, args map[string]any) (string, error) {
		got = args
		return "ok", nil
	})
	out, err := tool.Execute(context.Background(), map[string]any{"anything": []any{1.0, "x"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []any{1.0, "x"}, got["anything"])
}
