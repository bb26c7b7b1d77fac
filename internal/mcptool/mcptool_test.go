package mcptool_test

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/petasbytes/tool-agent/internal/executor"
	"github.com/petasbytes/tool-agent/internal/mcptool"
	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, reg mcptool.Registry) *mcptool.Client {
	t.Helper()
	ctx := context.Background()
	srv, err := mcptool.NewServer("test-tools", "0.0.1", reg)
	require.NoError(t, err)
	mc, err := client.NewInProcessClient(srv)
	require.NoError(t, err)
	require.NoError(t, mc.Start(ctx))
	c, err := mcptool.NewClient(ctx, mc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestListTools(t *testing.T) {
	c := connect(t, tools.Default())

	specs, err := c.ListTools(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
		require.NotNil(t, s.Parameters)
		assert.Equal(t, "object", s.Parameters.Type)
	}
	assert.ElementsMatch(t, []string{"add", "calculate"}, names)
}

func TestCallTool_Success(t *testing.T) {
	c := connect(t, tools.Default())

	text, err := c.CallTool(context.Background(), "add", map[string]any{"a": 3, "b": 5})
	require.NoError(t, err)
	assert.Equal(t, "8", text)
}

func TestCallTool_ToolFailureIsRemoteToolError(t *testing.T) {
	c := connect(t, tools.Default())

	_, err := c.CallTool(context.Background(), "calculate", map[string]any{"expression": "1/0"})

	var te tools.ToolError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, tools.CodeRemote, te.Code)
	assert.Equal(t, "division by zero", te.Message)
}

func TestCallTool_UnknownTool(t *testing.T) {
	c := connect(t, tools.Default())

	_, err := c.CallTool(context.Background(), "nope", nil)
	require.Error(t, err)
}

func TestRegisterRemote_ExecutesThroughExecutor(t *testing.T) {
	c := connect(t, tools.Default())
	reg := tools.NewRegistry()

	names, err := mcptool.RegisterRemote(context.Background(), reg, c)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"add", "calculate"}, names)
	assert.Equal(t, 2, reg.Len())

	e := executor.New(reg)
	out := e.Execute(context.Background(), memory.ToolRequest{ID: "1", Name: "calculate", Arguments: map[string]any{"expression": "(1 + 2) * 4"}})
	assert.False(t, out.Failed)
	assert.Equal(t, "12", out.Text)

	out = e.Execute(context.Background(), memory.ToolRequest{ID: "2", Name: "calculate", Arguments: map[string]any{"expression": "2 +"}})
	assert.True(t, out.Failed)
	assert.Equal(t, tools.CodeRemote, out.Code)
}

func TestRegisterRemote_DuplicateWithLocal(t *testing.T) {
	c := connect(t, tools.Default())

	_, err := mcptool.RegisterRemote(context.Background(), tools.Default(), c)

	var dup *tools.DuplicateToolError
	require.True(t, errors.As(err, &dup), "got %v", err)
}

func TestServer_PlainErrorMessage(t *testing.T) {
	failing := tools.Bind(tools.ToolSpec{Name: "fail", Description: "always fails"}, func(context.Context, map[string]any) (string, error) {
		return "", errors.New("nope")
	})
	c := connect(t, tools.NewRegistry().MustRegister(failing))

	_, err := c.CallTool(context.Background(), "fail", map[string]any{})

	var te tools.ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "nope", te.Message)
}
