package tools_test

import (
	"context"
	"testing"

	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultToolNames(t *testing.T) {
	reg := tools.Default()
	assert.Equal(t, []string{"add", "calculate"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	specs := reg.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "add", specs[0].Name)
	assert.Equal(t, "calculate", specs[1].Name)
	for _, s := range specs {
		assert.NotEmpty(t, s.Description)
		require.NotNil(t, s.Parameters)
		assert.Equal(t, "object", s.Parameters.Type)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(tools.CalculateDefinition))

	err := reg.Register(tools.CalculateDefinition)
	var dup *tools.DuplicateToolError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "calculate", dup.Name)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_EmptyNameRejected(t *testing.T) {
	reg := tools.NewRegistry()
	err := reg.Register(tools.Bind(tools.ToolSpec{}, func(context.Context, map[string]any) (string, error) {
		return "", nil
	}))
	assert.Error(t, err)
	assert.Error(t, reg.Register(nil))
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := tools.Default()
	_, err := reg.Resolve("unknown_tool")
	var unknown *tools.UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "unknown_tool", unknown.Name)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestRegistry_ResolveIsStable(t *testing.T) {
	reg := tools.Default()
	first, err := reg.Resolve("calculate")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := reg.Resolve("calculate")
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		tools.NewRegistry().MustRegister(tools.AddDefinition, tools.AddDefinition)
	})
}
