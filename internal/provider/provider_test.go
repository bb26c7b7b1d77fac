package provider_test

import (
	"strings"
	"testing"

	"github.com/petasbytes/tool-agent/internal/config"
	"github.com/petasbytes/tool-agent/internal/planner"
	"github.com/petasbytes/tool-agent/internal/provider"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOpenAIKey = "sk-proj-abcdefghijklmnopqrstuvwxyz0123456789"

func requireConfigError(t *testing.T, err error, field string) {
	t.Helper()
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %v", err)
	assert.Equal(t, field, cfgErr.Field)
}

func TestCheckOpenAIKey(t *testing.T) {
	require.NoError(t, provider.CheckOpenAIKey(validOpenAIKey))
	require.NoError(t, provider.CheckOpenAIKey("sk-"+strings.Repeat("a", 32)))

	for _, bad := range []string{"", "your_api_key_here", "sk-short", "pk-" + strings.Repeat("a", 40), "sk-" + strings.Repeat("a", 31)} {
		requireConfigError(t, provider.CheckOpenAIKey(bad), provider.EnvOpenAIKey)
	}
}

func TestCheckAnthropicKey(t *testing.T) {
	require.NoError(t, provider.CheckAnthropicKey("anything"))
	requireConfigError(t, provider.CheckAnthropicKey(""), provider.EnvAnthropicKey)
}

func TestNew_SelectsPlanner(t *testing.T) {
	p, err := provider.New(config.Config{Provider: config.ProviderRules})
	require.NoError(t, err)
	assert.IsType(t, planner.Rules{}, p)

	t.Setenv(provider.EnvAnthropicKey, "test-key")
	p, err = provider.New(config.Config{Provider: config.ProviderAnthropic, Model: "claude-3-7-sonnet-latest", TokenBudget: 100})
	require.NoError(t, err)
	ap, ok := p.(*provider.AnthropicPlanner)
	require.True(t, ok)
	assert.Equal(t, 100, ap.TokenBudget)
	assert.EqualValues(t, provider.DefaultMaxTokens, ap.MaxTokens)

	t.Setenv(provider.EnvOpenAIKey, validOpenAIKey)
	p, err = provider.New(config.Config{Provider: config.ProviderOpenAI, Model: "gpt-4o"})
	require.NoError(t, err)
	assert.IsType(t, &provider.OpenAIPlanner{}, p)
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv(provider.EnvAnthropicKey, "")
	_, err := provider.New(config.Config{Provider: config.ProviderAnthropic})
	requireConfigError(t, err, provider.EnvAnthropicKey)

	t.Setenv(provider.EnvOpenAIKey, "your_api_key_here")
	_, err = provider.New(config.Config{Provider: config.ProviderOpenAI})
	requireConfigError(t, err, provider.EnvOpenAIKey)

	_, err = provider.New(config.Config{Provider: "other"})
	requireConfigError(t, err, config.KeyProvider)
}
