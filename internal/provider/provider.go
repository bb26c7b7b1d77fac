// Package provider implements planners backed by hosted language models and selects one
// from configuration.
package provider

import (
	"context"
	"os"
	"regexp"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/petasbytes/tool-agent/internal/config"
	"github.com/petasbytes/tool-agent/internal/planner"
	"github.com/petasbytes/tool-agent/internal/telemetry"
	"github.com/petasbytes/tool-agent/internal/windowing"
	"github.com/petasbytes/tool-agent/memory"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"

	// DefaultMaxTokens caps a single Anthropic completion.
	DefaultMaxTokens = 1024

	placeholderKey = "your_api_key_here"
)

var openAIKeyPattern = regexp.MustCompile(`^sk-(?:proj-)?[a-zA-Z0-9_-]{32,}$`)

// CheckAnthropicKey reports a ConfigurationError when key is empty.
func CheckAnthropicKey(key string) error {
	if key == "" {
		return &config.ConfigurationError{Field: EnvAnthropicKey, Reason: "not set"}
	}
	return nil
}

// CheckOpenAIKey reports a ConfigurationError when key is empty, still the placeholder,
// or not shaped like an OpenAI key.
func CheckOpenAIKey(key string) error {
	switch {
	case key == "":
		return &config.ConfigurationError{Field: EnvOpenAIKey, Reason: "not set"}
	case key == placeholderKey:
		return &config.ConfigurationError{Field: EnvOpenAIKey, Reason: "still set to the placeholder value"}
	case !openAIKeyPattern.MatchString(key):
		return &config.ConfigurationError{Field: EnvOpenAIKey, Reason: "does not look like an OpenAI API key"}
	}
	return nil
}

// New returns the planner selected by cfg.Provider. Credentials are read from the
// environment and checked before any client is built.
func New(cfg config.Config) (planner.Planner, error) {
	switch cfg.Provider {
	case config.ProviderRules:
		return planner.Rules{}, nil

	case config.ProviderAnthropic:
		key := os.Getenv(EnvAnthropicKey)
		if err := CheckAnthropicKey(key); err != nil {
			return nil, err
		}
		opts := []option.RequestOption{option.WithAPIKey(key)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		c := anthropic.NewClient(opts...)
		return &AnthropicPlanner{
			Client:      &c,
			Model:       anthropic.Model(cfg.Model),
			MaxTokens:   DefaultMaxTokens,
			TokenBudget: cfg.TokenBudget,
		}, nil

	case config.ProviderOpenAI:
		key := os.Getenv(EnvOpenAIKey)
		if err := CheckOpenAIKey(key); err != nil {
			return nil, err
		}
		oc := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		return &OpenAIPlanner{
			Client:      openai.NewClientWithConfig(oc),
			Model:       cfg.Model,
			TokenBudget: cfg.TokenBudget,
		}, nil
	}
	return nil, &config.ConfigurationError{Field: config.KeyProvider, Reason: "unknown provider " + cfg.Provider}
}

// prepareWindow trims turns to budget without splitting tool request/result groups.
// A budget of zero sends everything.
func prepareWindow(ctx context.Context, provider, model string, turns []memory.Turn, budget int) ([]memory.Turn, error) {
	if budget <= 0 {
		return turns, nil
	}
	window, stats := windowing.PrepareSendWindow(turns, budget, windowing.HeuristicCounter{})

	runID, _ := telemetry.RunIDFromContext(ctx)
	telemetry.Emit("window_prepared", map[string]any{
		"run_id":             runID,
		"provider":           provider,
		"model":              model,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})

	if stats.OverBudgetNewest {
		return nil, planner.Transport(provider, errors.Errorf("newest turn group exceeds token budget %d", budget))
	}
	return window, nil
}
