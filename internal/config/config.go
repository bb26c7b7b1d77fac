// Package config loads agent settings from flags, environment (AGENT_*) and an optional
// config file, and validates them before any loop is built.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Keys shared by flags, environment variables and config files.
const (
	KeyProvider       = "provider"
	KeyModel          = "model"
	KeyMaxIterations  = "max-iterations"
	KeyPlannerTimeout = "planner-timeout"
	KeyToolTimeout    = "tool-timeout"
	KeyParallelTools  = "parallel-tools"
	KeyTokenBudget    = "token-budget"
	KeySystemPrompt   = "system-prompt"
	KeyToolServer     = "tool-server"
	KeyTranscript     = "transcript"
	KeyBaseURL        = "base-url"
	KeyArtifactsDir   = "artifacts-dir"
	KeyObserve        = "observe"
)

// Providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderRules     = "rules"
)

const (
	EnvPrefix = "AGENT"

	DefaultMaxIterations  = 5
	DefaultPlannerTimeout = 60 * time.Second
	DefaultToolTimeout    = 10 * time.Second
	DefaultSystemPrompt   = "You are a calculator agent. Use the provided tools for any arithmetic, then answer briefly with the result."
)

// Config is the validated runtime configuration.
type Config struct {
	Provider       string
	Model          string
	MaxIterations  int
	PlannerTimeout time.Duration
	ToolTimeout    time.Duration
	ParallelTools  int
	TokenBudget    int
	SystemPrompt   string
	ToolServer     string
	Transcript     string
	BaseURL        string
	ArtifactsDir   string
	Observe        bool
}

// ConfigurationError reports an invalid or missing setting. It is fatal and raised before
// any iteration runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewViper returns a viper instance with defaults and AGENT_* environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProvider, ProviderOpenAI)
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyMaxIterations, DefaultMaxIterations)
	v.SetDefault(KeyPlannerTimeout, DefaultPlannerTimeout)
	v.SetDefault(KeyToolTimeout, DefaultToolTimeout)
	v.SetDefault(KeyParallelTools, 1)
	v.SetDefault(KeyTokenBudget, 0)
	v.SetDefault(KeySystemPrompt, DefaultSystemPrompt)
	v.SetDefault(KeyToolServer, "")
	v.SetDefault(KeyTranscript, "")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyArtifactsDir, ".agent")
	v.SetDefault(KeyObserve, false)
}

// ReadConfigFile reads path when set, else looks for agent.yaml in the working directory and
// in $HOME/.config/tool-agent. A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
		return nil
	}
	v.SetConfigName("agent")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "tool-agent"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	return nil
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Provider:       strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
		Model:          v.GetString(KeyModel),
		MaxIterations:  v.GetInt(KeyMaxIterations),
		PlannerTimeout: v.GetDuration(KeyPlannerTimeout),
		ToolTimeout:    v.GetDuration(KeyToolTimeout),
		ParallelTools:  v.GetInt(KeyParallelTools),
		TokenBudget:    v.GetInt(KeyTokenBudget),
		SystemPrompt:   v.GetString(KeySystemPrompt),
		ToolServer:     strings.TrimSpace(v.GetString(KeyToolServer)),
		Transcript:     v.GetString(KeyTranscript),
		BaseURL:        v.GetString(KeyBaseURL),
		ArtifactsDir:   v.GetString(KeyArtifactsDir),
		Observe:        v.GetBool(KeyObserve),
	}
	if c.Model == "" {
		c.Model = DefaultModel(c.Provider)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-3-7-sonnet-latest"
	case ProviderOpenAI:
		return "gpt-4o"
	default:
		return ""
	}
}

// Validate checks ranges and enumerations. Credentials are checked by the provider package.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderRules:
	default:
		return &ConfigurationError{Field: KeyProvider, Reason: fmt.Sprintf("unknown provider %q (want anthropic, openai or rules)", c.Provider)}
	}
	if c.MaxIterations < 1 {
		return &ConfigurationError{Field: KeyMaxIterations, Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxIterations)}
	}
	if c.PlannerTimeout < 0 {
		return &ConfigurationError{Field: KeyPlannerTimeout, Reason: "must not be negative"}
	}
	if c.ToolTimeout < 0 {
		return &ConfigurationError{Field: KeyToolTimeout, Reason: "must not be negative"}
	}
	if c.ParallelTools < 1 {
		return &ConfigurationError{Field: KeyParallelTools, Reason: fmt.Sprintf("must be at least 1, got %d", c.ParallelTools)}
	}
	if c.TokenBudget < 0 {
		return &ConfigurationError{Field: KeyTokenBudget, Reason: "must not be negative"}
	}
	return nil
}

// ToolServerCommand splits the tool-server setting into a command and its arguments.
func (c Config) ToolServerCommand() (string, []string, bool) {
	fields := strings.Fields(c.ToolServer)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}
