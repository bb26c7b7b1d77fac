package main

import (
	"io"
	"strings"

	"github.com/petasbytes/tool-agent/internal/config"
	"github.com/petasbytes/tool-agent/internal/telemetry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

type app struct {
	v         *viper.Viper
	cfgFile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "agent",
		Short:         "A tool-calling agent that plans with a language model and runs calculator tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(cmd.ErrOrStderr(), a.logLevel, a.logFormat); err != nil {
				return err
			}
			if err := config.ReadConfigFile(a.v, a.cfgFile); err != nil {
				return err
			}
			log.Debug().Str("config", a.v.ConfigFileUsed()).Msg("loaded configuration")
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./agent.yaml or $HOME/.config/tool-agent/agent.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	pf.String(config.KeyProvider, config.ProviderOpenAI, "planner provider: anthropic, openai or rules")
	pf.String(config.KeyModel, "", "model name (provider default when empty)")
	pf.Int(config.KeyMaxIterations, config.DefaultMaxIterations, "maximum planning/executing round trips")
	pf.Duration(config.KeyPlannerTimeout, config.DefaultPlannerTimeout, "timeout of one planner call (0 disables)")
	pf.Duration(config.KeyToolTimeout, config.DefaultToolTimeout, "timeout of one tool call (0 disables)")
	pf.Int(config.KeyParallelTools, 1, "tool calls of one step run concurrently")
	pf.Int(config.KeyTokenBudget, 0, "input token budget for the planner window (0 sends everything)")
	pf.String(config.KeySystemPrompt, config.DefaultSystemPrompt, "system prompt")
	pf.String(config.KeyToolServer, "", "command line of a stdio tool server to use instead of local tools")
	pf.String(config.KeyTranscript, "", "write the conversation to this JSON or YAML file")
	pf.String(config.KeyBaseURL, "", "provider base URL override")
	pf.String(config.KeyArtifactsDir, ".agent", "telemetry output directory")
	pf.Bool(config.KeyObserve, false, "write JSONL telemetry events")

	for _, key := range []string{
		config.KeyProvider, config.KeyModel, config.KeyMaxIterations, config.KeyPlannerTimeout,
		config.KeyToolTimeout, config.KeyParallelTools, config.KeyTokenBudget, config.KeySystemPrompt,
		config.KeyToolServer, config.KeyTranscript, config.KeyBaseURL, config.KeyArtifactsDir, config.KeyObserve,
	} {
		cobra.CheckErr(a.v.BindPFlag(key, pf.Lookup(key)))
	}

	root.AddCommand(
		newRunCmd(a),
		newOnceCmd(a),
		newChatCmd(a),
		newToolServerCmd(),
	)
	return root
}

// loadConfig validates the merged configuration and applies its telemetry settings.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.v)
	if err != nil {
		return config.Config{}, err
	}
	telemetry.Configure(telemetry.Settings{Observe: cfg.Observe, Dir: cfg.ArtifactsDir})
	return cfg, nil
}

func initLogger(w io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return errors.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)

	switch format {
	case "text":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	case "json":
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	default:
		return errors.Errorf("invalid log format %q (want text or json)", format)
	}
	return nil
}
