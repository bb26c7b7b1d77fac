package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/petasbytes/tool-agent/internal/config"
	"github.com/petasbytes/tool-agent/internal/executor"
	"github.com/petasbytes/tool-agent/internal/mcptool"
	"github.com/petasbytes/tool-agent/internal/planner"
	"github.com/petasbytes/tool-agent/internal/provider"
	"github.com/petasbytes/tool-agent/internal/runner"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/rs/zerolog/log"
)

// session holds what outlives a single run: the planner, the tools and an optional
// remote tool server.
type session struct {
	cfg     config.Config
	planner planner.Planner
	tools   *tools.Registry
	exec    *executor.Executor
	remote  *mcptool.Client
}

func openSession(ctx context.Context, cfg config.Config) (*session, error) {
	p, err := provider.New(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, planner: p, tools: tools.Default()}

	if command, args, ok := cfg.ToolServerCommand(); ok {
		remote, err := mcptool.Dial(ctx, command, args, nil)
		if err != nil {
			return nil, err
		}
		reg := tools.NewRegistry()
		names, err := mcptool.RegisterRemote(ctx, reg, remote)
		if err != nil {
			_ = remote.Close()
			return nil, err
		}
		log.Info().Strs("tools", names).Str("server", cfg.ToolServer).Msg("using remote tools")
		s.tools, s.remote = reg, remote
	}

	s.exec = executor.New(s.tools,
		executor.WithTimeout(cfg.ToolTimeout),
		executor.WithParallelism(cfg.ParallelTools),
	)
	return s, nil
}

func (s *session) Close() {
	if s.remote != nil {
		if err := s.remote.Close(); err != nil {
			log.Warn().Err(err).Msg("closing tool server")
		}
	}
}

// newLoop builds a fresh Loop for one user input. once selects the single-shot flow:
// one tool round trip, then an answer without tools.
func (s *session) newLoop(out io.Writer, once bool) *runner.Loop {
	opts := []runner.Option{
		runner.WithMaxIterations(s.cfg.MaxIterations),
		runner.WithSystemPrompt(s.cfg.SystemPrompt),
		runner.WithPlannerTimeout(s.cfg.PlannerTimeout),
		runner.WithExecutor(s.exec),
		runner.WithObserver(stepPrinter(out)),
	}
	if once {
		opts = append(opts, runner.WithMaxIterations(1), runner.WithFinalizeWithoutTools())
	}
	return runner.New(s.planner, s.tools, opts...)
}

func stepPrinter(w io.Writer) runner.Observer {
	return runner.Observer{
		OnPlan: func(_ int, out planner.Output) {
			if out.Final() {
				return
			}
			for _, r := range out.Requests {
				args, _ := json.Marshal(r.Arguments)
				fmt.Fprintf(w, "[Planner] %s(%s)\n", r.Name, args)
			}
		},
		OnOutcome: func(_ int, o executor.Outcome) {
			if o.Failed {
				fmt.Fprintf(w, "[Executor] %s failed: %s\n", o.ToolName, o.Text)
				return
			}
			fmt.Fprintf(w, "[Executor] %s -> %s\n", o.ToolName, o.Text)
		},
	}
}

// abortedError marks a run that ended Aborted; it has already been reported on stdout.
type abortedError struct {
	res runner.Result
}

func (e *abortedError) Error() string {
	if e.res.Err != nil {
		return fmt.Sprintf("run aborted: %s: %v", e.res.Reason, e.res.Err)
	}
	return fmt.Sprintf("run aborted: %s", e.res.Reason)
}

func report(w io.Writer, res runner.Result) error {
	if res.State == runner.StateAnswered {
		fmt.Fprintf(w, "Agent: %s\n", strings.TrimSpace(res.Answer))
		return nil
	}
	if res.Err != nil {
		fmt.Fprintf(w, "Aborted: %s (%v)\n", res.Reason, res.Err)
	} else {
		fmt.Fprintf(w, "Aborted: %s\n", res.Reason)
	}
	return &abortedError{res: res}
}
