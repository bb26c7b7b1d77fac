package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/petasbytes/tool-agent/internal/executor"
	"github.com/petasbytes/tool-agent/internal/planner"
	"github.com/petasbytes/tool-agent/internal/telemetry"
	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultMaxIterations bounds the Planning→Executing round trips of one run.
const DefaultMaxIterations = 5

var (
	// ErrLoopFinished is returned when Run is called on a Loop that already ran.
	ErrLoopFinished = errors.New("runner: loop already finished")
	ErrNilPlanner   = errors.New("runner: nil planner")
	ErrNilTools     = errors.New("runner: nil toolbox")
)

// Toolbox is the read-only view of a registry the loop needs. *tools.Registry implements it.
type Toolbox interface {
	executor.Resolver
	Specs() []tools.ToolSpec
}

// Observer receives progress callbacks. Nil fields are skipped.
type Observer struct {
	OnPlan    func(iteration int, out planner.Output)
	OnOutcome func(iteration int, out executor.Outcome)
}

// Result is the terminal output of a run.
type Result struct {
	RunID  string
	State  State
	Answer string
	Reason Reason
	// Err is the underlying cause of an abort, when there is one.
	Err       error
	Planning  int
	Executing int
	Turns     []memory.Turn
}

// Loop is a single-use agent run.
type Loop struct {
	planner        planner.Planner
	tools          Toolbox
	exec           *executor.Executor
	maxIterations  int
	systemPrompt   string
	plannerTimeout time.Duration
	finalize       bool
	observer       Observer

	mu        sync.Mutex
	started   bool
	state     State
	mem       *memory.Memory
	planning  int
	executing int
}

type Option func(*Loop)

// WithMaxIterations sets the round-trip bound. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n >= 1 {
			l.maxIterations = n
		}
	}
}

// WithSystemPrompt seeds memory with a System turn. Empty means no System turn.
func WithSystemPrompt(s string) Option {
	return func(l *Loop) { l.systemPrompt = s }
}

// WithPlannerTimeout bounds each planner call. Zero disables the bound.
func WithPlannerTimeout(d time.Duration) Option {
	return func(l *Loop) { l.plannerTimeout = d }
}

// WithExecutor replaces the default sequential executor over the toolbox.
func WithExecutor(e *executor.Executor) Option {
	return func(l *Loop) {
		if e != nil {
			l.exec = e
		}
	}
}

// WithFinalizeWithoutTools allows one more planning call after the last permitted
// Executing phase. That call advertises no tools, so the model has to answer in text.
func WithFinalizeWithoutTools() Option {
	return func(l *Loop) { l.finalize = true }
}

func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// New builds a Loop. Memory is created here and seeded with the system prompt.
func New(p planner.Planner, tb Toolbox, opts ...Option) *Loop {
	l := &Loop{
		planner:       p,
		tools:         tb,
		maxIterations: DefaultMaxIterations,
		mem:           memory.New(),
		state:         StateSeeded,
	}
	for _, o := range opts {
		o(l)
	}
	if l.exec == nil && tb != nil {
		l.exec = executor.New(tb)
	}
	if l.systemPrompt != "" {
		// Cannot fail on empty memory.
		_ = l.mem.Append(memory.System(l.systemPrompt))
	}
	return l
}

// State returns the current phase.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Turns returns a copy of the conversation so far.
func (l *Loop) Turns() []memory.Turn { return l.mem.Snapshot() }

// Run appends input as the User turn and drives the loop to a terminal state.
// The returned error is only for misuse; planner and tool failures are reported in Result.
func (l *Loop) Run(ctx context.Context, input string) (Result, error) {
	if l.planner == nil {
		return Result{}, ErrNilPlanner
	}
	if l.tools == nil {
		return Result{}, ErrNilTools
	}
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return Result{}, ErrLoopFinished
	}
	l.started = true
	l.mu.Unlock()

	runID := uuid.NewString()
	ctx = telemetry.WithRunID(ctx, runID)
	start := time.Now()
	telemetry.EmitInputFeatures(ctx, "run_started", input)
	log.Debug().Str("run_id", runID).Int("max_iterations", l.maxIterations).Msg("run started")

	finish := func(state State, answer string, reason Reason, err error) (Result, error) {
		l.setState(state)
		res := Result{
			RunID:     runID,
			State:     state,
			Answer:    answer,
			Reason:    reason,
			Err:       err,
			Planning:  l.planning,
			Executing: l.executing,
			Turns:     l.mem.Snapshot(),
		}
		fields := map[string]any{
			"run_id":      runID,
			"state":       state.String(),
			"reason":      reason.String(),
			"planning":    l.planning,
			"executing":   l.executing,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		telemetry.Emit("run_finished", fields)
		ev := log.Debug()
		if state == StateAborted {
			ev = log.Info().AnErr("cause", err)
		}
		ev.Str("run_id", runID).Str("state", state.String()).Str("reason", reason.String()).Msg("run finished")
		return res, nil
	}

	if err := l.mem.Append(memory.User(input)); err != nil {
		return finish(StateAborted, "", ReasonMemoryInvariant, err)
	}
	specs := l.tools.Specs()

	exceeded := func() (Result, error) {
		return finish(StateAborted, "", ReasonMaxIterationsExceeded,
			errors.Errorf("max iterations (%d) reached", l.maxIterations))
	}

	for {
		offered := specs
		if l.executing >= l.maxIterations {
			if !l.finalize {
				log.Warn().Int("max_iterations", l.maxIterations).Msg("max iterations reached")
				return exceeded()
			}
			offered = nil
		}

		l.setState(StatePlanning)
		l.planning++
		iteration := l.planning

		out, elapsed, err := l.plan(ctx, offered)
		telemetry.Emit("plan_step", map[string]any{
			"run_id":      runID,
			"iteration":   iteration,
			"tools":       len(offered),
			"requests":    len(out.Requests),
			"final":       err == nil && out.Final(),
			"failed":      err != nil,
			"duration_ms": elapsed.Milliseconds(),
		})
		if err != nil {
			if ctx.Err() != nil {
				return finish(StateAborted, "", ReasonCancelled, err)
			}
			return finish(StateAborted, "", ReasonPlannerUnavailable, err)
		}

		if err := l.mem.Append(out.Turn()); err != nil {
			return finish(StateAborted, "", ReasonMemoryInvariant, err)
		}
		log.Debug().Int("iteration", iteration).Int("requests", len(out.Requests)).Dur("duration", elapsed).Msg("planned")
		if l.observer.OnPlan != nil {
			l.observer.OnPlan(iteration, out)
		}

		if out.Final() {
			return finish(StateAnswered, out.Text, ReasonNone, nil)
		}
		if l.executing >= l.maxIterations {
			log.Warn().Int("max_iterations", l.maxIterations).Int("requests", len(out.Requests)).Msg("tool requests after the final planning call")
			return exceeded()
		}

		l.setState(StateExecuting)
		l.executing++
		for _, o := range l.exec.ExecuteBatch(ctx, out.Requests) {
			if err := l.mem.Append(o.Turn()); err != nil {
				return finish(StateAborted, "", ReasonMemoryInvariant, err)
			}
			if l.observer.OnOutcome != nil {
				l.observer.OnOutcome(l.executing, o)
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(StateAborted, "", ReasonCancelled, err)
		}
	}
}

// plan calls the planner on a memory snapshot under the planner timeout.
func (l *Loop) plan(ctx context.Context, specs []tools.ToolSpec) (planner.Output, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return planner.Output{}, 0, err
	}
	pctx := ctx
	if l.plannerTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, l.plannerTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := l.planner.Plan(pctx, l.mem.Snapshot(), specs)
	elapsed := time.Since(start)
	if err == nil {
		err = planner.CheckRequests(out.Requests)
	}
	if err != nil {
		return planner.Output{}, elapsed, planner.Transport("planner", err)
	}
	return out, elapsed, nil
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	from := l.state
	l.state = s
	if from != s {
		log.Trace().Str("from", from.String()).Str("to", s.String()).Msg("state")
	}
}
