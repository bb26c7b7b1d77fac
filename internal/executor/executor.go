// Package executor resolves tool requests against a registry and runs them, folding every
// kind of failure into an Outcome so the agent loop never sees an error from a tool.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/petasbytes/tool-agent/internal/telemetry"
	"github.com/petasbytes/tool-agent/memory"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Resolver looks tools up by name. *tools.Registry implements it.
type Resolver interface {
	Resolve(name string) (tools.Tool, error)
}

// Outcome is the result of one tool request.
type Outcome struct {
	RequestID string
	ToolName  string
	Text      string
	Failed    bool
	// Code is a tools.Code* value for failures, empty on success.
	Code     string
	Duration time.Duration
}

// Success builds a successful outcome for req.
func Success(req memory.ToolRequest, text string) Outcome {
	return Outcome{RequestID: req.ID, ToolName: req.Name, Text: text}
}

// Failure builds a failed outcome for req. An empty message is replaced so the model
// always sees why the call failed.
func Failure(req memory.ToolRequest, code, message string) Outcome {
	if message == "" {
		message = fmt.Sprintf("tool %s failed", req.Name)
	}
	return Outcome{RequestID: req.ID, ToolName: req.Name, Text: message, Failed: true, Code: code}
}

// Turn converts the outcome into the ToolResult turn recorded in memory.
func (o Outcome) Turn() memory.Turn {
	return memory.ToolResult(o.RequestID, o.ToolName, o.Text, o.Failed)
}

// Executor runs tool requests.
type Executor struct {
	tools       Resolver
	timeout     time.Duration
	parallelism int
}

type Option func(*Executor)

// WithTimeout bounds each tool call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithParallelism bounds how many calls of one batch run at once. Values below 1 mean 1.
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n < 1 {
			n = 1
		}
		e.parallelism = n
	}
}

func New(r Resolver, opts ...Option) *Executor {
	e := &Executor{tools: r, parallelism: 1}
	for _, o := range opts {
		o(e)
	}
	return e
}

type callResult struct {
	text  string
	err   error
	panic any
}

// Execute runs one request. It never returns an error: unknown tools, tool errors, panics,
// timeouts and cancellation all become Failure outcomes.
func (e *Executor) Execute(ctx context.Context, req memory.ToolRequest) Outcome {
	start := time.Now()
	out := e.execute(ctx, req)
	out.Duration = time.Since(start)
	e.emit(ctx, req, out)
	return out
}

func (e *Executor) execute(ctx context.Context, req memory.ToolRequest) Outcome {
	if err := ctx.Err(); err != nil {
		return Failure(req, tools.CodeCancelled, fmt.Sprintf("tool %s was not run: %v", req.Name, err))
	}

	tool, err := e.tools.Resolve(req.Name)
	if err != nil {
		return Failure(req, tools.CodeUnknownTool, err.Error())
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{panic: r}
			}
		}()
		text, err := tool.Execute(callCtx, req.Arguments)
		done <- callResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		return finished(ctx, req, res)
	case <-callCtx.Done():
		// A result that raced the deadline still wins.
		select {
		case res := <-done:
			return finished(ctx, req, res)
		default:
		}
		if ctx.Err() != nil {
			return Failure(req, tools.CodeCancelled, fmt.Sprintf("tool %s cancelled: %v", req.Name, ctx.Err()))
		}
		return Failure(req, tools.CodeTimeout, fmt.Sprintf("tool %s timed out after %s", req.Name, e.timeout))
	}
}

func finished(ctx context.Context, req memory.ToolRequest, res callResult) Outcome {
	switch {
	case res.panic != nil:
		log.Error().Str("tool", req.Name).Interface("panic", res.panic).Msg("tool panicked")
		return Failure(req, tools.CodePanic, fmt.Sprintf("tool %s panicked: %v", req.Name, res.panic))
	case res.err != nil:
		return failureFromError(ctx, req, res.err)
	}
	return Success(req, res.text)
}

func failureFromError(ctx context.Context, req memory.ToolRequest, err error) Outcome {
	var te tools.ToolError
	if errors.As(err, &te) {
		return Failure(req, te.Code, te.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return Failure(req, tools.CodeTimeout, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return Failure(req, tools.CodeCancelled, err.Error())
	}
	return Failure(req, tools.CodeToolFailed, err.Error())
}

// ExecuteBatch runs reqs and returns their outcomes in request order.
func (e *Executor) ExecuteBatch(ctx context.Context, reqs []memory.ToolRequest) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for i, req := range reqs {
		g.Go(func() error {
			outcomes[i] = e.Execute(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// emit records a tool_exec event. Payloads are measured, never written.
func (e *Executor) emit(ctx context.Context, req memory.ToolRequest, out Outcome) {
	runID, _ := telemetry.RunIDFromContext(ctx)
	inSize := 0
	if len(req.Arguments) > 0 {
		if b, err := json.Marshal(req.Arguments); err == nil {
			inSize = len(b)
		}
	}
	fields := map[string]any{
		"tool_name":       req.Name,
		"tool_request_id": req.ID,
		"duration_ms":     out.Duration.Milliseconds(),
		"input_size":      inSize,
		"output_size":     0,
		"run_id":          runID,
		"error":           nil,
	}
	if out.Failed {
		fields["error"] = out.Code
	} else {
		fields["output_size"] = len(out.Text)
	}
	telemetry.Emit("tool_exec", fields)

	log.Debug().
		Str("tool", req.Name).
		Str("tool_request_id", req.ID).
		Dur("duration", out.Duration).
		Bool("failed", out.Failed).
		Str("code", out.Code).
		Msg("tool executed")
}
