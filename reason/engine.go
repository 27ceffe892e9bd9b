// Package reason implements the bounded Thought/Action/Observation loop that
// turns unstructured model output into a reliable step-state machine. Each
// iteration issues one model call, parses the step belonging to the current
// step number, executes at most one tool action, and feeds the observation
// back into the next prompt. Runs always end in a terminal status with a
// single user-facing result string.
package reason

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/llm"
	"github.com/noteflow-ai/noteflow/logging"
	"github.com/noteflow-ai/noteflow/tool"
)

// Terminal user-facing messages. Internal errors never surface directly.
const (
	msgModelFailure = "I could not finish this task because the reasoning model failed. Steps already executed have not been rolled back."
	msgStepLimit    = "This task is too complex: the step limit was reached before a final answer."
	msgCancelled    = "The task was cancelled before completion."
)

// Options configures an Engine instance.
type Options struct {
	// MaxSteps bounds the number of reasoning iterations per run.
	MaxSteps int
	// StepTimeout bounds the single model call issued per step. Exceeding it
	// fails the whole run.
	StepTimeout time.Duration
	// ToolTimeout bounds one tool execution. Exceeding it produces a failure
	// observation and the loop continues.
	ToolTimeout time.Duration
	// MaxHistoryMessages bounds the chat history window in each prompt.
	MaxHistoryMessages int
	// Logger receives structured run diagnostics.
	Logger logging.Logger
	// Sink receives fire-and-forget progress notifications.
	Sink core.ProgressSink
}

// Engine drives reasoning runs. It is stateless across runs and safe for
// concurrent use; each Run owns its ReasoningContext exclusively.
type Engine struct {
	client   llm.Client
	executor core.ToolExecutor
	registry *tool.Registry
	prompts  *PromptBuilder

	maxSteps    int
	stepTimeout time.Duration
	toolTimeout time.Duration
	logger      logging.Logger
	sink        core.ProgressSink
}

// New constructs an Engine over a model client, an executor and the tool
// vocabulary shared between prompt and executor.
func New(client llm.Client, executor core.ToolExecutor, registry *tool.Registry, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MaxSteps:           10,
		StepTimeout:        60 * time.Second,
		ToolTimeout:        30 * time.Second,
		MaxHistoryMessages: 10,
		Logger:             logging.NoOpLogger{},
		Sink:               core.NoOpSink{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		client:      client,
		executor:    executor,
		registry:    registry,
		prompts:     NewPromptBuilder(registry.Catalog(), opts.MaxHistoryMessages),
		maxSteps:    opts.MaxSteps,
		stepTimeout: opts.StepTimeout,
		toolTimeout: opts.ToolTimeout,
		logger:      opts.Logger,
		sink:        opts.Sink,
	}
}

// Run executes the reasoning loop for query and returns a context in a
// guaranteed terminal state. Within one run the loop is strictly sequential:
// no two steps and no two tool actions overlap. A model failure fails the
// run immediately and is never retried, because prior steps may already have
// executed side-effecting actions.
func (e *Engine) Run(ctx context.Context, sessionID, query string, history []core.Message) *core.ReasoningContext {
	rc := core.NewReasoningContext(query)
	e.logger.Info("reasoning run started", "run_id", rc.RunID, "session_id", sessionID, "max_steps", e.maxSteps)

	for i := 0; i < e.maxSteps; i++ {
		// A caller may abandon the run between steps at any time.
		if err := ctx.Err(); err != nil {
			rc.Finish(core.RunFailed, msgCancelled)
			return rc
		}

		stepNo := rc.NextStepNumber()
		e.sink.Notify(sessionID, fmt.Sprintf("Reasoning, step %d...", stepNo), core.ProgressThinking)

		raw, err := e.completeStep(ctx, rc, history)
		if err != nil {
			e.logger.Error("reasoning model call failed", "run_id", rc.RunID, "step", stepNo, "error", err)
			rc.Finish(core.RunFailed, msgModelFailure)
			return rc
		}

		parsed := ParseStep(raw, stepNo)

		if parsed.Complete != nil {
			rc.Finish(core.RunCompleted, *parsed.Complete)
			e.sink.Notify(sessionID, "Done", core.ProgressDone)
			return rc
		}

		step := core.ReasoningStep{Number: stepNo, Thought: parsed.Thought}
		if parsed.Action != nil {
			step.Action = parsed.Action
			obs := e.executeAction(ctx, sessionID, *parsed.Action)
			step.Observation = &obs
		} else if parsed.IsMalformed() {
			// Malformed output still consumes a budget slot so persistently
			// broken responses cannot stall the run forever.
			e.logger.Warn("malformed model response consumed step", "step", stepNo)
		}

		if err := rc.AppendStep(step); err != nil {
			rc.Finish(core.RunFailed, msgModelFailure)
			return rc
		}
	}

	rc.Finish(core.RunStepLimitExceeded, msgStepLimit)
	e.sink.Notify(sessionID, "Step limit reached", core.ProgressDone)
	return rc
}

// completeStep issues the single model call for the next step under the
// per-step timeout.
func (e *Engine) completeStep(ctx context.Context, rc *core.ReasoningContext, history []core.Message) (string, error) {
	stepCtx := ctx
	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.client.Complete(stepCtx, e.prompts.System(), e.prompts.Messages(rc, history))
	e.logger.Debug("model step completed", "model", e.client.Info().Name, "duration", time.Since(start), "success", err == nil)
	return raw, err
}

// executeAction validates and runs one tool action, converting every failure
// into a failure-description observation so the next model turn can react to
// it. Each action executes at most once.
func (e *Engine) executeAction(ctx context.Context, sessionID string, action core.ToolAction) string {
	e.sink.Notify(sessionID, "Running "+action.String(), core.ProgressTool)

	if err := e.registry.Validate(action); err != nil {
		if errors.Is(err, tool.ErrUnknownTool) {
			return fmt.Sprintf("unknown tool %q; use only the tools listed in the instructions", action.Name)
		}
		return "invalid action: " + err.Error()
	}

	toolCtx := ctx
	if e.toolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, e.toolTimeout)
		defer cancel()
	}

	start := time.Now()
	obs, err := e.executor.Execute(toolCtx, action)
	e.logger.Debug("tool executed", "tool", action.Name, "duration", time.Since(start), "success", err == nil)
	if err != nil {
		e.logger.Warn("tool execution failed", "tool", action.Name, "error", err)
		return fmt.Sprintf("tool %s failed: %v", action.Name, err)
	}
	return obs
}
