// Package noteflow provides a high-level façade over the orchestrator and
// service abstractions (sessions, semantic memory, tools & logging) enabling
// rapid construction of a note-assistant backend. Most applications interact
// with this package by:
//  1. Creating a Noteflow via New() with a model client and a tool executor
//     (optionally overriding default in-memory services)
//  2. Supplying additional sub-agents via Options.Agents when needed
//  3. Handling user requests session by session (Handle)
//
// The façade delegates routing to orchestrate.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// history store, a real semantic index and a structured logger.
package noteflow

import (
	"context"

	"github.com/noteflow-ai/noteflow/agent"
	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/dispatch"
	"github.com/noteflow-ai/noteflow/llm"
	"github.com/noteflow-ai/noteflow/logging"
	"github.com/noteflow-ai/noteflow/memory"
	"github.com/noteflow-ai/noteflow/orchestrate"
	"github.com/noteflow-ai/noteflow/session"
)

// Options configures the Noteflow instance.
type Options struct {
	// History persists per-session conversation turns
	// (defaults to an in-memory store if not provided).
	History core.HistoryStore

	// Index backs the retrieval fallback route
	// (defaults to an in-memory term-overlap index).
	Index core.SemanticIndex

	// Sink receives progress notifications for long-running requests.
	Sink core.ProgressSink

	// MaxSteps bounds the note agent's reasoning loop.
	MaxSteps int

	// Agents is the ordered sub-agent pool. When empty, a single note vault
	// agent over the supplied executor is registered.
	Agents []core.SubAgent

	// Dispatch tweaks the capability dispatcher (cache bounds, probe timeout).
	Dispatch func(o *dispatch.Options)

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Noteflow is the high-level façade aggregating the orchestrator and services.
type Noteflow struct {
	orchestrator *orchestrate.Orchestrator
}

// New creates a Noteflow instance with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(client llm.Client, executor core.ToolExecutor, optFns ...func(o *Options)) *Noteflow {
	opts := Options{
		History:  session.NewInMemoryStore(),
		Index:    memory.NewInMemoryIndex(),
		Sink:     core.NoOpSink{},
		MaxSteps: 10,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	pool := opts.Agents
	if len(pool) == 0 {
		pool = []core.SubAgent{
			agent.NewNotesAgent(client, executor, func(o *agent.NotesOptions) {
				o.MaxSteps = opts.MaxSteps
				o.Logger = opts.Logger
				o.Sink = opts.Sink
			}),
		}
	}

	orch := orchestrate.New(client, pool, func(o *orchestrate.Options) {
		o.History = opts.History
		o.Index = opts.Index
		o.Sink = opts.Sink
		o.Dispatch = opts.Dispatch
		o.Logger = opts.Logger
	})

	return &Noteflow{orchestrator: orch}
}

// Handle processes one user request within a session and returns exactly one
// user-facing reply. Internal failures surface as friendly replies, never as
// raw errors; the returned error is non-nil only for context cancellation.
func (n *Noteflow) Handle(ctx context.Context, sessionID, query string) (string, error) {
	return n.orchestrator.Handle(ctx, sessionID, query)
}
