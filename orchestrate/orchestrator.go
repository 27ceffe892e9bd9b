// Package orchestrate provides the top-level request entry point: dispatch
// to a capability-matched sub-agent first, and when nothing matches fall
// back to a two-way retrieval-vs-dialogue classification handled directly.
//
// Every terminal path yields exactly one user-facing string; internal
// failures are logged, never surfaced raw.
package orchestrate

import (
	"context"
	"strings"
	"time"

	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/dispatch"
	"github.com/noteflow-ai/noteflow/llm"
	"github.com/noteflow-ai/noteflow/logging"
	"github.com/noteflow-ai/noteflow/session"
)

// Fallback route labels returned by the classification call.
const (
	routeRetrieval = "retrieval"
	routeDialogue  = "dialogue"
)

const (
	msgNoContext    = "I could not find anything relevant in your notes, so I cannot answer this from them."
	msgModelTrouble = "Something went wrong while answering; please try again."
)

// Options configures an Orchestrator.
type Options struct {
	// History persists per-session conversation turns. Defaults in-memory.
	History core.HistoryStore
	// Index backs the retrieval fallback route. Nil disables retrieval:
	// classification then always lands on dialogue.
	Index core.SemanticIndex
	// Sink receives progress notifications. Defaults to a no-op.
	Sink core.ProgressSink
	// Retry bounds the route classification call.
	Retry llm.RetryPolicy
	// HistoryWindow bounds the history included in fallback answers.
	HistoryWindow int
	// RetrievalLimit bounds the number of retrieved snippets.
	RetrievalLimit int
	// Dispatch tweaks the internally constructed dispatcher.
	Dispatch func(o *dispatch.Options)
	// Logger receives structured diagnostics.
	Logger logging.Logger
}

// Orchestrator routes inbound requests: agent dispatch first, two-way
// fallback second. Safe for concurrent use; many sessions run in parallel.
type Orchestrator struct {
	client     llm.Client
	dispatcher *dispatch.Dispatcher
	agents     map[string]core.SubAgent

	history        core.HistoryStore
	index          core.SemanticIndex
	sink           core.ProgressSink
	retry          llm.RetryPolicy
	historyWindow  int
	retrievalLimit int
	logger         logging.Logger
}

// New constructs an Orchestrator over an ordered sub-agent pool.
func New(client llm.Client, pool []core.SubAgent, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		History:        session.NewInMemoryStore(),
		Sink:           core.NoOpSink{},
		Retry:          llm.DefaultRetryPolicy(),
		HistoryWindow:  10,
		RetrievalLimit: 5,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var dispatchFns []func(o *dispatch.Options)
	dispatchFns = append(dispatchFns, func(o *dispatch.Options) {
		o.Logger = opts.Logger
	})
	if opts.Dispatch != nil {
		dispatchFns = append(dispatchFns, opts.Dispatch)
	}

	agents := make(map[string]core.SubAgent, len(pool))
	for _, a := range pool {
		agents[a.ID()] = a
	}

	return &Orchestrator{
		client:         client,
		dispatcher:     dispatch.New(client, pool, dispatchFns...),
		agents:         agents,
		history:        opts.History,
		index:          opts.Index,
		sink:           opts.Sink,
		retry:          opts.Retry,
		historyWindow:  opts.HistoryWindow,
		retrievalLimit: opts.RetrievalLimit,
		logger:         opts.Logger,
	}
}

// Handle processes one inbound request and always returns exactly one
// user-facing reply string. The only error returned is ctx cancellation
// before any work happened.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	history, err := o.history.History(sessionID)
	if err != nil {
		o.logger.Warn("history load failed, continuing without", "session_id", sessionID, "error", err)
		history = nil
	}

	reply := o.route(ctx, sessionID, query, history)

	if err := o.history.Append(sessionID, core.UserMessage(query), core.AssistantMessage(reply)); err != nil {
		o.logger.Warn("history append failed", "session_id", sessionID, "error", err)
	}
	o.sink.Notify(sessionID, "Done", core.ProgressDone)
	return reply, nil
}

func (o *Orchestrator) route(ctx context.Context, sessionID, query string, history []core.Message) string {
	o.sink.Notify(sessionID, "Selecting agent...", core.ProgressThinking)

	start := time.Now()
	sel := o.dispatcher.Select(ctx, query, history)
	o.logger.Debug("dispatch finished", "duration", time.Since(start), "matched", sel != nil)

	if sel != nil {
		agent, ok := o.agents[sel.AgentID]
		if !ok {
			// Selection of an unknown agent indicates pool misconfiguration.
			o.logger.Error("selected agent not in pool", "agent_id", sel.AgentID)
			return o.dialogue(ctx, query, history)
		}
		o.logger.Info("request delegated", "agent_id", sel.AgentID, "confidence", sel.Confidence, "reason", sel.Reason)
		reply, err := agent.Handle(ctx, sessionID, query, history)
		if err != nil {
			o.logger.Error("agent handling failed", "agent_id", sel.AgentID, "error", err)
			return msgModelTrouble
		}
		return reply
	}

	switch o.classifyRoute(ctx, query) {
	case routeRetrieval:
		return o.retrieval(ctx, query)
	default:
		return o.dialogue(ctx, query, history)
	}
}

// classifyRoute picks between the retrieval and dialogue fallback routes
// with a single model call. Any failure defaults hard to dialogue.
func (o *Orchestrator) classifyRoute(ctx context.Context, query string) string {
	if o.index == nil {
		return routeDialogue
	}
	resp, err := llm.CompleteWithRetry(ctx, o.client, o.retry,
		"Classify the user request. Answer with exactly one word: 'retrieval' if it asks about the content of the user's stored notes, 'dialogue' otherwise.",
		[]core.Message{core.UserMessage(query)})
	if err != nil {
		o.logger.Warn("route classification failed, defaulting to dialogue", "error", err)
		return routeDialogue
	}
	if strings.Contains(strings.ToLower(resp), routeRetrieval) {
		return routeRetrieval
	}
	return routeDialogue
}

// retrieval answers strictly from semantic index context and refuses
// explicitly when nothing relevant is found.
func (o *Orchestrator) retrieval(ctx context.Context, query string) string {
	results, err := o.index.Search(ctx, query, o.retrievalLimit)
	if err != nil {
		o.logger.Warn("semantic search failed", "error", err)
		return msgNoContext
	}
	if len(results) == 0 {
		return msgNoContext
	}

	var sb strings.Builder
	sb.WriteString("Answer the question using ONLY the context below. If the context does not contain the answer, say so explicitly.\n\nContext:\n")
	for _, r := range results {
		sb.WriteString("---\n")
		sb.WriteString(r.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("---\n\nQuestion: " + query)

	reply, err := o.client.Complete(ctx, "You answer strictly from the provided context.", []core.Message{core.UserMessage(sb.String())})
	if err != nil {
		o.logger.Error("retrieval answer failed", "error", err)
		return msgModelTrouble
	}
	return reply
}

// dialogue answers with general capability plus the recent history window.
func (o *Orchestrator) dialogue(ctx context.Context, query string, history []core.Message) string {
	msgs := append([]core.Message{}, core.LastN(history, o.historyWindow)...)
	msgs = append(msgs, core.UserMessage(query))

	reply, err := o.client.Complete(ctx, "You are a helpful assistant.", msgs)
	if err != nil {
		o.logger.Error("dialogue answer failed", "error", err)
		return msgModelTrouble
	}
	return reply
}
