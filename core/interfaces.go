package core

import "context"

// SubAgent is a capability-providing handler that can fully own a request.
// The dispatcher probes availability cheaply, asks CanHandle for a
// classification, and hands the request to Handle on selection.
//
// CanHandle may be expensive (it can issue an LLM classification call); the
// dispatcher memoizes its results, so implementations must be deterministic
// for identical (query, recent history) inputs.
type SubAgent interface {
	// ID returns the stable identifier used in selections and cache keys.
	ID() string

	// Description is the agent's self-declared capability summary, used by
	// the dispatcher when arbitrating between multiple willing agents.
	Description() string

	// IsAvailable is a cheap liveness probe. Unavailable agents are never
	// selected and never asked CanHandle.
	IsAvailable(ctx context.Context) bool

	// CanHandle reports whether the agent wants to own the query given the
	// recent conversation history.
	CanHandle(ctx context.Context, query string, history []Message) (bool, error)

	// Handle fully processes the request and returns the user-facing reply.
	Handle(ctx context.Context, sessionID, query string, history []Message) (string, error)
}

// ToolExecutor performs a named action against an external resource and
// returns a human-readable observation. Failures are reported as errors; the
// reasoning engine converts them into failure observations so the narrative
// continues.
type ToolExecutor interface {
	Execute(ctx context.Context, action ToolAction) (string, error)
}

// ProgressKind labels progress notifications for sinks that render them
// differently (e.g. thinking indicator vs. tool activity).
type ProgressKind string

const (
	ProgressThinking ProgressKind = "thinking"
	ProgressTool     ProgressKind = "tool"
	ProgressDone     ProgressKind = "done"
)

// ProgressSink receives fire-and-forget progress notifications keyed by
// session. Implementations must never block for long and their failures are
// swallowed by callers.
type ProgressSink interface {
	Notify(sessionID, message string, kind ProgressKind)
}

// NoOpSink discards all progress notifications.
type NoOpSink struct{}

// Notify implements ProgressSink.
func (NoOpSink) Notify(string, string, ProgressKind) {}

// SearchResult is a retrieved snippet with a relevance score.
type SearchResult struct {
	ID      string
	Content string
	Score   float64
}

// SemanticIndex is the retrieval seam for the orchestrator's fallback
// "retrieval" route. Real deployments back it with embeddings + vector
// search; the in-memory implementation in the memory package is a keyword
// scorer for tests and demos.
type SemanticIndex interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// HistoryStore persists ordered per-session conversation history.
type HistoryStore interface {
	History(sessionID string) ([]Message, error)
	Append(sessionID string, msgs ...Message) error
}
