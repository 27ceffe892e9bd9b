package agent

import (
	"context"

	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/llm"
	"github.com/noteflow-ai/noteflow/logging"
	"github.com/noteflow-ai/noteflow/reason"
	"github.com/noteflow-ai/noteflow/tool"
)

// Default capability tiers for the note vault agent. Keywords hit tier 1,
// verbs gate tier 3; both lists include the Russian stems the original
// assistant is used with.
var (
	defaultNoteKeywords = []string{"note", "notes", ".md", "vault", "заметк", "файл"}
	defaultNoteVerbs = []string{
		"create", "read", "update", "append", "delete", "remove", "list",
		"search", "find", "show", "write", "add",
		"созда", "удал", "найд", "покаж", "добав", "запиш", "прочит", "обнов",
	}
)

// NotesOptions configures a NotesAgent.
type NotesOptions struct {
	// Registry is the tool vocabulary; defaults to tool.VaultRegistry().
	Registry *tool.Registry
	// MaxSteps bounds the reasoning loop.
	MaxSteps int
	// Base tweaks the embedded BaseAgent (keywords, verbs, retry, probe).
	Base func(o *BaseOptions)
	// Logger receives run diagnostics.
	Logger logging.Logger
	// Sink receives progress notifications.
	Sink core.ProgressSink
}

// NotesAgent owns multi-step requests against a markdown note vault. On
// selection it drives a bounded Thought/Action/Observation run over the
// vault tool vocabulary and returns the run's single terminal string.
type NotesAgent struct {
	BaseAgent
	engine *reason.Engine
}

// NewNotesAgent wires a NotesAgent over a model client and a vault executor.
func NewNotesAgent(client llm.Client, executor core.ToolExecutor, optFns ...func(o *NotesOptions)) *NotesAgent {
	opts := NotesOptions{
		Registry: tool.VaultRegistry(),
		MaxSteps: 10,
		Logger:   logging.NoOpLogger{},
		Sink:     core.NoOpSink{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	base := NewBaseAgent(
		"notes",
		"Manages the markdown note vault: creates, reads, updates, appends, deletes, lists and searches notes.",
		client,
		func(o *BaseOptions) {
			o.Keywords = defaultNoteKeywords
			o.Verbs = defaultNoteVerbs
			o.Logger = opts.Logger
			if opts.Base != nil {
				opts.Base(o)
			}
		},
	)

	engine := reason.New(client, executor, opts.Registry, func(o *reason.Options) {
		o.MaxSteps = opts.MaxSteps
		o.Logger = opts.Logger
		o.Sink = opts.Sink
	})

	return &NotesAgent{BaseAgent: base, engine: engine}
}

// Handle implements core.SubAgent by running the reasoning loop to its
// guaranteed terminal state. The terminal result is always a user-facing
// string, including for failed and step-limited runs, so Handle never
// returns an error.
func (a *NotesAgent) Handle(ctx context.Context, sessionID, query string, history []core.Message) (string, error) {
	rc := a.engine.Run(ctx, sessionID, query, history)
	return rc.Result(), nil
}
