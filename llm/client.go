// Package llm defines the single-shot completion seam used by every
// reasoning and classification path in noteflow, together with a scripted
// in-memory client for tests and a bounded retry policy for idempotent
// classification calls.
//
// The core deliberately requires no streaming: the reasoning engine consumes
// one full completion per step and the dispatcher one per classification.
package llm

import (
	"context"

	"github.com/noteflow-ai/noteflow/core"
)

// Info contains metadata about a client implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "scripted", etc.
}

// Client is the minimal interface required to drive generation. Complete
// issues exactly one model call and returns the full text of the response.
//
// Implementations must honor ctx cancellation and deadlines; the engine
// relies on that for its per-step timeout.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, msgs []core.Message) (string, error)

	// Info returns information about the client implementation.
	Info() Info
}
