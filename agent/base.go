// Package agent contains sub-agent implementations for the noteflow
// dispatcher: shared identity + capability plumbing (BaseAgent) and the
// concrete note-vault agent driving the reasoning engine.
package agent

import (
	"context"
	"strings"

	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/llm"
	"github.com/noteflow-ai/noteflow/logging"
)

// BaseOptions configures the shared agent plumbing.
type BaseOptions struct {
	// Keywords short-circuit CanHandle to true on literal match (no model call).
	Keywords []string
	// Verbs gate the classification tier: a query containing none of them is
	// rejected without a model call.
	Verbs []string
	// Retry bounds the classification model call.
	Retry llm.RetryPolicy
	// Probe overrides the availability check; defaults to always available.
	Probe func(ctx context.Context) bool
	// Logger receives classification diagnostics.
	Logger logging.Logger
}

// BaseAgent bundles identity and the three-tier capability check shared by
// concrete agents. Embed it and supply a Handle method to satisfy
// core.SubAgent. BaseAgent has no mutable state after construction and is
// safe for concurrent use.
//
// CanHandle tiers, cheapest first:
//  1. literal keyword match: true without a model call
//  2. no recognized action verb: false without a model call
//  3. model classification under a bounded-attempt backoff retry policy
type BaseAgent struct {
	id          string
	description string
	keywords    []string
	verbs       []string
	client      llm.Client
	retry       llm.RetryPolicy
	probe       func(ctx context.Context) bool
	logger      logging.Logger
}

// NewBaseAgent constructs the shared plumbing for an agent identified by id.
func NewBaseAgent(id, description string, client llm.Client, optFns ...func(o *BaseOptions)) BaseAgent {
	opts := BaseOptions{
		Retry:  llm.DefaultRetryPolicy(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return BaseAgent{
		id:          id,
		description: description,
		keywords:    lowerAll(opts.Keywords),
		verbs:       lowerAll(opts.Verbs),
		client:      client,
		retry:       opts.Retry,
		probe:       opts.Probe,
		logger:      opts.Logger,
	}
}

// ID returns the stable agent identifier.
func (b *BaseAgent) ID() string { return b.id }

// Description returns the self-declared capability summary used during
// dispatcher arbitration.
func (b *BaseAgent) Description() string { return b.description }

// IsAvailable implements the cheap liveness probe.
func (b *BaseAgent) IsAvailable(ctx context.Context) bool {
	if b.probe == nil {
		return true
	}
	return b.probe(ctx)
}

// CanHandle implements the three-tier capability check. Only the third tier
// issues a model call; its failures propagate so the dispatcher can degrade
// to "no match" without caching the error.
func (b *BaseAgent) CanHandle(ctx context.Context, query string, history []core.Message) (bool, error) {
	q := strings.ToLower(query)

	for _, kw := range b.keywords {
		if strings.Contains(q, kw) {
			return true, nil
		}
	}

	if len(b.verbs) > 0 && !containsAny(q, b.verbs) {
		return false, nil
	}

	return b.classify(ctx, query, history)
}

// classify issues the capability classification prompt and interprets a
// truthy leading token as acceptance.
func (b *BaseAgent) classify(ctx context.Context, query string, history []core.Message) (bool, error) {
	var sb strings.Builder
	sb.WriteString("Agent capabilities: ")
	sb.WriteString(b.description)
	sb.WriteString("\n")
	if recent := core.LastN(history, 2); len(recent) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, m := range recent {
			sb.WriteString(m.Role + ": " + m.Text + "\n")
		}
	}
	sb.WriteString("Request: " + query + "\n")
	sb.WriteString("Should this agent handle the request? Answer yes or no.")

	resp, err := llm.CompleteWithRetry(ctx, b.client, b.retry,
		"You classify whether a specialized agent should handle a user request. Answer with a single word: yes or no.",
		[]core.Message{core.UserMessage(sb.String())})
	if err != nil {
		return false, err
	}
	b.logger.Debug("capability classification", "agent", b.id, "response", resp)
	return truthy(resp), nil
}

// truthy reports whether the first token of a classification response
// affirms the capability.
func truthy(resp string) bool {
	token := strings.ToLower(strings.TrimSpace(resp))
	if i := strings.IndexFunc(token, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '.' || r == ',' || r == '!'
	}); i >= 0 {
		token = token[:i]
	}
	switch token {
	case "yes", "true", "y", "да":
		return true
	default:
		return false
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
