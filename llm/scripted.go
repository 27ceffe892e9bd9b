package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/noteflow-ai/noteflow/core"
)

// ScriptedClient is a lightweight in-memory Client useful for tests and
// examples. Responses are served either by exact prompt match (AddResponse)
// or in registration order (Enqueue/EnqueueError), whichever is configured.
// Queued responses and errors share one ordered script, so failures can be
// interleaved between successful completions.
type ScriptedClient struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	script    []scriptEntry
	calls     int
	requests  [][]core.Message
}

type scriptEntry struct {
	text string
	err  error
}

// NewScriptedClient constructs an empty scripted client.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{
		info:      Info{Name: "scripted", Provider: "scripted"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for the exact text
// of the last message in the request.
func (c *ScriptedClient) AddResponse(prompt, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[prompt] = response
}

// Enqueue appends responses served in order regardless of prompt content.
func (c *ScriptedClient) Enqueue(responses ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range responses {
		c.script = append(c.script, scriptEntry{text: r})
	}
}

// EnqueueError appends errors served in script order.
func (c *ScriptedClient) EnqueueError(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, err := range errs {
		c.script = append(c.script, scriptEntry{err: err})
	}
}

// Calls returns how many completions have been requested.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Requests returns the message slices of every completion requested so far,
// letting tests assert on prompt content such as observation feedback.
func (c *ScriptedClient) Requests() [][]core.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]core.Message, len(c.requests))
	copy(out, c.requests)
	return out
}

// Complete implements Client.
func (c *ScriptedClient) Complete(ctx context.Context, _ string, msgs []core.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.requests = append(c.requests, msgs)

	if len(c.script) > 0 {
		entry := c.script[0]
		c.script = c.script[1:]
		return entry.text, entry.err
	}
	if len(msgs) > 0 {
		if resp, ok := c.responses[msgs[len(msgs)-1].Text]; ok {
			return resp, nil
		}
	}
	return "", fmt.Errorf("scripted client: no response configured")
}

// Info implements Client.
func (c *ScriptedClient) Info() Info { return c.info }
