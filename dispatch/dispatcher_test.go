package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/llm"
)

type stubAgent struct {
	id        string
	desc      string
	available bool
	can       bool
	canErr    error
	canCalls  int
}

func (s *stubAgent) ID() string                        { return s.id }
func (s *stubAgent) Description() string               { return s.desc }
func (s *stubAgent) IsAvailable(context.Context) bool  { return s.available }
func (s *stubAgent) CanHandle(context.Context, string, []core.Message) (bool, error) {
	s.canCalls++
	return s.can, s.canErr
}
func (s *stubAgent) Handle(context.Context, string, string, []core.Message) (string, error) {
	return "handled by " + s.id, nil
}

func newStub(id string, available, can bool) *stubAgent {
	return &stubAgent{id: id, desc: id + " agent", available: available, can: can}
}

func noRetry(o *Options) {
	o.Retry = llm.RetryPolicy{MaxAttempts: 1}
}

func TestSelect_NoAvailableAgents(t *testing.T) {
	a := newStub("notes", false, true)
	d := New(llm.NewScriptedClient(), []core.SubAgent{a})

	sel := d.Select(context.Background(), "delete my note", nil)

	assert.Nil(t, sel)
	assert.Zero(t, a.canCalls, "unavailable agents must not be classified")
}

func TestSelect_NoWillingCandidates(t *testing.T) {
	d := New(llm.NewScriptedClient(), []core.SubAgent{
		newStub("notes", true, false),
		newStub("tasks", true, false),
	})

	assert.Nil(t, d.Select(context.Background(), "what is the weather", nil))
}

func TestSelect_SingleMatch(t *testing.T) {
	d := New(llm.NewScriptedClient(), []core.SubAgent{
		newStub("notes", true, true),
		newStub("tasks", true, false),
	})

	sel := d.Select(context.Background(), "delete my note", nil)

	require.NotNil(t, sel)
	assert.Equal(t, "notes", sel.AgentID)
	assert.Equal(t, singleMatchConfidence, sel.Confidence)
}

func TestSelect_UnavailableAgentNeverSelected(t *testing.T) {
	down := newStub("notes", false, true)
	up := newStub("tasks", true, true)
	d := New(llm.NewScriptedClient(), []core.SubAgent{down, up})

	sel := d.Select(context.Background(), "add a task", nil)

	require.NotNil(t, sel)
	assert.Equal(t, "tasks", sel.AgentID)
	assert.Zero(t, down.canCalls)
}

func TestSelect_ArbitrationPicksNumberedCandidate(t *testing.T) {
	client := llm.NewScriptedClient()
	client.Enqueue("2")
	d := New(client, []core.SubAgent{
		newStub("notes", true, true),
		newStub("tasks", true, true),
	}, noRetry)

	sel := d.Select(context.Background(), "note down a task", nil)

	require.NotNil(t, sel)
	assert.Equal(t, "tasks", sel.AgentID)
	assert.Equal(t, arbitrationConfidence, sel.Confidence)
}

func TestSelect_ArbitrationFailureFallsBackToFirstCandidate(t *testing.T) {
	client := llm.NewScriptedClient()
	client.EnqueueError(errors.New("model unavailable"))
	d := New(client, []core.SubAgent{
		newStub("notes", true, true),
		newStub("tasks", true, true),
	}, noRetry)

	sel := d.Select(context.Background(), "note down a task", nil)

	require.NotNil(t, sel)
	assert.Equal(t, "notes", sel.AgentID, "pool order is the deterministic tie-break")
	assert.Equal(t, fallbackConfidence, sel.Confidence)
}

func TestSelect_ArbitrationUnparseableFallsBackToFirstCandidate(t *testing.T) {
	client := llm.NewScriptedClient()
	client.Enqueue("both look fine to me")
	d := New(client, []core.SubAgent{
		newStub("notes", true, true),
		newStub("tasks", true, true),
	}, noRetry)

	sel := d.Select(context.Background(), "note down a task", nil)

	require.NotNil(t, sel)
	assert.Equal(t, "notes", sel.AgentID)
	assert.Equal(t, fallbackConfidence, sel.Confidence)
}

func TestSelect_MemoizesCapabilityDecisions(t *testing.T) {
	a := newStub("notes", true, true)
	d := New(llm.NewScriptedClient(), []core.SubAgent{a})
	history := []core.Message{core.UserMessage("hi"), core.AssistantMessage("hello")}

	for i := 0; i < 3; i++ {
		sel := d.Select(context.Background(), "delete my note", history)
		require.NotNil(t, sel)
	}

	assert.Equal(t, 1, a.canCalls, "identical (query, recent history) must hit the cache")
}

func TestSelect_ClassificationErrorDegradesAndIsNotCached(t *testing.T) {
	a := newStub("notes", true, true)
	a.canErr = errors.New("model timeout")
	d := New(llm.NewScriptedClient(), []core.SubAgent{a})

	assert.Nil(t, d.Select(context.Background(), "delete my note", nil))

	// Once the transient failure clears, the next dispatch classifies again.
	a.canErr = nil
	sel := d.Select(context.Background(), "delete my note", nil)

	require.NotNil(t, sel)
	assert.Equal(t, "notes", sel.AgentID)
	assert.Equal(t, 2, a.canCalls)
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name string
		resp string
		n    int
		idx  int
		ok   bool
	}{
		{name: "bare number", resp: "2", n: 3, idx: 1, ok: true},
		{name: "number with prose", resp: "Agent 1 fits best.", n: 2, idx: 0, ok: true},
		{name: "only first line counts", resp: "no idea\n2", n: 2, ok: false},
		{name: "out of range", resp: "5", n: 2, ok: false},
		{name: "zero", resp: "0", n: 2, ok: false},
		{name: "no number", resp: "the notes one", n: 2, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := parseChoice(tt.resp, tt.n)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.idx, idx)
			}
		})
	}
}
