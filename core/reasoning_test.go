package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReasoningContext_AppendStepOrdering(t *testing.T) {
	rc := NewReasoningContext("list my notes")

	require.NoError(t, rc.AppendStep(ReasoningStep{Number: 1, Thought: "need the vault listing"}))
	require.NoError(t, rc.AppendStep(ReasoningStep{Number: 2, Thought: "inspect first note"}))

	// Gaps and reuse are both rejected.
	assert.Error(t, rc.AppendStep(ReasoningStep{Number: 2}))
	assert.Error(t, rc.AppendStep(ReasoningStep{Number: 5}))
	assert.Equal(t, 3, rc.NextStepNumber())
}

func TestReasoningContext_FinishIsTerminal(t *testing.T) {
	rc := NewReasoningContext("q")
	rc.Finish(RunCompleted, "done")

	assert.True(t, rc.Completed)
	require.NotNil(t, rc.FinalResult)
	assert.Equal(t, "done", rc.Result())

	// Subsequent transitions and appends are ignored/rejected.
	rc.Finish(RunFailed, "other")
	assert.Equal(t, RunCompleted, rc.Status)
	assert.Equal(t, "done", rc.Result())
	assert.Error(t, rc.AppendStep(ReasoningStep{Number: 1}))
}

func TestReasoningContext_TerminalAlwaysHasResult(t *testing.T) {
	for _, status := range []RunStatus{RunCompleted, RunFailed, RunStepLimitExceeded} {
		rc := NewReasoningContext("q")
		rc.Finish(status, status.String())
		assert.True(t, rc.Completed, status.String())
		assert.NotNil(t, rc.FinalResult, status.String())
	}
}

func TestToolAction_String(t *testing.T) {
	a := ToolAction{Name: "delete_note", Params: map[string]string{"path": "test456.md"}}
	assert.Equal(t, `delete_note(path="test456.md")`, a.String())
	assert.Equal(t, "list_notes()", ToolAction{Name: "list_notes"}.String())

	// Multi-parameter actions render sorted by name, keeping replayed
	// transcripts stable across runs.
	multi := ToolAction{Name: "create_note", Params: map[string]string{
		"content": "# Plan",
		"path":    "plan.md",
	}}
	for i := 0; i < 20; i++ {
		assert.Equal(t, `create_note(content="# Plan", path="plan.md")`, multi.String())
	}
}

func TestLastN(t *testing.T) {
	h := []Message{UserMessage("a"), AssistantMessage("b"), UserMessage("c")}
	assert.Len(t, LastN(h, 2), 2)
	assert.Equal(t, "b", LastN(h, 2)[0].Text)
	assert.Equal(t, h, LastN(h, 10))
	assert.Nil(t, LastN(h, 0))
}
