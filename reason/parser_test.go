package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStep_ThoughtAndAction(t *testing.T) {
	raw := "Thought: need to remove the file\nAction: delete_note(path=\"test456.md\")"
	out := ParseStep(raw, 1)

	assert.Equal(t, "need to remove the file", out.Thought)
	require.NotNil(t, out.Action)
	assert.Equal(t, "delete_note", out.Action.Name)
	assert.Equal(t, "test456.md", out.Action.Params["path"])
	assert.Nil(t, out.Complete)
}

// Multi-line Complete results keep capturing until the next step label or end
// of text, preserving embedded blank lines. Stopping at the first blank line
// would truncate legitimate answers.
func TestParseStep_MultiLineCompleteWithEmbeddedBlankLine(t *testing.T) {
	raw := "Complete: Line1\n\nLine2\nStep 2: Thought: echoed future step"
	out := ParseStep(raw, 1)

	require.NotNil(t, out.Complete)
	assert.Contains(t, *out.Complete, "Line1")
	assert.Contains(t, *out.Complete, "Line2")
	assert.Equal(t, "Line1\n\nLine2", *out.Complete)
	assert.NotContains(t, *out.Complete, "Step 2")
	assert.NotContains(t, *out.Complete, "echoed")
}

// While processing step 2, content the model echoes under other step labels
// must be ignored until those iterations actually occur.
func TestParseStep_IgnoresOtherStepEchoes(t *testing.T) {
	raw := "Step 1:\nThought: already done\nAction: list_notes()\n" +
		"Step 2:\nThought: current work\nAction: read_note(path=\"a.md\")\n" +
		"Step 3:\nThought: not yet\nAction: delete_note(path=\"a.md\")"
	out := ParseStep(raw, 2)

	assert.Equal(t, "current work", out.Thought)
	require.NotNil(t, out.Action)
	assert.Equal(t, "read_note", out.Action.Name)
}

func TestParseStep_InlineStepNumberLabels(t *testing.T) {
	raw := "Thought 3: for a later step\nThought 1: current\nAction 1: list_notes()"
	out := ParseStep(raw, 1)

	assert.Equal(t, "current", out.Thought)
	require.NotNil(t, out.Action)
	assert.Equal(t, "list_notes", out.Action.Name)
}

func TestParseStep_StepLabelWithInlineContent(t *testing.T) {
	out := ParseStep(`Step 2: Complete: всё готово`, 2)
	require.NotNil(t, out.Complete)
	assert.Equal(t, "всё готово", *out.Complete)
}

func TestParseStep_MalformedResponse(t *testing.T) {
	out := ParseStep("I think we should probably look at the files first.", 1)
	assert.True(t, out.IsMalformed())
	assert.Empty(t, out.Thought)
}

func TestParseStep_ThoughtOnlyIsMalformed(t *testing.T) {
	out := ParseStep("Thought: hmm, not sure what to do", 1)
	assert.True(t, out.IsMalformed())
	assert.Equal(t, "hmm, not sure what to do", out.Thought)
}

func TestParseStep_CompleteWinsWithActionPresent(t *testing.T) {
	raw := "Thought: done\nComplete: the answer\nAction: list_notes()"
	out := ParseStep(raw, 1)
	require.NotNil(t, out.Complete)
	assert.Equal(t, "the answer", *out.Complete)
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		params map[string]string
		ok     bool
	}{
		{name: "single param", in: `delete_note(path="test456.md")`, want: "delete_note", params: map[string]string{"path": "test456.md"}, ok: true},
		{name: "multiple params", in: `create_note(path="a.md", content="# Title")`, want: "create_note", params: map[string]string{"path": "a.md", "content": "# Title"}, ok: true},
		{name: "no params", in: `list_notes()`, want: "list_notes", ok: true},
		{name: "escaped quote", in: `append_note(path="a.md", content="say \"hi\"")`, want: "append_note", params: map[string]string{"path": "a.md", "content": `say "hi"`}, ok: true},
		{name: "not a call", in: `just some text`, ok: false},
		{name: "missing parens", in: `delete_note path="x"`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, ok := ParseAction(tt.in)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			require.NotNil(t, action)
			assert.Equal(t, tt.want, action.Name)
			if tt.params == nil {
				assert.Empty(t, action.Params)
			} else {
				assert.Equal(t, tt.params, action.Params)
			}
		})
	}
}
