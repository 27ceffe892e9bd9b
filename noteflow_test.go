package noteflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteflow-ai/noteflow/llm"
	"github.com/noteflow-ai/noteflow/tool"
)

// mapVault is a minimal in-memory note store backing the vault tools in tests.
type mapVault struct {
	notes map[string]string
}

func newMapVault() *mapVault {
	return &mapVault{notes: map[string]string{}}
}

func (v *mapVault) executor(t *testing.T) *tool.FuncExecutor {
	t.Helper()
	ex := tool.NewFuncExecutor(tool.VaultRegistry())
	handlers := map[string]tool.Handler{
		"create_note": func(_ context.Context, p map[string]string) (string, error) {
			v.notes[p["path"]] = p["content"]
			return "created " + p["path"], nil
		},
		"read_note": func(_ context.Context, p map[string]string) (string, error) {
			content, ok := v.notes[p["path"]]
			if !ok {
				return "", fmt.Errorf("note %s does not exist", p["path"])
			}
			return content, nil
		},
		"update_note": func(_ context.Context, p map[string]string) (string, error) {
			v.notes[p["path"]] = p["content"]
			return "updated " + p["path"], nil
		},
		"append_note": func(_ context.Context, p map[string]string) (string, error) {
			v.notes[p["path"]] += p["content"]
			return "appended to " + p["path"], nil
		},
		"delete_note": func(_ context.Context, p map[string]string) (string, error) {
			if _, ok := v.notes[p["path"]]; !ok {
				return "", fmt.Errorf("note %s does not exist", p["path"])
			}
			delete(v.notes, p["path"])
			return "deleted " + p["path"], nil
		},
		"list_notes": func(context.Context, map[string]string) (string, error) {
			if len(v.notes) == 0 {
				return "vault is empty", nil
			}
			out := ""
			for path := range v.notes {
				out += path + "\n"
			}
			return out, nil
		},
		"search_notes": func(_ context.Context, p map[string]string) (string, error) {
			return "no matches for " + p["query"], nil
		},
	}
	for name, h := range handlers {
		require.NoError(t, ex.Register(name, h))
	}
	require.Empty(t, ex.MissingHandlers())
	return ex
}

func TestNoteflow_DeleteNoteEndToEnd(t *testing.T) {
	vault := newMapVault()
	vault.notes["test456.md"] = "scratch"

	client := llm.NewScriptedClient()
	client.Enqueue(
		"Thought: the user wants test456.md gone\nAction: delete_note(path=\"test456.md\")",
		"Thought: the file was removed\nComplete: Файл удалён",
	)

	nf := New(client, vault.executor(t))
	reply, err := nf.Handle(context.Background(), "s1", "удали файл test456.md")

	require.NoError(t, err)
	assert.Equal(t, "Файл удалён", reply)
	assert.NotContains(t, vault.notes, "test456.md")
}

func TestNoteflow_UnmatchedQueryFallsBackToDialogue(t *testing.T) {
	client := llm.NewScriptedClient()
	client.Enqueue(
		"dialogue",
		"I do not know the weather, I only manage notes.",
	)

	nf := New(client, newMapVault().executor(t))
	reply, err := nf.Handle(context.Background(), "s1", "how is the weather")

	require.NoError(t, err)
	assert.Equal(t, "I do not know the weather, I only manage notes.", reply)
}

func TestNoteflow_HistorySurvivesTurns(t *testing.T) {
	vault := newMapVault()
	vault.notes["a.md"] = "alpha"

	client := llm.NewScriptedClient()
	client.Enqueue(
		"Thought: list what is there\nAction: list_notes()",
		"Thought: done\nComplete: You have one note: a.md",
		"dialogue",
		"We were talking about your notes.",
	)

	nf := New(client, vault.executor(t))

	reply, err := nf.Handle(context.Background(), "s1", "list my notes")
	require.NoError(t, err)
	assert.Equal(t, "You have one note: a.md", reply)

	reply, err = nf.Handle(context.Background(), "s1", "what were we discussing")
	require.NoError(t, err)
	assert.Equal(t, "We were talking about your notes.", reply)
}
