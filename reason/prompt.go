package reason

import (
	"fmt"
	"strings"

	"github.com/noteflow-ai/noteflow/core"
)

const systemTemplate = `You are a step-by-step reasoning assistant operating on a markdown note vault.

On every turn emit exactly one step in this format:

Thought: <what you need to do next and why>
Action: <tool>(<param>="<value>", ...)

When the task is finished, emit instead:

Complete: <final answer for the user>

Rules:
- Emit exactly one Action OR one Complete per turn, never both.
- Use only the tools listed below. Never invent tool names or parameters.
- Normalize note paths: relative to the vault root, forward slashes only, and append the .md extension when the user omits it.
- After each Action you will receive an Observation with the real result; base the next step on it.

Available tools:
%s`

// PromptBuilder renders the fixed system instructions and the per-step
// conversation for the reasoning loop. The tool catalog is injected from the
// same registry that validates actions, keeping prompt and executor in sync.
type PromptBuilder struct {
	system     string
	maxHistory int
}

// NewPromptBuilder creates a builder embedding the given tool catalog.
// maxHistory bounds the window of recent chat history included per step.
func NewPromptBuilder(catalog string, maxHistory int) *PromptBuilder {
	return &PromptBuilder{
		system:     fmt.Sprintf(systemTemplate, catalog),
		maxHistory: maxHistory,
	}
}

// System returns the fixed system instructions.
func (b *PromptBuilder) System() string { return b.system }

// Messages renders the bounded history window plus the reasoning transcript
// as the model input for the next step.
func (b *PromptBuilder) Messages(rc *core.ReasoningContext, history []core.Message) []core.Message {
	window := core.LastN(history, b.maxHistory)
	msgs := make([]core.Message, 0, len(window)+1)
	msgs = append(msgs, window...)
	msgs = append(msgs, core.UserMessage(b.renderTranscript(rc)))
	return msgs
}

// renderTranscript renders the query and all prior Thought/Action/Observation
// triples, ending with the label of the step the model must produce now.
func (b *PromptBuilder) renderTranscript(rc *core.ReasoningContext) string {
	var sb strings.Builder
	sb.WriteString("Task: ")
	sb.WriteString(rc.Query)
	sb.WriteString("\n")
	for _, step := range rc.Steps {
		sb.WriteString(fmt.Sprintf("\nStep %d:\n", step.Number))
		if step.Thought != "" {
			sb.WriteString("Thought: " + step.Thought + "\n")
		}
		if step.Action != nil {
			sb.WriteString("Action: " + step.Action.String() + "\n")
		}
		if step.Observation != nil {
			sb.WriteString("Observation: " + *step.Observation + "\n")
		}
	}
	sb.WriteString(fmt.Sprintf("\nStep %d:\n", rc.NextStepNumber()))
	return sb.String()
}
