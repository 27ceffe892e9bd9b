package reason

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/noteflow-ai/noteflow/core"
)

// The Thought/Action/Complete grammar is a small line-oriented mini-language:
//
//	Step N:                      optional step label echoed by the model
//	Thought: <text>              reasoning for the current step
//	Action: tool(k="v", ...)     exactly one tool call for the current step
//	Complete: <text...>          final answer, may span multiple lines
//
// Models routinely echo labels for other step numbers (repeating earlier
// steps or anticipating future ones). The parser is step-number-aware: only
// lines scoped to the requested step are consumed, everything else is
// skipped. A Complete result keeps capturing until the next step label or
// end of text, preserving embedded blank lines; stopping at the first blank
// line would truncate legitimate multi-line answers.
var (
	stepLabelRe = regexp.MustCompile(`^\s*Step\s+(\d+)\s*:\s*(.*)$`)
	thoughtRe   = regexp.MustCompile(`^\s*Thought(?:\s+(\d+))?\s*:\s*(.*)$`)
	actionRe    = regexp.MustCompile(`^\s*Action(?:\s+(\d+))?\s*:\s*(.*)$`)
	completeRe  = regexp.MustCompile(`^\s*Complete(?:\s+(\d+))?\s*:\s*(.*)$`)

	callRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*$`)
	argRe  = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*=\s*"((?:[^"\\]|\\.)*)"`)
)

// StepOutput is the parsed content of one model response for one step.
// At most one of Action/Complete is acted upon by the engine; Complete wins
// when both are present.
type StepOutput struct {
	Thought  string
	Action   *core.ToolAction
	Complete *string
}

// IsMalformed reports whether the response carried neither an action nor a
// completion for the requested step.
func (o StepOutput) IsMalformed() bool { return o.Action == nil && o.Complete == nil }

// ParseStep extracts the Thought/Action/Complete content belonging to step
// number step from a raw model response.
func ParseStep(raw string, step int) StepOutput {
	var out StepOutput

	current := step // lines before any explicit label belong to the requested step
	capturing := false
	var completeLines []string

	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := stepLabelRe.FindStringSubmatch(line); m != nil {
			current, _ = strconv.Atoi(m[1])
			capturing = false
			// A label may carry content on the same line (Step 2: Thought: ...).
			if rest := m[2]; strings.TrimSpace(rest) != "" {
				lines[i] = rest
				i--
			}
			continue
		}

		if m := completeRe.FindStringSubmatch(line); m != nil {
			capturing = false
			n := labelNumber(m[1], current)
			if n == step && out.Complete == nil {
				completeLines = append(completeLines, m[2])
				capturing = true
				done := m[2] // placeholder, replaced on flush below
				out.Complete = &done
			}
			continue
		}

		if m := thoughtRe.FindStringSubmatch(line); m != nil {
			capturing = false
			if n := labelNumber(m[1], current); n == step && out.Thought == "" {
				out.Thought = strings.TrimSpace(m[2])
			}
			continue
		}

		if m := actionRe.FindStringSubmatch(line); m != nil {
			capturing = false
			if n := labelNumber(m[1], current); n == step && out.Action == nil {
				if action, ok := ParseAction(m[2]); ok {
					out.Action = action
				}
			}
			continue
		}

		if capturing {
			completeLines = append(completeLines, line)
		}
	}

	if out.Complete != nil {
		result := strings.TrimRight(strings.Join(completeLines, "\n"), " \t\n")
		result = strings.TrimSpace(result)
		out.Complete = &result
	}
	return out
}

// labelNumber resolves an optional inline label number (Thought 3:) falling
// back to the ambient step scope.
func labelNumber(label string, current int) int {
	if label == "" {
		return current
	}
	n, err := strconv.Atoi(label)
	if err != nil {
		return current
	}
	return n
}

// ParseAction parses a tool call of the form name(key="value", ...). The
// boolean is false when the text does not match the call grammar.
func ParseAction(s string) (*core.ToolAction, bool) {
	m := callRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	action := &core.ToolAction{Name: m[1]}
	args := argRe.FindAllStringSubmatch(m[2], -1)
	if len(args) > 0 {
		action.Params = make(map[string]string, len(args))
		for _, a := range args {
			action.Params[a[1]] = unescape(a[2])
		}
	}
	return action, true
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}
