package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noteflow-ai/noteflow/internal/util"
)

// RunStatus is the lifecycle state of a reasoning run.
type RunStatus int

const (
	// RunRunning is the non-terminal in-progress state.
	RunRunning RunStatus = iota
	// RunCompleted means the model produced a final answer.
	RunCompleted
	// RunFailed means the model call itself failed mid-run. Prior steps may
	// already have executed side-effecting actions, so failed runs are never
	// retried automatically.
	RunFailed
	// RunStepLimitExceeded means the step budget ran out before completion.
	RunStepLimitExceeded
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	switch s {
	case RunRunning:
		return "RUNNING"
	case RunCompleted:
		return "COMPLETED"
	case RunFailed:
		return "ERROR"
	case RunStepLimitExceeded:
		return "STEP_LIMIT_EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status ends a run.
func (s RunStatus) Terminal() bool { return s != RunRunning }

// ToolAction is a named, parameterized operation requested by the model and
// performed by an external executor. The reasoning engine treats it as opaque.
type ToolAction struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// String renders the action in the same shape the model emits it,
// e.g. delete_note(path="inbox/test.md"). Parameters are sorted by name so
// transcripts replayed to the model are stable across runs.
func (a ToolAction) String() string {
	if len(a.Params) == 0 {
		return a.Name + "()"
	}
	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, a.Params[k]))
	}
	return fmt.Sprintf("%s(%s)", a.Name, strings.Join(parts, ", "))
}

// ReasoningStep is one Thought/Action/Observation triple. A step is immutable
// once its observation is recorded; the engine only appends new steps.
type ReasoningStep struct {
	Number      int         `json:"number"`
	Thought     string      `json:"thought,omitempty"`
	Action      *ToolAction `json:"action,omitempty"`
	Observation *string     `json:"observation,omitempty"`
}

// ReasoningContext accumulates the state of one reasoning run. It is owned by
// exactly one run and must not be shared across goroutines.
type ReasoningContext struct {
	// RunID uniquely identifies the run for log correlation.
	RunID       string          `json:"run_id"`
	Query       string          `json:"query"`
	Steps       []ReasoningStep `json:"steps"`
	Status      RunStatus       `json:"status"`
	Completed   bool            `json:"completed"`
	FinalResult *string         `json:"final_result,omitempty"`
}

// NewReasoningContext starts an empty running context for query.
func NewReasoningContext(query string) *ReasoningContext {
	return &ReasoningContext{RunID: util.NewID(), Query: query, Status: RunRunning}
}

// NextStepNumber returns the number the next appended step must carry.
// Step numbers are strictly increasing from 1 with no gaps.
func (rc *ReasoningContext) NextStepNumber() int { return len(rc.Steps) + 1 }

// AppendStep records a completed step. It enforces the strictly-increasing
// numbering invariant and rejects appends after a terminal transition.
func (rc *ReasoningContext) AppendStep(step ReasoningStep) error {
	if rc.Status.Terminal() {
		return fmt.Errorf("reasoning context already terminal (%s)", rc.Status)
	}
	if want := rc.NextStepNumber(); step.Number != want {
		return fmt.Errorf("step number %d out of order, want %d", step.Number, want)
	}
	rc.Steps = append(rc.Steps, step)
	return nil
}

// Finish transitions the context into a terminal status with the user-facing
// result text. Every terminal status carries a non-nil FinalResult.
func (rc *ReasoningContext) Finish(status RunStatus, result string) {
	if !status.Terminal() || rc.Status.Terminal() {
		return
	}
	rc.Status = status
	rc.Completed = true
	rc.FinalResult = &result
}

// Result returns the final result text or an empty string while running.
func (rc *ReasoningContext) Result() string {
	if rc.FinalResult == nil {
		return ""
	}
	return *rc.FinalResult
}
