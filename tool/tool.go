// Package tool implements the tool-action contract between the reasoning
// engine and external executors: a registry of per-tool parameter specs that
// is the single source of truth for both the system prompt catalog and
// boundary validation, plus a dispatch-table executor for plain Go handlers.
package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/noteflow-ai/noteflow/core"
)

// ErrUnknownTool marks actions whose name is outside the registered
// vocabulary. Callers convert it into an "unknown tool" observation rather
// than failing the run.
var ErrUnknownTool = errors.New("unknown tool")

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// ParamSpec describes one named parameter of a tool.
type ParamSpec struct {
	Name        string
	Description string
	Required    bool
}

// Spec declares one tool of the closed vocabulary: its name, the description
// shown to the model, and its parameter shape.
type Spec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// signature renders the spec the way the model is expected to emit it,
// e.g. delete_note(path).
func (s Spec) signature() string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(names, ", "))
}

// Registry is the closed tool vocabulary. It renders the catalog embedded in
// the system prompt AND validates incoming actions, so the prompt and the
// execution boundary cannot drift apart. Registries are immutable after
// construction and safe for concurrent use.
type Registry struct {
	order []string
	specs map[string]Spec
}

// NewRegistry builds a registry from the given specs, preserving order for
// catalog rendering.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		if _, dup := r.specs[s.Name]; dup {
			continue
		}
		r.specs[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	return r
}

// VaultRegistry returns the markdown note vault vocabulary shared between
// the reasoning prompt and vault executors.
func VaultRegistry() *Registry {
	return NewRegistry(
		Spec{
			Name:        "create_note",
			Description: "Create a new markdown note at the given vault path",
			Params: []ParamSpec{
				{Name: "path", Description: "Vault-relative note path ending in .md", Required: true},
				{Name: "content", Description: "Markdown body of the note", Required: true},
			},
		},
		Spec{
			Name:        "read_note",
			Description: "Read the full content of a note",
			Params: []ParamSpec{
				{Name: "path", Description: "Vault-relative note path", Required: true},
			},
		},
		Spec{
			Name:        "update_note",
			Description: "Replace the content of an existing note",
			Params: []ParamSpec{
				{Name: "path", Description: "Vault-relative note path", Required: true},
				{Name: "content", Description: "New markdown body", Required: true},
			},
		},
		Spec{
			Name:        "append_note",
			Description: "Append markdown to the end of an existing note",
			Params: []ParamSpec{
				{Name: "path", Description: "Vault-relative note path", Required: true},
				{Name: "content", Description: "Markdown to append", Required: true},
			},
		},
		Spec{
			Name:        "delete_note",
			Description: "Delete a note from the vault. This cannot be undone",
			Params: []ParamSpec{
				{Name: "path", Description: "Vault-relative note path", Required: true},
			},
		},
		Spec{
			Name:        "list_notes",
			Description: "List all note paths in the vault",
		},
		Spec{
			Name:        "search_notes",
			Description: "Search note contents and return matching paths with snippets",
			Params: []ParamSpec{
				{Name: "query", Description: "Search text", Required: true},
			},
		},
	)
}

// Names returns the vocabulary in catalog order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Spec returns the spec for a tool name.
func (r *Registry) Spec(name string) (Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Validate checks an action against the vocabulary: the name must be
// registered, every required parameter present and non-empty, and no
// unexpected parameters supplied.
func (r *Registry) Validate(action core.ToolAction) error {
	spec, ok := r.specs[action.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, action.Name)
	}
	allowed := make(map[string]bool, len(spec.Params))
	for _, p := range spec.Params {
		allowed[p.Name] = true
		if p.Required && strings.TrimSpace(action.Params[p.Name]) == "" {
			return NewToolError(action.Name, fmt.Sprintf("missing required parameter %q", p.Name), "VALIDATION_ERROR")
		}
	}
	for name := range action.Params {
		if !allowed[name] {
			return NewToolError(action.Name, fmt.Sprintf("unexpected parameter %q", name), "VALIDATION_ERROR")
		}
	}
	return nil
}

// Catalog renders the vocabulary for embedding into the system prompt. One
// line per tool with its signature and description, followed by indented
// parameter docs.
func (r *Registry) Catalog() string {
	var sb strings.Builder
	for _, name := range r.order {
		spec := r.specs[name]
		sb.WriteString(fmt.Sprintf("- %s — %s\n", spec.signature(), spec.Description))
		for _, p := range spec.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			sb.WriteString(fmt.Sprintf("    %s (%s): %s\n", p.Name, req, p.Description))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Handler executes one tool call with validated string parameters and
// returns a human-readable observation. The context carries the per-call
// deadline; handlers doing I/O must pass it through.
type Handler func(ctx context.Context, params map[string]string) (string, error)

// FuncExecutor is a dispatch-table core.ToolExecutor over plain Go handlers.
// Its table is checked against a Registry so a tool documented in the prompt
// but left unimplemented (or vice versa) is caught by contract tests.
type FuncExecutor struct {
	registry *Registry
	handlers map[string]Handler
}

// NewFuncExecutor creates an executor bound to the given vocabulary.
func NewFuncExecutor(registry *Registry) *FuncExecutor {
	return &FuncExecutor{registry: registry, handlers: make(map[string]Handler)}
}

// Register installs the handler for a registered tool name. Registering a
// name outside the vocabulary is a programming error and returns ErrUnknownTool.
func (e *FuncExecutor) Register(name string, h Handler) error {
	if _, ok := e.registry.Spec(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	e.handlers[name] = h
	return nil
}

// Execute implements core.ToolExecutor: validate against the vocabulary,
// then dispatch. Every failure is an error; the reasoning engine converts it
// into a failure observation.
//
// The context deadline is enforced even against handlers that ignore it: the
// handler runs on its own goroutine and Execute returns a TIMEOUT error the
// moment the context is done. An abandoned handler keeps running until it
// finishes; its result is discarded.
func (e *FuncExecutor) Execute(ctx context.Context, action core.ToolAction) (string, error) {
	if err := e.registry.Validate(action); err != nil {
		return "", err
	}
	h, ok := e.handlers[action.Name]
	if !ok {
		return "", NewToolError(action.Name, "no handler registered", "EXECUTION_ERROR")
	}
	if err := ctx.Err(); err != nil {
		return "", NewToolError(action.Name, err.Error(), "TIMEOUT")
	}

	type outcome struct {
		out string
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := h(ctx, action.Params)
		done <- outcome{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", NewToolError(action.Name, ctx.Err().Error(), "TIMEOUT")
	case o := <-done:
		if o.err != nil {
			if _, isToolErr := o.err.(*ToolError); isToolErr {
				return "", o.err
			}
			return "", NewToolError(action.Name, o.err.Error(), "EXECUTION_ERROR")
		}
		return o.out, nil
	}
}

// MissingHandlers reports registry names with no installed handler, used by
// contract tests to detect prompt/executor drift.
func (e *FuncExecutor) MissingHandlers() []string {
	var missing []string
	for _, name := range e.registry.Names() {
		if _, ok := e.handlers[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
