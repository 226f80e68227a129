package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/xeipuuv/gojsonschema"
)

// Tool statuses reported in ToolOutput
const (
	ToolStatusSuccess   = "success"
	ToolStatusNoResults = "no_results"
	ToolStatusError     = "error"
)

// ToolOutput is what a tool hands back to the orchestrator.
// Payload is fed verbatim to the model; Sources are kept for citation.
type ToolOutput struct {
	Status  string
	Payload map[string]any
	Sources []string
}

// Tool is a capability the model may invoke.
// Execute never returns an error; failures are reported inside the payload.
type Tool interface {
	Spec() llm.ToolSpec
	Execute(ctx context.Context, args map[string]any) ToolOutput
}

// ToolValidationError reports arguments that do not match a tool's schema
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.ToolName, strings.Join(e.Errors, "; "))
}

// Registry holds the tools advertised to the model, in registration order
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry with the given tools
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool
func (r *Registry) Register(t Tool) {
	name := t.Spec().Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Specs returns the declarations of all registered tools
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Execute validates args and runs the named tool.
// Unknown tools and invalid arguments become error payloads so the turn continues.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) ToolOutput {
	t, ok := r.tools[call.Name]
	if !ok {
		return errorOutput(fmt.Sprintf("Unknown tool: %s", call.Name), "Answer without using this tool.")
	}

	if err := ValidateArgs(t.Spec(), call.Args); err != nil {
		return errorOutput(err.Error(), "Call the tool again with arguments matching its schema, or answer without it.")
	}

	return t.Execute(ctx, call.Args)
}

// ValidateArgs validates the provided arguments against the tool's parameter schema
func ValidateArgs(spec llm.ToolSpec, args map[string]any) error {
	if spec.Parameters == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(spec.Parameters), gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMsgs []string
		for _, e := range result.Errors() {
			errorMsgs = append(errorMsgs, e.String())
		}
		return &ToolValidationError{ToolName: spec.Name, Errors: errorMsgs}
	}

	return nil
}

func errorOutput(msg, suggestion string) ToolOutput {
	return ToolOutput{
		Status: ToolStatusError,
		Payload: map[string]any{
			"error":      msg,
			"suggestion": suggestion,
		},
	}
}
