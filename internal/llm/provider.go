package llm

import "context"

// Role identifies the author of a message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// ToolCall is a function invocation requested by the model
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult carries a tool payload back to the model
type ToolResult struct {
	CallID  string         `json:"call_id,omitempty"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

// Message is one entry of the conversation sent to a provider.
// A model message may carry tool calls; a tool message carries results.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// UserText builds a user message
func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ModelText builds a model message
func ModelText(text string) Message {
	return Message{Role: RoleModel, Text: text}
}

// Schema is the JSON-schema subset used to describe tool parameters
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ToolSpec declares a callable tool to the model
type ToolSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters"`
}

// ToolMode controls whether the model may request tools
type ToolMode string

const (
	ToolModeAuto ToolMode = "auto"
	ToolModeNone ToolMode = "none"
)

// Request contains generation parameters
type Request struct {
	System      string
	Messages    []Message
	Tools       []ToolSpec
	ToolMode    ToolMode
	Model       string
	Temperature *float32
	// JSONOutput asks the provider for a bare JSON document when it supports it
	JSONOutput bool
}

// ResponseKind tells what a response carries
type ResponseKind int

const (
	KindEmpty ResponseKind = iota
	KindText
	KindToolCalls
)

func (k ResponseKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindToolCalls:
		return "tool_calls"
	default:
		return "empty"
	}
}

// PartKind tells what a response part carries
type PartKind int

const (
	PartText PartKind = iota
	PartToolCall
	PartOther
)

// Part is one element of the first candidate's content
type Part struct {
	Kind     PartKind
	Text     string
	ToolCall *ToolCall
}

// Response contains the generation result.
// Text is only set when the provider returned a single candidate whose
// parts are all text; callers fall back to Parts otherwise.
type Response struct {
	Kind       ResponseKind
	Text       string
	ToolCalls  []ToolCall
	Parts      []Part
	Candidates int
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Generate runs one model call over the given conversation
	Generate(ctx context.Context, req Request) (*Response, error)
}

// NewResponse derives Kind, Text and ToolCalls from the first candidate's parts
func NewResponse(parts []Part, candidates int) *Response {
	resp := &Response{Parts: parts, Candidates: candidates}

	allText := len(parts) > 0
	var text string
	for _, p := range parts {
		switch p.Kind {
		case PartToolCall:
			resp.ToolCalls = append(resp.ToolCalls, *p.ToolCall)
			allText = false
		case PartText:
			text += p.Text
		default:
			allText = false
		}
	}

	switch {
	case len(resp.ToolCalls) > 0:
		resp.Kind = KindToolCalls
	case allText && candidates == 1:
		resp.Kind = KindText
		resp.Text = text
	case text != "":
		resp.Kind = KindText
	}
	return resp
}
