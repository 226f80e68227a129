package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Provider struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

func NewProvider(cfg config.GeminiConfig, opts ...option.ClientOption) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		opts:   opts,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("gemini: empty message list")
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}

	opts := append([]option.ClientOption{option.WithAPIKey(p.apiKey)}, p.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	configureModel(generativeModel, req)

	contents := toContents(req.Messages)
	last := contents[len(contents)-1]

	chat := generativeModel.StartChat()
	chat.History = contents[:len(contents)-1]

	start := time.Now()
	resp, err := chat.SendMessage(ctx, last.Parts...)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		blocked, ok := blockedResponse(err)
		if !ok {
			return nil, llm.TransportError("gemini", err)
		}
		resp = blocked
	}

	out := fromResponse(resp)
	out.Model = model
	out.LatencyMs = latency
	return out, nil
}

func configureModel(m *genai.GenerativeModel, req llm.Request) {
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Temperature != nil {
		m.SetTemperature(*req.Temperature)
	}
	if req.JSONOutput {
		m.ResponseMIMEType = "application/json"
	}

	if len(req.Tools) == 0 {
		return
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
	for _, t := range req.Tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toSchema(t.Parameters),
		})
	}
	m.Tools = []*genai.Tool{{FunctionDeclarations: decls}}

	mode := genai.FunctionCallingAuto
	if req.ToolMode == llm.ToolModeNone {
		mode = genai.FunctionCallingNone
	}
	m.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
	}
}

func toSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

// toContents maps the conversation onto gemini roles.
// Tool results travel as function responses in a user turn.
func toContents(messages []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleModel:
			c := &genai.Content{Role: "model"}
			if msg.Text != "" {
				c.Parts = append(c.Parts, genai.Text(msg.Text))
			}
			for _, call := range msg.ToolCalls {
				c.Parts = append(c.Parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
			}
			contents = append(contents, c)
		case llm.RoleTool:
			c := &genai.Content{Role: "user"}
			for _, res := range msg.ToolResults {
				c.Parts = append(c.Parts, genai.FunctionResponse{Name: res.Name, Response: res.Payload})
			}
			contents = append(contents, c)
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Text)},
			})
		}
	}
	return contents
}

// blockedResponse turns a safety or recitation block into a response without
// text so the caller falls back to its apology instead of retrying
func blockedResponse(err error) (*genai.GenerateContentResponse, bool) {
	var blocked *genai.BlockedError
	if !errors.As(err, &blocked) {
		return nil, false
	}
	if blocked.Candidate == nil {
		return &genai.GenerateContentResponse{PromptFeedback: blocked.PromptFeedback}, true
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{blocked.Candidate}}, true
}

func fromResponse(resp *genai.GenerateContentResponse) *llm.Response {
	if resp == nil || len(resp.Candidates) == 0 {
		return llm.NewResponse(nil, 0)
	}

	var parts []llm.Part
	if c := resp.Candidates[0].Content; c != nil {
		for _, part := range c.Parts {
			switch v := part.(type) {
			case genai.Text:
				parts = append(parts, llm.Part{Kind: llm.PartText, Text: string(v)})
			case genai.FunctionCall:
				call := llm.ToolCall{Name: v.Name, Args: v.Args}
				parts = append(parts, llm.Part{Kind: llm.PartToolCall, ToolCall: &call})
			default:
				parts = append(parts, llm.Part{Kind: llm.PartOther})
			}
		}
	}

	out := llm.NewResponse(parts, len(resp.Candidates))
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out
}
