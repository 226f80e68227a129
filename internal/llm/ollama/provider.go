package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/recruit-advisor/internal/llm"
)

// Provider implements llm.Provider for Ollama
type Provider struct {
	host         string
	defaultModel string
	client       *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(host, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "llama3.1"
	}
	return &Provider{
		host:         host,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 300 * time.Second},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "ollama"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"llama3.1",
		"llama3.2",
		"mistral",
		"mixtral",
		"qwen2.5",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		Parameters  *llm.Schema `json:"parameters,omitempty"`
	} `json:"function"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	EvalCount       int           `json:"eval_count"`
	PromptEvalCount int           `json:"prompt_eval_count"`
}

// Generate runs one /api/chat call
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	ollamaReq, err := buildRequest(model, req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError("ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, llm.StatusError("ollama", resp)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var parts []llm.Part
	if ollamaResp.Message.Content != "" {
		parts = append(parts, llm.Part{Kind: llm.PartText, Text: ollamaResp.Message.Content})
	}
	for _, tc := range ollamaResp.Message.ToolCalls {
		call := llm.ToolCall{Name: tc.Function.Name, Args: tc.Function.Arguments}
		parts = append(parts, llm.Part{Kind: llm.PartToolCall, ToolCall: &call})
	}

	candidates := 0
	if len(parts) > 0 {
		candidates = 1
	}
	out := llm.NewResponse(parts, candidates)
	out.Model = model
	out.TokensUsed = ollamaResp.EvalCount + ollamaResp.PromptEvalCount
	out.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}

func buildRequest(model string, req llm.Request) (*ollamaRequest, error) {
	out := &ollamaRequest{
		Model:   model,
		Stream:  false,
		Options: map[string]any{"num_predict": 4096},
	}
	if req.Temperature != nil {
		out.Options["temperature"] = *req.Temperature
	}
	if req.JSONOutput {
		out.Format = "json"
	}

	if req.System != "" {
		out.Messages = append(out.Messages, ollamaMessage{Role: "system", Content: req.System})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleModel:
			m := ollamaMessage{Role: "assistant", Content: msg.Text}
			for _, call := range msg.ToolCalls {
				var tc ollamaToolCall
				tc.Function.Name = call.Name
				tc.Function.Arguments = call.Args
				m.ToolCalls = append(m.ToolCalls, tc)
			}
			out.Messages = append(out.Messages, m)
		case llm.RoleTool:
			for _, res := range msg.ToolResults {
				payload, err := json.Marshal(res.Payload)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal tool result: %w", err)
				}
				out.Messages = append(out.Messages, ollamaMessage{Role: "tool", Content: string(payload)})
			}
		default:
			out.Messages = append(out.Messages, ollamaMessage{Role: "user", Content: msg.Text})
		}
	}

	// Ollama has no tool_choice; withholding the tools is the only way to disable them
	if req.ToolMode != llm.ToolModeNone {
		for _, t := range req.Tools {
			var tool ollamaTool
			tool.Type = "function"
			tool.Function.Name = t.Name
			tool.Function.Description = t.Description
			tool.Function.Parameters = t.Parameters
			out.Tools = append(out.Tools, tool)
		}
	}

	return out, nil
}
