package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/recruit-advisor/internal/llm"
)

// Provider implements llm.Provider for OpenAI and OpenAI-compatible APIs
type Provider struct {
	name         string
	apiKey       string
	defaultModel string
	models       []string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new OpenAI provider
func NewProvider(apiKey, defaultModel, baseURL string) *Provider {
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Provider{
		name:         "openai",
		apiKey:       apiKey,
		defaultModel: defaultModel,
		models:       []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-4.1", "gpt-4.1-mini"},
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      baseURL,
	}
}

// NewCompatible creates a provider for a vendor exposing the OpenAI chat completions API
func NewCompatible(name, apiKey, defaultModel, baseURL string, models []string) *Provider {
	p := NewProvider(apiKey, defaultModel, baseURL)
	p.name = name
	p.models = models
	return p
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return p.name
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return p.models
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Tools          []chatTool      `json:"tools,omitempty"`
	ToolChoice     string          `json:"tool_choice,omitempty"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *llm.Schema `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   *string        `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate runs one chat completion
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	chatReq, err := buildRequest(model, req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError(p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, llm.StatusError(p.name, resp)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out, err := parseResponse(chatResp)
	if err != nil {
		return nil, err
	}
	out.Model = model
	out.TokensUsed = chatResp.Usage.TotalTokens
	out.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}

func buildRequest(model string, req llm.Request) (*chatRequest, error) {
	chatReq := &chatRequest{
		Model:       model,
		Temperature: req.Temperature,
	}
	if req.JSONOutput {
		chatReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	if req.System != "" {
		chatReq.Messages = append(chatReq.Messages, chatMessage{Role: "system", Content: strPtr(req.System)})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleModel:
			m := chatMessage{Role: "assistant"}
			if msg.Text != "" {
				m.Content = strPtr(msg.Text)
			}
			for i, call := range msg.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal tool arguments: %w", err)
				}
				tc := chatToolCall{ID: callID(call.ID, i), Type: "function"}
				tc.Function.Name = call.Name
				tc.Function.Arguments = string(args)
				m.ToolCalls = append(m.ToolCalls, tc)
			}
			chatReq.Messages = append(chatReq.Messages, m)
		case llm.RoleTool:
			for i, res := range msg.ToolResults {
				payload, err := json.Marshal(res.Payload)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal tool result: %w", err)
				}
				chatReq.Messages = append(chatReq.Messages, chatMessage{
					Role:       "tool",
					Content:    strPtr(string(payload)),
					ToolCallID: callID(res.CallID, i),
				})
			}
		default:
			chatReq.Messages = append(chatReq.Messages, chatMessage{Role: "user", Content: strPtr(msg.Text)})
		}
	}

	for _, t := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, chatTool{
			Type:     "function",
			Function: chatFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	if len(chatReq.Tools) > 0 {
		chatReq.ToolChoice = "auto"
		if req.ToolMode == llm.ToolModeNone {
			chatReq.ToolChoice = "none"
		}
	}

	return chatReq, nil
}

func parseResponse(chatResp chatResponse) (*llm.Response, error) {
	if len(chatResp.Choices) == 0 {
		return llm.NewResponse(nil, 0), nil
	}

	msg := chatResp.Choices[0].Message
	var parts []llm.Part
	if msg.Content != nil && *msg.Content != "" {
		parts = append(parts, llm.Part{Kind: llm.PartText, Text: *msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
			}
		}
		call := llm.ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args}
		parts = append(parts, llm.Part{Kind: llm.PartToolCall, ToolCall: &call})
	}

	return llm.NewResponse(parts, len(chatResp.Choices)), nil
}

// callID keeps tool call and tool result ids paired when the caller did not keep them
func callID(id string, i int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("call_%d", i)
}

func strPtr(s string) *string {
	return &s
}
