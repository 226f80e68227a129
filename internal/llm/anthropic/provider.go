package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/recruit-advisor/internal/llm"
)

// Provider implements llm.Provider for Anthropic
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new Anthropic provider
func NewProvider(apiKey, defaultModel, baseURL string) *Provider {
	if defaultModel == "" {
		defaultModel = "claude-3-5-haiku-latest"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      baseURL,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-3-5-haiku-latest",
		"claude-3-5-sonnet-latest",
		"claude-3-7-sonnet-latest",
		"claude-sonnet-4-0",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  *toolChoice        `json:"tool_choice,omitempty"`
	Temperature *float32           `json:"temperature,omitempty"`
}

type toolChoice struct {
	Type string `json:"type"`
}

type anthropicTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema *llm.Schema `json:"input_schema"`
}

type anthropicMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type anthropicResponse struct {
	Content []contentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate runs one messages API call
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	anthropicReq, err := buildRequest(model, req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError("anthropic", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, llm.StatusError("anthropic", resp)
	}

	var anthropicResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := parseResponse(anthropicResp)
	out.Model = model
	out.TokensUsed = anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens
	out.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}

func buildRequest(model string, req llm.Request) (*anthropicRequest, error) {
	system := req.System
	if req.JSONOutput {
		system += "\n\nRespond with a single JSON document and nothing else."
	}

	out := &anthropicRequest{
		Model:       model,
		MaxTokens:   2048,
		System:      system,
		Temperature: req.Temperature,
	}

	// Messages must open with a user turn; a leading greeting moves into
	// the system prompt.
	messages := req.Messages
	for len(messages) > 0 && messages[0].Role == llm.RoleModel && len(messages[0].ToolCalls) == 0 {
		if messages[0].Text != "" {
			out.System += "\n\nYou opened this conversation with:\n" + messages[0].Text
		}
		messages = messages[1:]
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleModel:
			m := anthropicMessage{Role: "assistant"}
			if msg.Text != "" {
				m.Content = append(m.Content, contentBlock{Type: "text", Text: msg.Text})
			}
			for i, call := range msg.ToolCalls {
				m.Content = append(m.Content, contentBlock{
					Type:  "tool_use",
					ID:    toolUseID(call.ID, i),
					Name:  call.Name,
					Input: call.Args,
				})
			}
			out.Messages = append(out.Messages, m)
		case llm.RoleTool:
			m := anthropicMessage{Role: "user"}
			for i, res := range msg.ToolResults {
				payload, err := json.Marshal(res.Payload)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal tool result: %w", err)
				}
				m.Content = append(m.Content, contentBlock{
					Type:      "tool_result",
					ToolUseID: toolUseID(res.CallID, i),
					Content:   string(payload),
				})
			}
			out.Messages = append(out.Messages, m)
		default:
			out.Messages = append(out.Messages, anthropicMessage{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: msg.Text}},
			})
		}
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}
	if len(out.Tools) > 0 {
		out.ToolChoice = &toolChoice{Type: "auto"}
		if req.ToolMode == llm.ToolModeNone {
			out.ToolChoice = &toolChoice{Type: "none"}
		}
	}

	return out, nil
}

func parseResponse(resp anthropicResponse) *llm.Response {
	var parts []llm.Part
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			parts = append(parts, llm.Part{Kind: llm.PartText, Text: block.Text})
		case "tool_use":
			call := llm.ToolCall{ID: block.ID, Name: block.Name, Args: block.Input}
			parts = append(parts, llm.Part{Kind: llm.PartToolCall, ToolCall: &call})
		default:
			parts = append(parts, llm.Part{Kind: llm.PartOther})
		}
	}
	candidates := 0
	if len(parts) > 0 {
		candidates = 1
	}
	return llm.NewResponse(parts, candidates)
}

func toolUseID(id string, i int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("toolu_%d", i)
}
