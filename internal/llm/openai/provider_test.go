package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ToolCall(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": null, "tool_calls": [
				{"id": "call_abc", "type": "function", "function": {"name": "google_search", "arguments": "{\"query\":\"D1 soccer camps\"}"}}
			]}}],
			"usage": {"total_tokens": 17}
		}`))
	}))
	defer srv.Close()

	p := NewProvider("key", "gpt-4o-mini", srv.URL)
	resp, err := p.Generate(context.Background(), llm.Request{
		System:   "sys",
		Messages: []llm.Message{llm.UserText("find camps")},
		Tools: []llm.ToolSpec{{
			Name:       "google_search",
			Parameters: &llm.Schema{Type: "object", Properties: map[string]*llm.Schema{"query": {Type: "string"}}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, llm.KindToolCalls, resp.Kind)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_abc", resp.ToolCalls[0].ID)
	assert.Equal(t, "D1 soccer camps", resp.ToolCalls[0].Args["query"])
	assert.Equal(t, 17, resp.TokensUsed)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "auto", captured.ToolChoice)
	assert.Equal(t, "google_search", captured.Tools[0].Function.Name)
}

func TestGenerate_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProvider("key", "", srv.URL)
	_, err := p.Generate(context.Background(), llm.Request{Messages: []llm.Message{llm.UserText("hi")}})
	require.Error(t, err)

	var transient *domain.TransientError
	assert.True(t, errors.As(err, &transient))
}

func TestBuildRequest_ToolRoundTrip(t *testing.T) {
	req := llm.Request{
		Messages: []llm.Message{
			llm.UserText("q"),
			{Role: llm.RoleModel, ToolCalls: []llm.ToolCall{{Name: "google_search", Args: map[string]any{"query": "q"}}}},
			{Role: llm.RoleTool, ToolResults: []llm.ToolResult{{Name: "google_search", Payload: map[string]any{"status": "success"}}}},
		},
	}

	chatReq, err := buildRequest("m", req)
	require.NoError(t, err)
	require.Len(t, chatReq.Messages, 3)

	assistant := chatReq.Messages[1]
	tool := chatReq.Messages[2]
	assert.Equal(t, "assistant", assistant.Role)
	assert.Equal(t, "tool", tool.Role)
	assert.Equal(t, assistant.ToolCalls[0].ID, tool.ToolCallID)
	assert.JSONEq(t, `{"status":"success"}`, *tool.Content)
	assert.Empty(t, chatReq.ToolChoice)
}

func TestNewCompatible(t *testing.T) {
	p := NewCompatible("deepseek", "k", "deepseek-chat", "https://api.deepseek.com/v1", []string{"deepseek-chat"})
	assert.Equal(t, "deepseek", p.Name())
	assert.Equal(t, []string{"deepseek-chat"}, p.AvailableModels())
	assert.True(t, p.IsConfigured())
}
