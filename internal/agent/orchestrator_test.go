package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays canned responses and records every request
type scriptedModel struct {
	responses []*llm.Response
	errs      []error
	requests  []llm.Request
}

func (m *scriptedModel) Name() string              { return "scripted" }
func (m *scriptedModel) AvailableModels() []string { return []string{"scripted-1"} }
func (m *scriptedModel) DefaultModel() string      { return "scripted-1" }
func (m *scriptedModel) IsConfigured() bool        { return true }

func (m *scriptedModel) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return nil, fmt.Errorf("unexpected model call %d", i+1)
	}
	return m.responses[i], nil
}

// fakeTool returns a fixed output and records queries
type fakeTool struct {
	name    string
	output  ToolOutput
	queries []string
}

func (f *fakeTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name: f.name,
		Parameters: &llm.Schema{
			Type:       "object",
			Properties: map[string]*llm.Schema{"query": {Type: "string"}},
			Required:   []string{"query"},
		},
	}
}

func (f *fakeTool) Execute(ctx context.Context, args map[string]any) ToolOutput {
	f.queries = append(f.queries, args["query"].(string))
	return f.output
}

func textResponse(s string) *llm.Response {
	return llm.NewResponse([]llm.Part{{Kind: llm.PartText, Text: s}}, 1)
}

func toolResponse(calls ...llm.ToolCall) *llm.Response {
	parts := make([]llm.Part, 0, len(calls))
	for i := range calls {
		parts = append(parts, llm.Part{Kind: llm.PartToolCall, ToolCall: &calls[i]})
	}
	return llm.NewResponse(parts, 1)
}

func searchCall(q string) llm.ToolCall {
	return llm.ToolCall{Name: "google_search", Args: map[string]any{"query": q}}
}

func TestRun_NoToolCall(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{textResponse("Start with a short intro email.")}}
	o := NewOrchestrator(model, NewRegistry(), Options{})

	res, err := o.Run(context.Background(), TurnInput{System: "sys", Prompt: "How do I email a coach?"})
	require.NoError(t, err)

	assert.Equal(t, "Start with a short intro email.", res.Text)
	assert.Equal(t, 1, res.ModelCalls)
	assert.Equal(t, []State{StateAwaitFirstResponse, StateDone}, res.Trace)
	require.Len(t, model.requests, 1)
	assert.Equal(t, "sys", model.requests[0].System)
	assert.Equal(t, llm.ToolModeAuto, model.requests[0].ToolMode)
}

func TestRun_NoResultsStillSynthesizes(t *testing.T) {
	tool := &fakeTool{name: "google_search", output: ToolOutput{
		Status:  ToolStatusNoResults,
		Payload: map[string]any{"status": "no_results", "message": "No search results found"},
	}}
	model := &scriptedModel{responses: []*llm.Response{
		toolResponse(searchCall("Stanford volleyball coach email")),
		textResponse("I could not find a listed email; try the staff directory."),
	}}
	o := NewOrchestrator(model, NewRegistry(tool), Options{})

	res, err := o.Run(context.Background(), TurnInput{Prompt: "Stanford volleyball coach email?"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Stanford volleyball coach email"}, tool.queries)
	assert.Equal(t, 2, res.ModelCalls)
	assert.NotEmpty(t, res.Text)
	assert.NotContains(t, res.Text, "**Sources:**")
	assert.Equal(t, []State{StateAwaitFirstResponse, StateAwaitToolResults, StateAwaitSynthesis, StateDone}, res.Trace)

	synthesis := model.requests[1]
	require.Len(t, synthesis.Messages, 3)
	assert.Equal(t, llm.RoleModel, synthesis.Messages[1].Role)
	assert.Equal(t, llm.RoleTool, synthesis.Messages[2].Role)
	assert.Equal(t, "no_results", synthesis.Messages[2].ToolResults[0].Payload["status"])
	assert.NotEmpty(t, synthesis.Tools, "tools stay advertised on the synthesis call")
}

func TestRun_ToolLoopCap(t *testing.T) {
	tool := &fakeTool{name: "google_search", output: ToolOutput{Status: ToolStatusSuccess, Payload: map[string]any{}}}
	second := toolResponse(searchCall("again"))
	second.Parts = append(second.Parts, llm.Part{Kind: llm.PartText, Text: "Partial answer."})
	model := &scriptedModel{responses: []*llm.Response{toolResponse(searchCall("first")), second}}
	o := NewOrchestrator(model, NewRegistry(tool), Options{})

	res, err := o.Run(context.Background(), TurnInput{Prompt: "q"})
	require.NoError(t, err)

	assert.Len(t, model.requests, 2)
	assert.Equal(t, []string{"first"}, tool.queries)
	assert.Equal(t, "Partial answer.", res.Text)
}

func TestRun_ToolsRunSequentiallyInOrder(t *testing.T) {
	tool := &fakeTool{name: "google_search", output: ToolOutput{
		Status:  ToolStatusSuccess,
		Payload: map[string]any{"status": "success"},
		Sources: []string{"https://a.example", "https://b.example"},
	}}
	model := &scriptedModel{responses: []*llm.Response{
		toolResponse(searchCall("rules"), searchCall("contacts")),
		textResponse("Here is what I found."),
	}}
	o := NewOrchestrator(model, NewRegistry(tool), Options{})

	res, err := o.Run(context.Background(), TurnInput{Prompt: "q"})
	require.NoError(t, err)

	assert.Equal(t, []string{"rules", "contacts"}, tool.queries)
	assert.Equal(t, 2, res.ToolCalls)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, res.Sources)
	assert.Equal(t, "Here is what I found.\n\n---\n**Sources:**\n1. https://a.example\n2. https://b.example\n", res.Text)
	assert.Len(t, model.requests[1].Messages[2].ToolResults, 2)
}

func TestRun_ToolErrorPayloadDoesNotFailTurn(t *testing.T) {
	tool := &fakeTool{name: "google_search", output: ToolOutput{
		Status: ToolStatusError,
		Payload: map[string]any{
			"error":                "CRITICAL: Search API credentials are missing. Unable to retrieve current information.",
			"fallback_instruction": "Inform the user...",
		},
	}}
	model := &scriptedModel{responses: []*llm.Response{
		toolResponse(searchCall("NCAA dead period")),
		textResponse("I can't search right now, but generally..."),
	}}
	o := NewOrchestrator(model, NewRegistry(tool), Options{})

	res, err := o.Run(context.Background(), TurnInput{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "I can't search right now, but generally...", res.Text)
	assert.Contains(t, model.requests[1].Messages[2].ToolResults[0].Payload, "fallback_instruction")
}

func TestRun_UnknownToolBecomesErrorPayload(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{
		toolResponse(llm.ToolCall{Name: "send_email", Args: map[string]any{}}),
		textResponse("done"),
	}}
	o := NewOrchestrator(model, NewRegistry(), Options{})

	res, err := o.Run(context.Background(), TurnInput{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Text)
	assert.Contains(t, model.requests[1].Messages[2].ToolResults[0].Payload["error"], "Unknown tool")
}

func TestRun_InvalidArgsBecomeErrorPayload(t *testing.T) {
	tool := &fakeTool{name: "google_search"}
	model := &scriptedModel{responses: []*llm.Response{
		toolResponse(llm.ToolCall{Name: "google_search", Args: map[string]any{"q": "wrong key"}}),
		textResponse("done"),
	}}
	o := NewOrchestrator(model, NewRegistry(tool), Options{})

	_, err := o.Run(context.Background(), TurnInput{Prompt: "q"})
	require.NoError(t, err)
	assert.Empty(t, tool.queries)
	assert.Contains(t, model.requests[1].Messages[2].ToolResults[0].Payload["error"], "invalid arguments")
}

func TestRun_ModelErrorPropagates(t *testing.T) {
	transient := domain.NewTransientError("gemini generate", errors.New("503"))
	model := &scriptedModel{errs: []error{transient}}
	o := NewOrchestrator(model, NewRegistry(), Options{})

	_, err := o.Run(context.Background(), TurnInput{Prompt: "q"})
	require.Error(t, err)

	var te *domain.TransientError
	assert.True(t, errors.As(err, &te))
}

func TestBuildMessages_Bounded(t *testing.T) {
	for n := 0; n <= 4; n++ {
		for historyLen := 0; historyLen <= 8; historyLen++ {
			history := make([]domain.Turn, historyLen)
			for i := range history {
				history[i] = domain.Turn{PromptText: fmt.Sprintf("p%d", i), ResponseText: fmt.Sprintf("r%d", i)}
			}

			msgs := BuildMessages(history, "new", n)

			assert.LessOrEqual(t, len(msgs), 2*n+1)
			assert.Equal(t, "new", msgs[len(msgs)-1].Text)
			if historyLen > 0 && n > 0 {
				assert.Equal(t, fmt.Sprintf("r%d", historyLen-1), msgs[len(msgs)-2].Text, "most recent turn is kept")
			}
		}
	}
}

func TestBuildMessages_Alternates(t *testing.T) {
	history := []domain.Turn{{PromptText: "a", ResponseText: "b"}, {PromptText: "c", ResponseText: "d"}}

	msgs := BuildMessages(history, "e", 10)

	roles := make([]string, len(msgs))
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = string(m.Role)
		texts[i] = m.Text
	}
	assert.Equal(t, "user,model,user,model,user", strings.Join(roles, ","))
	assert.Equal(t, "a,b,c,d,e", strings.Join(texts, ","))
}

func TestBuildMessages_WelcomeTurn(t *testing.T) {
	history := []domain.Turn{{ResponseText: "Welcome, I'm Coach Alex"}, {PromptText: "hi", ResponseText: "hello"}}

	msgs := BuildMessages(history, "How do I email a coach?", 10)

	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleModel, msgs[0].Role)
	assert.Equal(t, "Welcome, I'm Coach Alex", msgs[0].Text)
	for _, m := range msgs {
		if m.Role == llm.RoleUser {
			assert.NotEmpty(t, m.Text)
		}
	}
	assert.Equal(t, "How do I email a coach?", msgs[3].Text)
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		resp *llm.Response
		want string
	}{
		{"canonical text", textResponse("hello"), "hello"},
		{"nil response", nil, ApologyNoCandidates},
		{"no candidates", llm.NewResponse(nil, 0), ApologyNoCandidates},
		{"multiple candidates", llm.NewResponse([]llm.Part{{Kind: llm.PartText, Text: "first"}}, 2), "first"},
		{"mixed parts", llm.NewResponse([]llm.Part{{Kind: llm.PartOther}, {Kind: llm.PartText, Text: "  "}, {Kind: llm.PartText, Text: "x"}}, 1), "x"},
		{"parts without text", llm.NewResponse([]llm.Part{{Kind: llm.PartOther}}, 1), ApologyNoText},
		{"only tool calls", toolResponse(searchCall("q")), ApologyNoText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.resp))
		})
	}
}

func TestUniqueSources(t *testing.T) {
	in := []string{"a", "b", "a", "c", "d", "e", "f", "g"}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, uniqueSources(in, 5))
	assert.Nil(t, uniqueSources(nil, 5))
}

func TestAppendSources_NoSources(t *testing.T) {
	assert.Equal(t, "answer", AppendSources("answer", nil))
}
