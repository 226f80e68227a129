package llm_test

import (
	"context"
	"testing"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	configured bool
}

func (s stubProvider) Name() string              { return s.name }
func (s stubProvider) AvailableModels() []string { return []string{s.name + "-1"} }
func (s stubProvider) DefaultModel() string      { return s.name + "-1" }
func (s stubProvider) IsConfigured() bool        { return s.configured }
func (s stubProvider) Generate(context.Context, llm.Request) (*llm.Response, error) {
	return llm.NewResponse(nil, 0), nil
}

func TestNewResponse(t *testing.T) {
	call := &llm.ToolCall{Name: "google_search"}

	tests := []struct {
		name       string
		parts      []llm.Part
		candidates int
		kind       llm.ResponseKind
		text       string
	}{
		{"empty", nil, 0, llm.KindEmpty, ""},
		{"single text", []llm.Part{{Kind: llm.PartText, Text: "a"}, {Kind: llm.PartText, Text: "b"}}, 1, llm.KindText, "ab"},
		{"multiple candidates", []llm.Part{{Kind: llm.PartText, Text: "a"}}, 2, llm.KindText, ""},
		{"mixed parts", []llm.Part{{Kind: llm.PartOther}, {Kind: llm.PartText, Text: "a"}}, 1, llm.KindText, ""},
		{"tool call wins", []llm.Part{{Kind: llm.PartText, Text: "a"}, {Kind: llm.PartToolCall, ToolCall: call}}, 1, llm.KindToolCalls, ""},
		{"parts without text", []llm.Part{{Kind: llm.PartOther}}, 1, llm.KindEmpty, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := llm.NewResponse(tt.parts, tt.candidates)
			if resp.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", resp.Kind, tt.kind)
			}
			if resp.Text != tt.text {
				t.Errorf("text = %q, want %q", resp.Text, tt.text)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"```json\n{\"title\":\"x\"}\n```", `{"title":"x"}`},
		{"```\n[1,2]\n```", "[1,2]"},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"Here you go:\n```json\n{\"a\":1}", `{"a":1}`},
	}

	for _, tt := range tests {
		if got := llm.StripCodeFence(tt.input); got != tt.expected {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRouter(t *testing.T) {
	r := llm.NewRouter("gemini")
	r.RegisterProvider(stubProvider{name: "gemini", configured: true})
	r.RegisterProvider(stubProvider{name: "openai", configured: false})

	p, err := r.GetProvider("")
	if err != nil || p.Name() != "gemini" {
		t.Fatalf("default provider = %v, %v", p, err)
	}

	if _, err := r.GetProvider("openai"); err == nil {
		t.Error("expected error for unconfigured provider")
	}
	if _, err := r.GetProvider("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}

	if got := r.ListProviders(); len(got) != 1 || got[0] != "gemini" {
		t.Errorf("ListProviders() = %v", got)
	}

	infos := r.GetProvidersInfo()
	if len(infos) != 2 || infos[0].Name != "gemini" || !infos[0].Default {
		t.Errorf("GetProvidersInfo() = %+v", infos)
	}
}

func TestRouter_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		def       string
		providers []stubProvider
		want      string
	}{
		{"default configured", "gemini", []stubProvider{{"gemini", true}, {"anthropic", true}}, "gemini"},
		{"default missing", "gemini", []stubProvider{{"ollama", true}, {"anthropic", true}}, "anthropic"},
		{"default unconfigured", "openai", []stubProvider{{"openai", false}, {"ollama", true}}, "ollama"},
		{"nothing configured", "gemini", []stubProvider{{"openai", false}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := llm.NewRouter(tt.def)
			for _, p := range tt.providers {
				r.RegisterProvider(p)
			}

			p, err := r.Resolve()
			if tt.want == "" {
				var cfgErr *domain.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "llm", cfgErr.Component)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}
