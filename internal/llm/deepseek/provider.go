package deepseek

import (
	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/llm/openai"
)

// NewProvider creates a DeepSeek provider; the API is OpenAI compatible
func NewProvider(cfg config.DeepSeekConfig) *openai.Provider {
	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.deepseek.com/v1"
	}
	return openai.NewCompatible("deepseek", cfg.APIKey, model, baseURL, []string{
		"deepseek-chat",
		"deepseek-reasoner",
	})
}
