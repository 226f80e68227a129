package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// structuredCall asks the model for a bare JSON document and validates it
// against schema before decoding into out
func structuredCall(ctx context.Context, model llm.Provider, temperature *float32, system, input, task string, schema *gojsonschema.Schema, out any) error {
	resp, err := model.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{llm.UserText(input)},
		ToolMode:    llm.ToolModeNone,
		Temperature: temperature,
		JSONOutput:  true,
	})
	if err != nil {
		return fmt.Errorf("%s model call failed: %w", task, err)
	}

	raw := responseText(resp)
	cleaned := llm.StripCodeFence(raw)

	if err := validateJSON(schema, cleaned); err != nil {
		log.Error().Str("task", task).Str("raw", raw).Err(err).Msg("Model returned malformed JSON")
		return &domain.MalformedOutputError{Task: task, Reason: err.Error(), Raw: raw}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		log.Error().Str("task", task).Str("raw", raw).Err(err).Msg("Model returned malformed JSON")
		return &domain.MalformedOutputError{Task: task, Reason: err.Error(), Raw: raw}
	}
	return nil
}

func validateJSON(schema *gojsonschema.Schema, doc string) error {
	if strings.TrimSpace(doc) == "" {
		return fmt.Errorf("empty response")
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// responseText returns the raw text of a response without any apology substitution
func responseText(resp *llm.Response) string {
	if resp == nil {
		return ""
	}
	if strings.TrimSpace(resp.Text) != "" {
		return resp.Text
	}
	for _, p := range resp.Parts {
		if p.Kind == llm.PartText && strings.TrimSpace(p.Text) != "" {
			return p.Text
		}
	}
	return ""
}

func mustSchema(doc string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("invalid JSON schema: %v", err))
	}
	return s
}
