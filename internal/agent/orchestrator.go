package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/Rrens/recruit-advisor/internal/metrics"
	"github.com/rs/zerolog/log"
)

// MaxToolRounds caps tool execution per turn. After one round the
// synthesis call is final even if it asks for more tools.
const MaxToolRounds = 1

const (
	// ApologyNoText is returned when the model answered without any text part
	ApologyNoText = "I encountered an internal error while processing the search results. Please try rephrasing your question."

	// ApologyNoCandidates is returned when the model returned nothing at all
	ApologyNoCandidates = "I encountered an unexpected error. Please try again."
)

// State is a step of the turn state machine
type State int

const (
	StateAwaitFirstResponse State = iota
	StateAwaitToolResults
	StateAwaitSynthesis
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitFirstResponse:
		return "await_first_response"
	case StateAwaitToolResults:
		return "await_tool_results"
	case StateAwaitSynthesis:
		return "await_synthesis_response"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TurnInput is everything the orchestrator needs for one user turn
type TurnInput struct {
	System  string
	History []domain.Turn
	Prompt  string
}

// TurnResult is the outcome of a completed turn
type TurnResult struct {
	Text       string
	Sources    []string
	ModelCalls int
	ToolCalls  int
	Trace      []State
}

// Orchestrator drives the model call, tool execution and synthesis call of a turn
type Orchestrator struct {
	model        llm.Provider
	tools        *Registry
	historyTurns int
	sourcesLimit int
	temperature  *float32
	metrics      *metrics.Metrics
}

// Options tunes an Orchestrator
type Options struct {
	HistoryTurns int
	SourcesLimit int
	Temperature  *float32
	Metrics      *metrics.Metrics
}

// NewOrchestrator creates an orchestrator over one provider and tool set
func NewOrchestrator(model llm.Provider, tools *Registry, opts Options) *Orchestrator {
	if tools == nil {
		tools = NewRegistry()
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = 10
	}
	if opts.SourcesLimit <= 0 {
		opts.SourcesLimit = 5
	}
	return &Orchestrator{
		model:        model,
		tools:        tools,
		historyTurns: opts.HistoryTurns,
		sourcesLimit: opts.SourcesLimit,
		temperature:  opts.Temperature,
		metrics:      opts.Metrics,
	}
}

// Run executes one turn. Errors are model transport failures and are
// left to the caller's retry policy; extraction problems never error.
func (o *Orchestrator) Run(ctx context.Context, in TurnInput) (*TurnResult, error) {
	req := llm.Request{
		System:      in.System,
		Messages:    BuildMessages(in.History, in.Prompt, o.historyTurns),
		Tools:       o.tools.Specs(),
		ToolMode:    llm.ToolModeAuto,
		Temperature: o.temperature,
	}

	result := &TurnResult{}
	state := StateAwaitFirstResponse
	rounds := 0
	var resp *llm.Response
	var sources []string

	for state != StateDone {
		result.Trace = append(result.Trace, state)

		switch state {
		case StateAwaitFirstResponse, StateAwaitSynthesis:
			purpose := "turn"
			if state == StateAwaitSynthesis {
				purpose = "synthesis"
			}

			var err error
			resp, err = o.generate(ctx, req, purpose)
			if err != nil {
				return nil, err
			}
			result.ModelCalls++

			if resp.Kind == llm.KindToolCalls && rounds < MaxToolRounds {
				state = StateAwaitToolResults
			} else {
				if resp.Kind == llm.KindToolCalls {
					log.Warn().Int("requested", len(resp.ToolCalls)).Msg("Ignoring tool calls requested after the final round")
				}
				state = StateDone
			}

		case StateAwaitToolResults:
			rounds++
			results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
			for _, call := range resp.ToolCalls {
				out := o.tools.Execute(ctx, call)
				result.ToolCalls++
				if out.Status == ToolStatusSuccess {
					sources = append(sources, out.Sources...)
				}
				log.Info().
					Str("tool", call.Name).
					Str("status", out.Status).
					Msg("Tool executed")
				results = append(results, llm.ToolResult{CallID: call.ID, Name: call.Name, Payload: out.Payload})
			}

			req.Messages = append(req.Messages,
				llm.Message{Role: llm.RoleModel, Text: partsText(resp.Parts), ToolCalls: resp.ToolCalls},
				llm.Message{Role: llm.RoleTool, ToolResults: results},
			)
			state = StateAwaitSynthesis
		}
	}
	result.Trace = append(result.Trace, StateDone)

	result.Sources = uniqueSources(sources, o.sourcesLimit)
	result.Text = AppendSources(ExtractText(resp), result.Sources)
	return result, nil
}

func (o *Orchestrator) generate(ctx context.Context, req llm.Request, purpose string) (*llm.Response, error) {
	start := time.Now()
	resp, err := o.model.Generate(ctx, req)
	o.metrics.ObserveModelCall(o.model.Name(), purpose, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s model call failed: %w", purpose, err)
	}
	return resp, nil
}

// BuildMessages renders at most maxTurns of the most recent history as
// user/model pairs followed by the new prompt. A welcome turn has no
// prompt and contributes only its model message.
func BuildMessages(history []domain.Turn, prompt string, maxTurns int) []llm.Message {
	if maxTurns >= 0 && len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	messages := make([]llm.Message, 0, 2*len(history)+1)
	for _, t := range history {
		if t.PromptText != "" {
			messages = append(messages, llm.UserText(t.PromptText))
		}
		messages = append(messages, llm.ModelText(t.ResponseText))
	}
	return append(messages, llm.UserText(prompt))
}

// ExtractText returns the final answer text, falling back to the first
// non-empty text part and finally to an apology
func ExtractText(resp *llm.Response) string {
	if resp == nil {
		return ApologyNoCandidates
	}

	switch resp.Kind {
	case llm.KindText:
		if resp.Text != "" {
			return resp.Text
		}
	case llm.KindToolCalls:
		// unanswered tool request; text may still sit next to it
	case llm.KindEmpty:
		// candidates without text parts still get the part scan below
	}

	if resp.Candidates == 0 || len(resp.Parts) == 0 {
		return ApologyNoCandidates
	}
	for _, p := range resp.Parts {
		if p.Kind == llm.PartText && strings.TrimSpace(p.Text) != "" {
			return p.Text
		}
	}
	return ApologyNoText
}

// AppendSources adds a numbered citation footer
func AppendSources(text string, sources []string) string {
	if len(sources) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n---\n**Sources:**\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}

func uniqueSources(sources []string, limit int) []string {
	seen := make(map[string]struct{}, len(sources))
	var out []string
	for _, s := range sources {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

func partsText(parts []llm.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Kind == llm.PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
