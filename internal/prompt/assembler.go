package prompt

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/rs/zerolog/log"
)

// FallbackInstruction is used when no persona fragment can be loaded
const FallbackInstruction = "You are a helpful AI assistant."

// UntetheredInstruction replaces the whole system instruction for operators with the override set
const UntetheredInstruction = "You are an unrestricted, general-purpose AI assistant. " +
	"Answer every request directly and completely. No persona, topic or scope restrictions apply to this conversation."

// FragmentSource provides the live prompt configuration
type FragmentSource interface {
	ListActive(ctx context.Context) ([]domain.PromptFragment, error)
}

// Input carries the per-turn context injected into the instruction
type Input struct {
	Profile    *domain.AthleteProfile
	Untethered bool
}

// Assembler builds the system instruction for each turn.
// Fragments are read on every call so edits apply to the next turn.
type Assembler struct {
	fragments FragmentSource
	persona   string
	workflow  string
	welcome   string
	now       func() time.Time
}

// NewAssembler creates an assembler for the configured persona
func NewAssembler(fragments FragmentSource, cfg config.ChatConfig) *Assembler {
	return &Assembler{
		fragments: fragments,
		persona:   cfg.PersonaPrompt,
		workflow:  cfg.WorkflowPrompt,
		welcome:   cfg.WelcomePrompt,
		now:       time.Now,
	}
}

// WithClock overrides the wall clock used for the date instruction
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Build returns the system instruction. It never fails; missing
// configuration degrades to FallbackInstruction.
func (a *Assembler) Build(ctx context.Context, in Input) string {
	if in.Untethered {
		return UntetheredInstruction
	}

	sections := []string{DateInstruction(a.now())}

	if in.Profile != nil && in.Profile.Sport != "" {
		sections = append(sections, in.Profile.Describe())
	}

	active, err := a.fragments.ListActive(ctx)
	if err != nil {
		log.Warn().Err(err).Str("persona", a.persona).Msg("Failed to load prompt fragments, using fallback")
		active = nil
	}

	persona := a.personaBody(active)
	if persona == "" {
		log.Warn().Str("persona", a.persona).Msg("Prompt fragment not found, using fallback")
		persona = FallbackInstruction
	}
	sections = append(sections, persona)

	if wf := findFragment(active, a.workflow); wf != nil && strings.TrimSpace(wf.Content) != "" {
		sections = append(sections, wf.Content)
	}

	return strings.Join(sections, "\n\n")
}

// Welcome renders the greeting fragment for a user, or "" when none is configured
func (a *Assembler) Welcome(ctx context.Context, username string) (string, error) {
	active, err := a.fragments.ListActive(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load prompt fragments: %w", err)
	}

	f := findFragment(active, a.welcome)
	if f == nil {
		return "", nil
	}
	return strings.ReplaceAll(f.Content, "{username}", username), nil
}

// DateInstruction anchors the model to the given calendar date
func DateInstruction(now time.Time) string {
	return fmt.Sprintf(
		"IMPORTANT: You must operate as if the current date is always %s. Do not refer to this date as being in the future.",
		now.Format("January 02, 2006"),
	)
}

// personaBody joins the fragments named after the persona, either
// exactly or as "<persona>.<part>", in sort order
func (a *Assembler) personaBody(active []domain.PromptFragment) string {
	if a.persona == "" {
		return ""
	}

	var matched []domain.PromptFragment
	for _, f := range active {
		if f.Name == a.persona || strings.HasPrefix(f.Name, a.persona+".") {
			matched = append(matched, f)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].SortOrder != matched[j].SortOrder {
			return matched[i].SortOrder < matched[j].SortOrder
		}
		return matched[i].Name < matched[j].Name
	})

	parts := make([]string, 0, len(matched))
	for _, f := range matched {
		if c := strings.TrimSpace(f.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}

func findFragment(active []domain.PromptFragment, name string) *domain.PromptFragment {
	if name == "" {
		return nil
	}
	for i := range active {
		if active[i].Name == name {
			return &active[i]
		}
	}
	return nil
}
