package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/roleplay-engine/pkg/parser"
	"github.com/jwebster45206/roleplay-engine/pkg/prompts"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// SuggestRequest asks for help filling in a story setup.
type SuggestRequest struct {
	Kind  prompts.SuggestionKind  `json:"kind"`
	Input prompts.SuggestionInput `json:"input"`
}

// Suggestion holds whichever field matches the request kind.
type Suggestion struct {
	Kind    prompts.SuggestionKind `json:"kind"`
	Options []string               `json:"options,omitempty"`
	Summary string                 `json:"summary,omitempty"`
	Traits  []state.CharacterTrait `json:"traits,omitempty"`
	Entity  *state.Entity          `json:"entity,omitempty"`
	Skill   *state.Skill           `json:"skill,omitempty"`
}

// Suggest runs a setup-assistant request. It needs no game.
func (e *Engine) Suggest(ctx context.Context, req SuggestRequest) (*Suggestion, error) {
	prompt, err := prompts.SuggestionPrompt(req.Kind, req.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	raw, err := e.ask(ctx, prompts.SingleRequest(prompt))
	if err != nil {
		return nil, err
	}

	out := &Suggestion{Kind: req.Kind}
	switch req.Kind {
	case prompts.SuggestCharSummary:
		out.Summary, err = parser.ParseCharacterSummary(raw)
	case prompts.SuggestTraits:
		out.Traits, err = parser.ParseTraitSuggestions(raw)
	case prompts.SuggestEntity:
		entityType := req.Input.EntityType
		if !entityType.Valid() {
			entityType = state.EntityNPC
		}
		out.Entity, err = parser.ParseEntitySuggestion(raw, entityType)
	case prompts.SuggestSkill:
		out.Skill, err = parser.ParseSkillSuggestion(raw)
	default:
		out.Options, err = parser.ParseSuggestions(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracle, err)
	}
	return out, nil
}

// ExtractEntitiesRequest names free text to mine for encyclopedia entries.
type ExtractEntitiesRequest struct {
	Text       string `json:"text"`
	WorldTheme string `json:"world_theme,omitempty"`
}

// ExtractEntities asks the oracle for the entities mentioned in text.
// Entries that fail validation are dropped.
func (e *Engine) ExtractEntities(ctx context.Context, req ExtractEntitiesRequest) ([]state.Entity, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	raw, err := e.ask(ctx, prompts.SingleRequest(prompts.ExtractEntitiesPrompt(req.Text, req.WorldTheme)))
	if err != nil {
		return nil, err
	}
	return parser.ParseExtractedEntities(raw), nil
}
