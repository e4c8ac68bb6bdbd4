package prompts

import (
	"fmt"

	"github.com/jwebster45206/roleplay-engine/pkg/actor"
	"github.com/jwebster45206/roleplay-engine/pkg/chat"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

// DefaultHistoryLimit is the number of story messages echoed into the system prompt.
const DefaultHistoryLimit = 10

// Builder constructs chat messages for oracle interaction using a fluent interface.
// It separates prompt building logic from game state management.
type Builder struct {
	gs           *state.GameState
	profile      *actor.CombatProfile
	userPrompt   string
	historyLimit int
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: DefaultHistoryLimit,
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithGameState sets the gamestate the system prompt describes.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithCombatProfile overrides the profile derived from the gamestate.
func (b *Builder) WithCombatProfile(p *actor.CombatProfile) *Builder {
	b.profile = p
	return b
}

// WithUserPrompt sets the request sent as the user message.
func (b *Builder) WithUserPrompt(prompt string) *Builder {
	b.userPrompt = prompt
	return b
}

// WithHistoryLimit sets the story log window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build returns the system message followed by the user message.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}
	if b.userPrompt == "" {
		return nil, fmt.Errorf("user prompt is required")
	}

	// Reset messages
	b.messages = make([]chat.ChatMessage, 0, 2)

	// 1. System prompt
	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}

	// 2. User prompt
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: b.userPrompt,
	})

	return b.messages, nil
}

// addSystemPrompt renders the state sections, deriving the combat profile when unset.
func (b *Builder) addSystemPrompt() error {
	profile := b.profile
	if profile == nil {
		p, err := actor.ForGameState(b.gs)
		if err != nil {
			return fmt.Errorf("error building combat profile: %w", err)
		}
		profile = p
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: BuildSystemPrompt(b.gs, profile, b.historyLimit),
	})
	return nil
}

// BuildMessages is a convenience function for the common case.
// It creates a builder, sets all parameters, and builds the messages in one call.
func BuildMessages(gs *state.GameState, userPrompt string, historyLimit int) ([]chat.ChatMessage, error) {
	return New().
		WithGameState(gs).
		WithUserPrompt(userPrompt).
		WithHistoryLimit(historyLimit).
		Build()
}

// SingleRequest wraps a self-contained request that needs no game context,
// such as setup suggestions.
func SingleRequest(prompt string) []chat.ChatMessage {
	return []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: prompt}}
}
