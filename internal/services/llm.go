package services

import (
	"context"

	"github.com/jwebster45206/roleplay-engine/pkg/chat"
)

// msgNoResponse stands in for an empty completion so callers always get text.
const msgNoResponse = "(no response)"

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a chat response using the LLM
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}
