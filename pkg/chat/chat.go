package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxActionLength bounds a single free-text player action, in characters.
const MaxActionLength = 2000

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Oracle
	ChatRoleSystem = "system"    // Game state and rules
)

// ChatMessage is one message sent to the oracle.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is the raw text returned by the oracle.
type ChatResponse struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// ActionRequest is a free-text or chosen action submitted by the player.
type ActionRequest struct {
	Action string `json:"action"`
}

func (r *ActionRequest) Validate() error {
	if strings.TrimSpace(r.Action) == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if utf8.RuneCountInString(r.Action) > MaxActionLength {
		return fmt.Errorf("action exceeds maximum length of %d characters", MaxActionLength)
	}
	return nil
}

// SystemPrompt returns the concatenated content of every system message.
func SystemPrompt(messages []ChatMessage) string {
	var parts []string
	for _, m := range messages {
		if m.Role == ChatRoleSystem {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Conversation returns the messages that are not system messages.
func Conversation(messages []ChatMessage) []ChatMessage {
	var out []ChatMessage
	for _, m := range messages {
		if m.Role != ChatRoleSystem {
			out = append(out, m)
		}
	}
	return out
}
