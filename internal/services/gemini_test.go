package services

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/jwebster45206/roleplay-engine/pkg/chat"
)

func TestToGeminiContents(t *testing.T) {
	tests := []struct {
		name        string
		messages    []chat.ChatMessage
		wantHistory int
		wantErr     bool
	}{
		{
			name: "system and single user turn",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleSystem, Content: "Bạn là người dẫn truyện."},
				{Role: chat.ChatRoleUser, Content: "Bắt đầu"},
			},
			wantHistory: 0,
		},
		{
			name: "prior exchange becomes history",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleUser, Content: "Một"},
				{Role: chat.ChatRoleAgent, Content: "Hai"},
				{Role: chat.ChatRoleUser, Content: "Ba"},
			},
			wantHistory: 2,
		},
		{
			name:     "system only",
			messages: []chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: "x"}},
			wantErr:  true,
		},
		{
			name: "ends with model turn",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleUser, Content: "Một"},
				{Role: chat.ChatRoleAgent, Content: "Hai"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, last, err := toGeminiContents(tt.messages)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(history) != tt.wantHistory {
				t.Errorf("Expected %d history entries, got %d", tt.wantHistory, len(history))
			}
			if last.Role != geminiRoleUser {
				t.Errorf("Expected last role user, got %s", last.Role)
			}
			for _, c := range history {
				if c.Role != geminiRoleUser && c.Role != geminiRoleModel {
					t.Errorf("Unexpected role %q in history", c.Role)
				}
			}
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"story":`), genai.Text(`"x"}`)}},
		}},
	}
	if got := responseText(resp); got != `{"story":"x"}` {
		t.Errorf("Expected joined text parts, got %q", got)
	}

	if got := responseText(&genai.GenerateContentResponse{}); got != msgNoResponse {
		t.Errorf("Expected placeholder for empty response, got %q", got)
	}
}
