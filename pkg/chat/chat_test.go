package chat

import (
	"strings"
	"testing"
)

func TestActionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ActionRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid short action",
			req:  ActionRequest{Action: "Rút kiếm ra khỏi vỏ."},
		},
		{
			name: "valid action at max length",
			req:  ActionRequest{Action: strings.Repeat("ắ", MaxActionLength)},
		},
		{
			name:    "action too long",
			req:     ActionRequest{Action: strings.Repeat("a", MaxActionLength+1)},
			wantErr: true,
			errMsg:  "exceeds maximum length",
		},
		{
			name:    "empty action",
			req:     ActionRequest{Action: ""},
			wantErr: true,
			errMsg:  "cannot be empty",
		},
		{
			name:    "whitespace action",
			req:     ActionRequest{Action: "  \n\t"},
			wantErr: true,
			errMsg:  "cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestSystemPromptAndConversation(t *testing.T) {
	messages := []ChatMessage{
		{Role: ChatRoleSystem, Content: "Luật chơi."},
		{Role: ChatRoleUser, Content: "Tiến lên"},
		{Role: ChatRoleSystem, Content: "Trạng thái."},
		{Role: ChatRoleAgent, Content: "{}"},
	}

	if got := SystemPrompt(messages); got != "Luật chơi.\n\nTrạng thái." {
		t.Errorf("SystemPrompt() = %q", got)
	}
	conv := Conversation(messages)
	if len(conv) != 2 || conv[0].Role != ChatRoleUser || conv[1].Role != ChatRoleAgent {
		t.Errorf("Conversation() = %+v", conv)
	}
	if SystemPrompt(nil) != "" || Conversation(nil) != nil {
		t.Error("empty input should produce empty output")
	}
}
