package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebster45206/roleplay-engine/pkg/chat"
)

// anthropicServer answers every Messages call with reply and records the request.
func anthropicServer(t *testing.T, reply string, got *anthropicRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("Missing version header, got %q", r.Header.Get("anthropic-version"))
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
		}
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func anthropicReply(text, stopReason string) string {
	b, _ := json.Marshal(map[string]any{
		"content":     []map[string]string{{"type": "text", "text": text}},
		"stop_reason": stopReason,
	})
	return string(b)
}

func TestAnthropicService_JSONContract(t *testing.T) {
	var got anthropicRequest
	server := anthropicServer(t, anthropicReply(`{"story":"Gió nổi."}`, "end_turn"), &got)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "claude-test", log).WithBaseURL(server.URL + "/")

	resp, err := service.Chat(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "Trạng thái"},
		{Role: chat.ChatRoleUser, Content: "Tiến lên"},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message != `{"story":"Gió nổi."}` {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if !strings.HasPrefix(got.System, "Trạng thái") || !strings.HasSuffix(got.System, anthropicJSONInstruction) {
		t.Errorf("Expected game state followed by the JSON instruction, got %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != chat.ChatRoleUser {
		t.Errorf("Unexpected turns: %+v", got.Messages)
	}
}

func TestAnthropicService_ExtractsJSONFromProse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"object with preamble", "Đây là kết quả:\n{\"story\":\"x\",\"choices\":[\"a\"]}\nHết.", `{"story":"x","choices":["a"]}`},
		{"array reply", `Gợi ý: ["Tu tiên","Võ hiệp"]`, `["Tu tiên","Võ hiệp"]`},
		{"fenced object", "```json\n{\"summary\":\"tóm tắt\"}\n```", `{"summary":"tóm tắt"}`},
		{"no json", "  Xin lỗi.  ", "Xin lỗi."},
		{"empty", "", msgNoResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := anthropicServer(t, anthropicReply(tt.reply, "end_turn"), nil)
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			service := NewAnthropicService("k", "m", log).WithBaseURL(server.URL)

			resp, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "x"}})
			if err != nil {
				t.Fatalf("Chat failed: %v", err)
			}
			if resp.Message != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, resp.Message)
			}
		})
	}
}

func TestAnthropicService_TruncatedReplyPassedThrough(t *testing.T) {
	reply := `Kết quả: {"story":"Con sói lao tới","choices":[{"text":"Chạy"}`
	server := anthropicServer(t, anthropicReply(reply, anthropicStopMaxTokens), nil)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("k", "m", log).WithBaseURL(server.URL)

	resp, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "x"}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message != reply {
		t.Errorf("Expected the whole truncated reply, got %q", resp.Message)
	}
}

func TestToAnthropicMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []chat.ChatMessage
		want     []anthropicMessage
		wantErr  bool
	}{
		{
			name: "system dropped",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleSystem, Content: "s"},
				{Role: chat.ChatRoleUser, Content: "a"},
			},
			want: []anthropicMessage{{Role: chat.ChatRoleUser, Content: "a"}},
		},
		{
			name: "consecutive user turns merged",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleUser, Content: "a"},
				{Role: chat.ChatRoleSystem, Content: "s"},
				{Role: chat.ChatRoleUser, Content: "b"},
			},
			want: []anthropicMessage{{Role: chat.ChatRoleUser, Content: "a\n\nb"}},
		},
		{
			name: "alternating kept",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleUser, Content: "a"},
				{Role: chat.ChatRoleAgent, Content: "b"},
				{Role: chat.ChatRoleUser, Content: "c"},
			},
			want: []anthropicMessage{
				{Role: chat.ChatRoleUser, Content: "a"},
				{Role: chat.ChatRoleAgent, Content: "b"},
				{Role: chat.ChatRoleUser, Content: "c"},
			},
		},
		{
			name:     "system only",
			messages: []chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: "s"}},
			wantErr:  true,
		},
		{
			name: "ends with assistant",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleUser, Content: "a"},
				{Role: chat.ChatRoleAgent, Content: "b"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toAnthropicMessages(tt.messages)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %+v, got %+v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Turn %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestAnthropicService_InvalidConversationNotSent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("k", "m", log).WithBaseURL(server.URL)

	if _, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: "s"}}); err == nil {
		t.Error("Expected an error for a conversation without a user turn")
	}
	if calls != 0 {
		t.Errorf("Expected no request, got %d", calls)
	}
}

func TestAnthropicService_ChatError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error","message":"busy"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("k", "m", log).WithBaseURL(server.URL)

	if _, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "x"}}); err == nil {
		t.Error("Expected an error for a non-200 response")
	}
}
