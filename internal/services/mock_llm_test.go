package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jwebster45206/roleplay-engine/pkg/chat"
)

func TestMockLLMService(t *testing.T) {
	mockService := NewMockLLMAPI()

	err := mockService.InitModel(context.Background(), "test-model")
	if err != nil {
		t.Errorf("InitModel failed: %v", err)
	}

	if len(mockService.InitModelCalls) != 1 {
		t.Errorf("Expected 1 InitModel call, got %d", len(mockService.InitModelCalls))
	}

	if mockService.InitModelCalls[0] != "test-model" {
		t.Errorf("Expected model name 'test-model', got '%s'", mockService.InitModelCalls[0])
	}

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "Hello"},
	}

	response, err := mockService.Chat(context.Background(), messages)
	if err != nil {
		t.Errorf("Chat failed: %v", err)
	}

	if response.Message != "Mock response" {
		t.Errorf("Expected 'Mock response', got '%s'", response.Message)
	}

	_, chatCalls := mockService.GetCalls()
	if len(chatCalls) != 1 {
		t.Errorf("Expected 1 Chat call, got %d", len(chatCalls))
	}
}

func TestMockLLMService_ErrorHandling(t *testing.T) {
	mockService := NewMockLLMAPI()

	expectedErr := fmt.Errorf("initialization failed")
	mockService.SetInitModelError(expectedErr)

	err := mockService.InitModel(context.Background(), "test-model")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if err.Error() != expectedErr.Error() {
		t.Errorf("Expected error '%s', got '%s'", expectedErr.Error(), err.Error())
	}

	mockService.SetChatError(errors.New("down"))
	if _, err := mockService.Chat(context.Background(), nil); err == nil {
		t.Error("Expected chat error")
	}
}

func TestMockLLMService_QueuedResponses(t *testing.T) {
	mockService := NewMockLLMAPI()
	mockService.QueueResponses("one", "two")

	for _, want := range []string{"one", "two", "Mock response"} {
		resp, err := mockService.Chat(context.Background(), nil)
		if err != nil {
			t.Fatalf("Chat failed: %v", err)
		}
		if resp.Message != want {
			t.Errorf("Expected %q, got %q", want, resp.Message)
		}
	}
}

func TestMockLLMService_Blocking(t *testing.T) {
	mockService := NewMockLLMAPI()
	release := make(chan struct{})
	mockService.SetChatBlocking(release, "done")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := mockService.Chat(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}

	close(release)
	resp, err := mockService.Chat(context.Background(), nil)
	if err != nil || resp.Message != "done" {
		t.Errorf("Expected released response, got %v, %v", resp, err)
	}
}
