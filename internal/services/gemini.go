package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jwebster45206/roleplay-engine/pkg/chat"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultGeminiTemperature = 0.8

	geminiRoleUser  = "user"
	geminiRoleModel = "model"
)

// GeminiService implements LLMService for Google Gemini
type GeminiService struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

// NewGeminiService creates a Gemini client. Extra options are passed to the
// underlying client, which lets tests point it at a local endpoint.
func NewGeminiService(ctx context.Context, apiKey string, modelName string, logger *slog.Logger, opts ...option.ClientOption) (*GeminiService, error) {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// InitModel switches the model used for subsequent calls. Gemini needs no warm-up.
func (g *GeminiService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		g.modelName = modelName
	}
	return nil
}

// Close releases the client connection.
func (g *GeminiService) Close() error {
	return g.client.Close()
}

// Chat sends the conversation to Gemini. System messages become the system
// instruction and the response is requested as JSON.
func (g *GeminiService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	history, last, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(DefaultGeminiTemperature)
	model.ResponseMIMEType = "application/json"
	if system := chat.SystemPrompt(messages); system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		g.logger.Error("Gemini request failed", "model", g.modelName, "error", err)
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return &chat.ChatResponse{
		Message: responseText(resp),
		Model:   g.modelName,
	}, nil
}

// toGeminiContents splits the non-system conversation into the chat history
// and the final user turn.
func toGeminiContents(messages []chat.ChatMessage) ([]*genai.Content, *genai.Content, error) {
	conversation := chat.Conversation(messages)
	if len(conversation) == 0 {
		return nil, nil, errors.New("at least one non-system message is required")
	}

	contents := make([]*genai.Content, 0, len(conversation))
	for _, msg := range conversation {
		role := geminiRoleUser
		if msg.Role == chat.ChatRoleAgent {
			role = geminiRoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	last := contents[len(contents)-1]
	if last.Role != geminiRoleUser {
		return nil, nil, errors.New("the final message must come from the user")
	}
	return contents[:len(contents)-1], last, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return msgNoResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return msgNoResponse
	}
	return sb.String()
}
