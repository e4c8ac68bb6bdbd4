package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/roleplay-engine/pkg/chat"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.8
	DefaultAnthropicMaxTokens   = 8192

	anthropicStopMaxTokens = "max_tokens"
)

// anthropicJSONInstruction closes every system prompt. The Messages API has
// no JSON response mode, so the contract is stated and the reply trimmed.
const anthropicJSONInstruction = "CHỈ trả lời bằng đúng một giá trị JSON hợp lệ (đối tượng hoặc mảng). " +
	"Không viết lời dẫn, không giải thích, không bọc trong khối mã."

// AnthropicService implements LLMService for the Anthropic Messages API.
type AnthropicService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicService(apiKey string, modelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   anthropicBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the service at another Messages API endpoint.
func (a *AnthropicService) WithBaseURL(baseURL string) *AnthropicService {
	a.baseURL = strings.TrimRight(baseURL, "/")
	return a
}

func (a *AnthropicService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		a.modelName = modelName
	}
	return nil
}

// Chat sends the conversation and returns the JSON value found in the reply.
func (a *AnthropicService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	turns, err := toAnthropicMessages(messages)
	if err != nil {
		return nil, err
	}

	system := anthropicJSONInstruction
	if prompt := chat.SystemPrompt(messages); prompt != "" {
		system = prompt + "\n\n" + anthropicJSONInstruction
	}

	reqBody, err := json.Marshal(anthropicRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: DefaultAnthropicTemperature,
		System:      system,
		Messages:    turns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Error("Anthropic request failed", "status", resp.StatusCode, "model", a.modelName)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("API error: %s", out.Error.Message)
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := extractJSONValue(sb.String())
	if out.StopReason == anthropicStopMaxTokens {
		// Truncated JSON is passed through whole for the parser's story recovery
		a.logger.Warn("Anthropic reply hit the token limit", "model", a.modelName, "output_tokens", out.Usage.OutputTokens)
		text = strings.TrimSpace(sb.String())
	}
	if text == "" {
		text = msgNoResponse
	}
	return &chat.ChatResponse{
		Message: text,
		Model:   a.modelName,
	}, nil
}

// toAnthropicMessages drops system messages and merges consecutive turns of
// the same role, which the Messages API rejects. The last turn must be the
// user's.
func toAnthropicMessages(messages []chat.ChatMessage) ([]anthropicMessage, error) {
	var out []anthropicMessage
	for _, m := range chat.Conversation(messages) {
		role := chat.ChatRoleUser
		if m.Role == chat.ChatRoleAgent {
			role = chat.ChatRoleAgent
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, anthropicMessage{Role: role, Content: m.Content})
	}
	if len(out) == 0 {
		return nil, errors.New("at least one non-system message is required")
	}
	if out[len(out)-1].Role != chat.ChatRoleUser {
		return nil, errors.New("the final message must come from the user")
	}
	return out, nil
}

// extractJSONValue trims prose around the outermost JSON object or array.
// Text without one is returned trimmed.
func extractJSONValue(text string) string {
	s := strings.TrimSpace(text)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end <= start {
		return s
	}
	return s[start : end+1]
}
