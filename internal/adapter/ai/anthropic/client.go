package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const (
	DefaultModel   = "claude-sonnet-4-20250514"
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	maxTokens      = 1024
)

var ErrNoAPIKey = errors.New("anthropic: API key not configured")

// Client is a ports.LanguageModel backed by the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(apiKey, model string, log *zap.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		log:        log,
	}
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float32   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	system := req.SystemInstruction
	if req.JSONOutput {
		system += "\n\nRespondé únicamente con el objeto JSON, sin texto adicional."
	}

	body := messagesRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: req.Temperature,
		Messages:    toMessages(req.History, req.Prompt),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("anthropic: API error status %d: %s", resp.StatusCode, string(raw))
	}

	var result messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: no content returned")
	}

	c.log.Debug("Anthropic completion",
		zap.Int("input_tokens", result.Usage.InputTokens),
		zap.Int("output_tokens", result.Usage.OutputTokens),
	)
	return sb.String(), nil
}

// toMessages maps history to alternating user/assistant turns. Consecutive
// turns from the same role are merged.
func toMessages(history []domain.ConversationTurn, prompt string) []message {
	msgs := make([]message, 0, len(history)+1)
	push := func(role, content string) {
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n" + content
			return
		}
		msgs = append(msgs, message{Role: role, Content: content})
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "assistant"
		}
		if len(msgs) == 0 && role == "assistant" {
			continue
		}
		push(role, turn.Content)
	}
	push("user", prompt)
	return msgs
}
