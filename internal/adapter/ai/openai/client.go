package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const (
	DefaultModel   = "gpt-4o-mini"
	defaultBaseURL = "https://api.openai.com"
)

var ErrNoAPIKey = errors.New("openai: API key not configured")

// Client is a ports.LanguageModel backed by the Chat Completions API.
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

func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	messages := make([]Message, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		messages = append(messages, Message{Role: "system", Content: req.SystemInstruction})
	}
	for _, turn := range req.History {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, Message{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.JSONOutput {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: API error status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}

	c.log.Debug("OpenAI completion", zap.Int("total_tokens", result.Usage.TotalTokens))
	return result.Choices[0].Message.Content, nil
}
