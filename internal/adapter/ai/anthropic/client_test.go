package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

func TestComplete_Success(t *testing.T) {
	// Arrange
	var got messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"intent\":"},{"type":"text","text":"\"NAVIGATE\"}"}],"usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "", zap.NewNop()).WithBaseURL(server.URL + "/")

	// Act
	out, err := client.Complete(context.Background(), ports.CompletionRequest{
		SystemInstruction: "sos un asistente",
		Prompt:            "ir a finanzas",
		Temperature:       0.2,
		JSONOutput:        true,
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"intent":"NAVIGATE"}` {
		t.Errorf("unexpected output %q", out)
	}
	if got.Model != DefaultModel || got.MaxTokens != maxTokens {
		t.Errorf("unexpected request %+v", got)
	}
	if !strings.HasPrefix(got.System, "sos un asistente") || !strings.Contains(got.System, "JSON") {
		t.Errorf("expected JSON instruction appended to system, got %q", got.System)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "api error", status: http.StatusTooManyRequests, body: `{"error":"rate limited"}`, wantMsg: "status 429"},
		{name: "empty content", status: http.StatusOK, body: `{"content":[]}`, wantMsg: "no content"},
		{name: "bad json", status: http.StatusOK, body: `nope`, wantMsg: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient("k", "", zap.NewNop()).WithBaseURL(server.URL).Complete(context.Background(), ports.CompletionRequest{Prompt: "x"})

			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestComplete_NoAPIKey(t *testing.T) {
	_, err := NewClient("", "", zap.NewNop()).Complete(context.Background(), ports.CompletionRequest{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestToMessages(t *testing.T) {
	history := []domain.ConversationTurn{
		{Role: domain.RoleAssistant, Content: "hola"},
		{Role: domain.RoleUser, Content: "subí el alquiler"},
		{Role: domain.RoleUser, Content: "de Corrientes"},
		{Role: domain.RoleAssistant, Content: "¿a cuánto?"},
	}

	got := toMessages(history, "350 mil")

	want := []message{
		{Role: "user", Content: "subí el alquiler\nde Corrientes"},
		{Role: "assistant", Content: "¿a cuánto?"},
		{Role: "user", Content: "350 mil"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
