package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/mocks"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	// Arrange
	calls := 0
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, req ports.CompletionRequest) (string, error) {
			calls++
			return "", errors.New("503 from provider")
		},
	}
	b := NewBreaker("test", model, newTestLogger())
	ctx := context.Background()

	// Act
	for i := 0; i < 3; i++ {
		if _, err := b.Complete(ctx, ports.CompletionRequest{}); err == nil {
			t.Fatal("expected provider error")
		}
	}
	_, err := b.Complete(ctx, ports.CompletionRequest{})

	// Assert
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
	if calls != 3 {
		t.Errorf("open breaker should not call the provider, got %d calls", calls)
	}
	if b.State() != gobreaker.StateOpen {
		t.Errorf("expected open state, got %s", b.State())
	}
	if err := b.Available(); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable while open, got %v", err)
	}
}

func TestBreaker_CancellationDoesNotTrip(t *testing.T) {
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, req ports.CompletionRequest) (string, error) {
			return "", context.Canceled
		},
	}
	b := NewBreaker("test", model, newTestLogger())

	for i := 0; i < 5; i++ {
		_, _ = b.Complete(context.Background(), ports.CompletionRequest{})
	}

	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed state, got %s", b.State())
	}
}

func TestBreaker_PassesThroughResult(t *testing.T) {
	model := &mocks.MockLanguageModel{
		CompleteFunc: func(ctx context.Context, req ports.CompletionRequest) (string, error) {
			return `{"intent":"GENERAL_QUERY"}`, nil
		},
	}

	out, err := NewBreaker("", model, newTestLogger()).Complete(context.Background(), ports.CompletionRequest{})

	if err != nil || out != `{"intent":"GENERAL_QUERY"}` {
		t.Errorf("unexpected result %q %v", out, err)
	}
}

func TestNewLanguageModel(t *testing.T) {
	for _, provider := range []string{"", ProviderGemini, ProviderAnthropic, ProviderOpenAI} {
		if _, err := NewLanguageModel(ProviderConfig{Provider: provider}, newTestLogger()); err != nil {
			t.Errorf("%q: unexpected error %v", provider, err)
		}
	}
	if _, err := NewLanguageModel(ProviderConfig{Provider: "llama"}, newTestLogger()); err == nil {
		t.Error("expected error for unknown provider")
	}
}
