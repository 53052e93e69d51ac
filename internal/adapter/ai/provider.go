package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/adapter/ai/anthropic"
	"github.com/seu-repo/rentmap-voice/internal/adapter/ai/gemini"
	"github.com/seu-repo/rentmap-voice/internal/adapter/ai/openai"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ErrModelUnavailable is returned while the breaker is open.
var ErrModelUnavailable = errors.New("language model temporarily unavailable")

type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
}

// NewLanguageModel builds the configured provider wrapped in a circuit breaker.
func NewLanguageModel(cfg ProviderConfig, log *zap.Logger) (*Breaker, error) {
	var model ports.LanguageModel
	switch cfg.Provider {
	case ProviderGemini, "":
		model = gemini.NewClient(cfg.APIKey, cfg.Model, log)
	case ProviderAnthropic:
		model = anthropic.NewClient(cfg.APIKey, cfg.Model, log)
	case ProviderOpenAI:
		model = openai.NewClient(cfg.APIKey, cfg.Model, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return NewBreaker(cfg.Provider, model, log), nil
}

// Breaker fails fast once a provider keeps failing.
type Breaker struct {
	next ports.LanguageModel
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next ports.LanguageModel, log *zap.Logger) *Breaker {
	if name == "" {
		name = ProviderGemini
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellations say nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Available returns ErrModelUnavailable while the breaker is open.
func (b *Breaker) Available() error {
	if b.cb.State() == gobreaker.StateOpen {
		return ErrModelUnavailable
	}
	return nil
}
