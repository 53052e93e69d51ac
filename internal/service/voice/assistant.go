package voice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// Transport is the client side of a voice session: the browser provides
// speech recognition, speech synthesis and the dashboard UI.
type Transport interface {
	ports.Recognizer
	ports.Speaker
	ports.Navigator
	ports.WorkspaceSource
}

type AssistantConfig struct {
	Locale       string
	HistoryLimit int
	ExecuteDelay time.Duration
}

// Assistant assembles per-session voice pipelines around shared services.
type Assistant struct {
	resolver ports.IntentResolver
	mutator  ports.PropertyMutator
	recorder ports.ExpenseRecorder
	store    ports.HistoryStore
	cfg      AssistantConfig
	logger   *zap.Logger
}

func NewAssistant(
	resolver ports.IntentResolver,
	mutator ports.PropertyMutator,
	recorder ports.ExpenseRecorder,
	store ports.HistoryStore,
	cfg AssistantConfig,
	logger *zap.Logger,
) *Assistant {
	if cfg.Locale == "" {
		cfg.Locale = "es-AR"
	}
	return &Assistant{
		resolver: resolver,
		mutator:  mutator,
		recorder: recorder,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

func (a *Assistant) Locale() string { return a.cfg.Locale }

// SessionHooks observe a session's controller.
type SessionHooks struct {
	OnStateChange func(from, to State)
	OnStatus      func(Status)
}

// NewSession wires capture, gate, dispatcher and controller for one client.
func (a *Assistant) NewSession(ctx context.Context, sessionID string, t Transport, hooks SessionHooks) *Controller {
	log := a.logger.With(zap.String("session_id", sessionID))

	capture := NewCapture(t, a.cfg.Locale, log)
	gate := NewGate(a.mutator, a.recorder, t, log)
	history := NewHistory(a.cfg.HistoryLimit, a.store, sessionID, log)
	if err := history.Restore(ctx); err != nil {
		log.Warn("Failed to restore conversation history", zap.Error(err))
	}

	cfg := DefaultControllerConfig(a.cfg.Locale)
	if a.cfg.ExecuteDelay > 0 {
		cfg.ExecuteDelay = a.cfg.ExecuteDelay
	}
	cfg.OnStateChange = hooks.OnStateChange
	cfg.OnStatus = hooks.OnStatus

	return NewController(ctx, ControllerDeps{
		Capture:    capture,
		Speaker:    t,
		Resolver:   a.resolver,
		Dispatcher: NewDispatcher(t, gate, log),
		Gate:       gate,
		History:    history,
		Workspace:  t,
	}, cfg, log)
}

// Resolve interprets a single transcript without a session.
func (a *Assistant) Resolve(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
	return a.resolver.Resolve(ctx, transcript, ws, history)
}
