package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/observability/telemetry"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// FallbackResponse is spoken whenever the model cannot be used.
const FallbackResponse = "Perdón, tuve un problema para procesar tu pedido. ¿Me lo repetís?"

const defaultResolveTimeout = 20 * time.Second

// resolveTemperature keeps classification deterministic.
const resolveTemperature = 0

var errMalformedResponse = errors.New("malformed model response")

type ResolverConfig struct {
	Timeout time.Duration
}

// Resolver turns a transcript plus context into exactly one ResolvedIntent.
type Resolver struct {
	model  ports.LanguageModel
	cfg    ResolverConfig
	log    *zap.Logger
	tracer trace.Tracer
}

func NewResolver(model ports.LanguageModel, cfg ResolverConfig, log *zap.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultResolveTimeout
	}
	return &Resolver{
		model:  model,
		cfg:    cfg,
		log:    log,
		tracer: telemetry.Tracer("resolver"),
	}
}

// FallbackIntent is the well-formed answer used when resolution fails.
func FallbackIntent() domain.ResolvedIntent {
	return domain.NewResolvedIntent(domain.IntentGeneralQuery, FallbackResponse, false, nil)
}

func (r *Resolver) Resolve(ctx context.Context, transcript string, ws domain.Workspace, history []domain.ConversationTurn) domain.ResolvedIntent {
	ctx, span := r.tracer.Start(ctx, "voice.Resolve", trace.WithAttributes(
		attribute.Int("history.turns", len(history)),
		attribute.Int("workspace.properties", len(ws.Properties)),
	))
	defer span.End()

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return r.fallback(span, "empty_transcript", nil)
	}
	if r.model == nil {
		return r.fallback(span, "no_model", nil)
	}

	prompt, err := buildPrompt(transcript, ws)
	if err != nil {
		return r.fallback(span, "prompt", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.model.Complete(ctx, ports.CompletionRequest{
		SystemInstruction: SystemInstruction,
		History:           history,
		Prompt:            prompt,
		Temperature:       resolveTemperature,
		JSONOutput:        true,
	})
	telemetry.VoiceLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		reason := "model_error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return r.fallback(span, reason, err)
	}

	intent, err := ParseModelResponse(raw)
	if err != nil {
		return r.fallback(span, "parse", err)
	}

	span.SetAttributes(
		attribute.String("intent", string(intent.Intent)),
		attribute.Bool("follow_up", intent.RequiresFollowUp),
	)
	r.log.Debug("Intent resolved",
		zap.String("intent", string(intent.Intent)),
		zap.Bool("follow_up", intent.RequiresFollowUp),
	)
	return intent
}

func (r *Resolver) fallback(span trace.Span, reason string, err error) domain.ResolvedIntent {
	telemetry.ResolverFallbacksTotal.WithLabelValues(reason).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		r.log.Warn("Intent resolution failed, using fallback",
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
	return FallbackIntent()
}

type modelResponse struct {
	Intent           *string            `json:"intent"`
	ResponseText     string             `json:"responseText"`
	RequiresFollowUp bool               `json:"requiresFollowUp"`
	Data             *domain.RawPayload `json:"data"`
}

// ParseModelResponse decodes the model's JSON answer. Code fences and text
// around the object are tolerated; anything else is an error.
func ParseModelResponse(raw string) (domain.ResolvedIntent, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return domain.ResolvedIntent{}, errMalformedResponse
	}
	var resp modelResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return domain.ResolvedIntent{}, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}
	if resp.Intent == nil {
		return domain.ResolvedIntent{}, fmt.Errorf("%w: missing intent", errMalformedResponse)
	}
	return domain.NewResolvedIntent(domain.Intent(*resp.Intent), resp.ResponseText, resp.RequiresFollowUp, resp.Data), nil
}

func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
