package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/observability/telemetry"
	"github.com/seu-repo/rentmap-voice/internal/ports"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
)

const (
	defaultIdleTimeout = 10 * time.Minute
	writeTimeout       = 10 * time.Second

	msgCaptureUnsupported = "El reconocimiento de voz no está disponible en este navegador."
	msgCommitFailed       = "No pude guardar los cambios. Probá de nuevo."
)

// Registry owns the live voice sessions, one per socket.
type Registry struct {
	assistant   *voice.Assistant
	workspace   ports.WorkspaceSource
	idleTimeout time.Duration
	log         *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(assistant *voice.Assistant, workspace ports.WorkspaceSource, idleTimeout time.Duration, log *zap.Logger) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	return &Registry{
		assistant:   assistant,
		workspace:   workspace,
		idleTimeout: idleTimeout,
		log:         log,
		sessions:    make(map[string]*Session),
	}
}

// SetupRoutes mounts the voice socket at /ws/voice.
func SetupRoutes(app fiber.Router, r *Registry) {
	app.Use("/ws/voice", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/voice", websocket.New(r.Handle))
}

// Handle serves one browser connection until it closes or stays idle past
// the timeout.
func (r *Registry) Handle(conn *websocket.Conn) {
	id := conn.Query("session")
	if id == "" {
		id = uuid.NewString()
	}
	log := r.log.With(zap.String("session_id", id))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSession(id, r.workspace, log)
	s.controller = r.assistant.NewSession(ctx, id, s, voice.SessionHooks{
		OnStatus: func(st voice.Status) { s.emit(MsgState, st) },
		OnStateChange: func(from, to voice.State) {
			log.Debug("Voice state changed", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	r.add(s)
	telemetry.ActiveVoiceSessions.Inc()
	log.Info("Voice session opened")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		r.writePump(conn, s)
	}()

	s.emit(MsgSession, sessionData{ID: id})
	s.emit(MsgState, s.Status())

	r.readPump(ctx, conn, s)

	s.controller.Close()
	r.remove(s)
	s.close()
	<-writerDone
	telemetry.ActiveVoiceSessions.Dec()
	log.Info("Voice session closed")
}

func (r *Registry) readPump(ctx context.Context, conn *websocket.Conn, s *Session) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(r.idleTimeout)); err != nil {
			return
		}
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			s.log.Debug("Voice socket read ended", zap.Error(err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Warn("Malformed client message", zap.Error(err))
			continue
		}
		r.dispatch(ctx, s, env)
	}
}

func (r *Registry) writePump(conn *websocket.Conn, s *Session) {
	for frame := range s.send {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			break
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.log.Debug("Voice socket write failed", zap.Error(err))
			break
		}
	}
	// Unblock the reader if the writer failed first.
	_ = conn.Close()
	for range s.send {
	}
}

func (r *Registry) dispatch(ctx context.Context, s *Session, env Envelope) {
	ctrl := s.controller
	switch env.Type {
	case MsgCapabilities:
		var d capabilitiesData
		if decode(env, &d) {
			s.updateCapabilities(d)
		}
	case MsgToggle:
		if err := ctrl.Toggle(); errors.Is(err, voice.ErrCaptureUnsupported) {
			s.emit(MsgError, errorData{Message: msgCaptureUnsupported})
		}
	case MsgCancel:
		ctrl.Cancel()
	case MsgTranscript:
		var d transcriptData
		if decode(env, &d) {
			ctrl.Capture().Deliver(d.Text)
		}
	case MsgCaptureError:
		var d captureErrorData
		decode(env, &d)
		ctrl.Capture().Fail(errors.New(d.Error))
	case MsgSpeechDone:
		var d speechData
		if decode(env, &d) {
			s.speechDone(d.ID)
		}
	case MsgContext:
		var d contextData
		if decode(env, &d) {
			s.updateContext(d)
		}
	case MsgConfirm:
		var d kindData
		if decode(env, &d) {
			r.confirm(ctx, s, d.Kind)
		}
	case MsgDecline:
		var d kindData
		if !decode(env, &d) {
			return
		}
		switch d.Kind {
		case domain.ConfirmationExpense:
			ctrl.DeclineExpense(ctx)
		case domain.ConfirmationUpdate:
			ctrl.DeclineUpdate(ctx)
		}
	default:
		s.log.Debug("Unknown client message", zap.String("type", env.Type))
	}
}

func (r *Registry) confirm(ctx context.Context, s *Session, kind domain.ConfirmationKind) {
	switch kind {
	case domain.ConfirmationExpense:
		e, err := s.controller.ConfirmExpense(ctx)
		if err != nil {
			s.emit(MsgError, errorData{Message: msgCommitFailed})
			return
		}
		if e != nil {
			s.emit(MsgExpenseRegistered, e)
		}
	case domain.ConfirmationUpdate:
		p, err := s.controller.ConfirmUpdate(ctx)
		if err != nil {
			s.emit(MsgError, errorData{Message: msgCommitFailed})
			return
		}
		if p != nil {
			s.emit(MsgPropertyUpdated, p)
		}
	}
}

func decode(env Envelope, v interface{}) bool {
	if len(env.Data) == 0 {
		return false
	}
	return json.Unmarshal(env.Data, v) == nil
}

// add registers s, closing any older socket that claimed the same id.
func (r *Registry) add(s *Session) {
	r.mu.Lock()
	old := r.sessions[s.id]
	r.sessions[s.id] = s
	r.mu.Unlock()
	if old != nil {
		old.log.Info("Voice session replaced by a new connection")
		old.close()
	}
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.id] == s {
		delete(r.sessions, s.id)
	}
}

// Status reports the state of a live session.
func (r *Registry) Status(id string) (voice.Status, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return voice.Status{}, false
	}
	return s.Status(), true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast sends a message to every open session.
func (r *Registry) Broadcast(msgType string, data interface{}) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.emit(msgType, data)
	}
}

// Relay returns a bus handler that forwards events on subject to every
// dashboard as data_changed.
func (r *Registry) Relay(subject string) func(data []byte) error {
	return func(data []byte) error {
		if !json.Valid(data) {
			return errors.New("relay: event is not valid JSON")
		}
		r.Broadcast(MsgDataChanged, eventData{Subject: subject, Event: json.RawMessage(data)})
		return nil
	}
}

// CloseAll drops every session; their handlers then shut down.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}
