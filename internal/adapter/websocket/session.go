package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
)

var ErrSynthesisUnsupported = errors.New("speech synthesis not supported by client")

const sendBuffer = 64

// Session is the browser side of one voice session. It relays recognition,
// synthesis and UI effects over the socket and mirrors the dashboard's view
// and selection for the resolver.
type Session struct {
	id        string
	workspace ports.WorkspaceSource
	log       *zap.Logger

	send chan []byte

	mu                     sync.Mutex
	closed                 bool
	recognition            bool
	synthesis              bool
	view                   domain.View
	selectedPropertyID     string
	selectedProfessionalID string
	speechSeq              uint64
	speeches               map[uint64]func()

	controller *voice.Controller
}

func newSession(id string, workspace ports.WorkspaceSource, log *zap.Logger) *Session {
	return &Session{
		id:          id,
		workspace:   workspace,
		log:         log,
		send:        make(chan []byte, sendBuffer),
		recognition: true,
		synthesis:   true,
		view:        domain.ViewMap,
		speeches:    make(map[uint64]func()),
	}
}

func (s *Session) ID() string { return s.id }

// Status is the controller's current status.
func (s *Session) Status() voice.Status {
	return s.controller.Status()
}

func (s *Session) emit(msgType string, data interface{}) {
	env := Envelope{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			s.log.Error("Failed to encode message", zap.String("type", msgType), zap.Error(err))
			return
		}
		env.Data = raw
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- frame:
	default:
		s.log.Warn("Client send buffer full, dropping message", zap.String("type", msgType))
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.speeches = make(map[uint64]func())
	close(s.send)
}

// Recognizer

func (s *Session) Supported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recognition
}

func (s *Session) Start(ctx context.Context, locale string) error {
	s.emit(MsgListen, listenData{Locale: locale})
	return nil
}

func (s *Session) Abort() {
	s.emit(MsgAbortListen, nil)
}

// Speaker

func (s *Session) Speak(ctx context.Context, text, locale string, done func()) error {
	s.mu.Lock()
	if !s.synthesis {
		s.mu.Unlock()
		return ErrSynthesisUnsupported
	}
	s.speechSeq++
	id := s.speechSeq
	s.speeches[id] = done
	s.mu.Unlock()

	s.emit(MsgSpeak, speechData{ID: id, Text: text, Locale: locale})
	return nil
}

func (s *Session) CancelSpeech() {
	s.mu.Lock()
	s.speeches = make(map[uint64]func())
	s.mu.Unlock()
	s.emit(MsgCancelSpeech, nil)
}

// speechDone runs the completion callback of utterance id at most once.
func (s *Session) speechDone(id uint64) {
	s.mu.Lock()
	done, ok := s.speeches[id]
	delete(s.speeches, id)
	s.mu.Unlock()
	if ok && done != nil {
		done()
	}
}

// Navigator

func (s *Session) SwitchView(ctx context.Context, view domain.View) {
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	s.emit(MsgNavigate, navigateData{View: view})
}

func (s *Session) OpenModal(ctx context.Context, modal domain.Modal, prefill string) {
	s.emit(MsgOpenModal, modalData{Modal: modal, Prefill: prefill})
}

func (s *Session) SearchMap(ctx context.Context, query string) {
	s.emit(MsgSearchMap, searchData{Query: query})
}

func (s *Session) SelectProperty(ctx context.Context, p domain.Property) {
	s.mu.Lock()
	s.selectedPropertyID = p.ID
	s.selectedProfessionalID = ""
	s.mu.Unlock()
	s.emit(MsgSelect, selectData{ItemType: domain.ItemProperty, ID: p.ID})
}

func (s *Session) SelectProfessional(ctx context.Context, p domain.Professional) {
	s.mu.Lock()
	s.selectedProfessionalID = p.ID
	s.selectedPropertyID = ""
	s.mu.Unlock()
	s.emit(MsgSelect, selectData{ItemType: domain.ItemProfessional, ID: p.ID})
}

func (s *Session) OpenAssignment(ctx context.Context, p domain.Property, pro domain.Professional) {
	s.emit(MsgOpenAssignment, assignmentData{PropertyID: p.ID, ProfessionalID: pro.ID})
}

func (s *Session) OpenMaintenanceCompletion(ctx context.Context, p domain.Property) {
	s.emit(MsgOpenMaintenance, selectData{ItemType: domain.ItemProperty, ID: p.ID})
}

func (s *Session) PromptCall(ctx context.Context, name, phone string) {
	s.emit(MsgConfirmCall, callData{Name: name, Phone: phone})
}

func (s *Session) PresentConfirmation(ctx context.Context, c domain.Confirmation) {
	s.emit(MsgConfirmation, c)
}

func (s *Session) CloseConfirmation(ctx context.Context, kind domain.ConfirmationKind) {
	s.emit(MsgConfirmationClosed, kindData{Kind: kind})
}

// Workspace combines the stored lists with the mirrored view and selection.
func (s *Session) Workspace(ctx context.Context) (domain.Workspace, error) {
	ws, err := s.workspace.Workspace(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}

	s.mu.Lock()
	ws.View = s.view
	propID, proID := s.selectedPropertyID, s.selectedProfessionalID
	s.mu.Unlock()

	if p, ok := ws.PropertyByID(propID); ok {
		ws.SelectedProperty = p
	}
	if p, ok := ws.ProfessionalByID(proID); ok {
		ws.SelectedProfessional = p
	}
	return ws, nil
}

func (s *Session) updateContext(c contextData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if view, ok := domain.ParseView(string(c.View)); ok {
		s.view = view
	}
	s.selectedPropertyID = c.SelectedPropertyID
	s.selectedProfessionalID = c.SelectedProfessionalID
}

func (s *Session) updateCapabilities(c capabilitiesData) {
	s.mu.Lock()
	s.recognition = c.Recognition
	s.synthesis = c.Synthesis
	s.mu.Unlock()
}

var _ voice.Transport = (*Session)(nil)
