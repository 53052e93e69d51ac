package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

// MockRecognizer is a mock implementation of Recognizer
type MockRecognizer struct {
	mu          sync.Mutex
	Unsupported bool
	StartFunc   func(ctx context.Context, locale string) error
	starts      int
	aborts      int
}

func (m *MockRecognizer) Supported() bool { return !m.Unsupported }

func (m *MockRecognizer) Start(ctx context.Context, locale string) error {
	m.mu.Lock()
	m.starts++
	m.mu.Unlock()
	if m.StartFunc != nil {
		return m.StartFunc(ctx, locale)
	}
	return nil
}

func (m *MockRecognizer) Abort() {
	m.mu.Lock()
	m.aborts++
	m.mu.Unlock()
}

func (m *MockRecognizer) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *MockRecognizer) Aborts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aborts
}

// MockSpeaker records utterances. Unless Hold is set, done runs before
// Speak returns.
type MockSpeaker struct {
	mu       sync.Mutex
	Hold     bool
	SpeakErr error
	spoken   []string
	pending  []func()
	cancels  int
}

func (m *MockSpeaker) Speak(ctx context.Context, text, locale string, done func()) error {
	if m.SpeakErr != nil {
		return m.SpeakErr
	}
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	if m.Hold {
		m.pending = append(m.pending, done)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	done()
	return nil
}

func (m *MockSpeaker) CancelSpeech() {
	m.mu.Lock()
	m.cancels++
	m.pending = nil
	m.mu.Unlock()
}

// Finish completes every held utterance.
func (m *MockSpeaker) Finish() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, done := range pending {
		done()
	}
}

func (m *MockSpeaker) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

func (m *MockSpeaker) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

// MockNavigator records UI effects as short strings, e.g. "view:FINANCE".
type MockNavigator struct {
	mu            sync.Mutex
	calls         []string
	confirmations []domain.Confirmation
}

func (m *MockNavigator) record(format string, args ...interface{}) {
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockNavigator) SwitchView(ctx context.Context, view domain.View) {
	m.record("view:%s", view)
}

func (m *MockNavigator) OpenModal(ctx context.Context, modal domain.Modal, prefill string) {
	m.record("modal:%s:%s", modal, prefill)
}

func (m *MockNavigator) SearchMap(ctx context.Context, query string) {
	m.record("search:%s", query)
}

func (m *MockNavigator) SelectProperty(ctx context.Context, p domain.Property) {
	m.record("select_property:%s", p.ID)
}

func (m *MockNavigator) SelectProfessional(ctx context.Context, p domain.Professional) {
	m.record("select_professional:%s", p.ID)
}

func (m *MockNavigator) OpenAssignment(ctx context.Context, p domain.Property, pro domain.Professional) {
	m.record("assign:%s:%s", p.ID, pro.ID)
}

func (m *MockNavigator) OpenMaintenanceCompletion(ctx context.Context, p domain.Property) {
	m.record("finish_maintenance:%s", p.ID)
}

func (m *MockNavigator) PromptCall(ctx context.Context, name, phone string) {
	m.record("call:%s:%s", name, phone)
}

func (m *MockNavigator) PresentConfirmation(ctx context.Context, c domain.Confirmation) {
	m.mu.Lock()
	m.confirmations = append(m.confirmations, c)
	m.calls = append(m.calls, "confirm:"+string(c.Kind))
	m.mu.Unlock()
}

func (m *MockNavigator) CloseConfirmation(ctx context.Context, kind domain.ConfirmationKind) {
	m.record("close_confirm:%s", kind)
}

func (m *MockNavigator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockNavigator) Confirmations() []domain.Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Confirmation(nil), m.confirmations...)
}

// MockWorkspace is a fixed WorkspaceSource.
type MockWorkspace struct {
	mu sync.Mutex
	WS domain.Workspace
}

func (m *MockWorkspace) Workspace(ctx context.Context) (domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.WS, nil
}
