package mocks

import (
	"fmt"
	"sync"

	"github.com/seu-repo/rentmap-voice/internal/ports"
)

var _ ports.EventPublisher = (*MockEventPublisher)(nil)

// MockEventPublisher records published events and lets tests push
// deliveries to subscribers.
type MockEventPublisher struct {
	mu        sync.Mutex
	published map[string][][]byte
	handlers  map[string][]func([]byte) error

	PublishErr error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		published: make(map[string][][]byte),
		handlers:  make(map[string][]func([]byte) error),
	}
}

func (m *MockEventPublisher) Publish(subject string, data []byte) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[subject] = append(m.published[subject], append([]byte(nil), data...))
	return nil
}

func (m *MockEventPublisher) Subscribe(subject string, handler func([]byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[subject] = append(m.handlers[subject], handler)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

// Published returns the payloads sent to subject, oldest first.
func (m *MockEventPublisher) Published(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.published[subject]...)
}

// Deliver hands data to every subscriber of subject and returns the first
// handler error.
func (m *MockEventPublisher) Deliver(subject string, data []byte) error {
	m.mu.Lock()
	handlers := append([]func([]byte) error(nil), m.handlers[subject]...)
	m.mu.Unlock()
	if len(handlers) == 0 {
		return fmt.Errorf("no subscriber for %s", subject)
	}
	for _, h := range handlers {
		if err := h(data); err != nil {
			return err
		}
	}
	return nil
}
