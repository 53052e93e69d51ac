package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// MockCache is a mock implementation of Cache interface
type MockCache struct {
	mu         sync.Mutex
	data       map[string]string
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
	PingFunc   func() error
	CloseFunc  func() error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]string),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return "", ports.ErrCacheMiss
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("mock cache: %w", err)
		}
		str = string(data)
	}
	m.mu.Lock()
	m.data[key] = str
	m.mu.Unlock()
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MockCache) Ping() error {
	if m.PingFunc != nil {
		return m.PingFunc()
	}
	return nil
}

func (m *MockCache) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Has reports whether key is currently stored.
func (m *MockCache) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// MockHistoryStore keeps conversations in memory. SaveFunc and ClearFunc run
// before the in-memory write and can block or fail it.
type MockHistoryStore struct {
	mu        sync.Mutex
	sessions  map[string][]domain.ConversationTurn
	SaveFunc  func(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error
	ClearFunc func(ctx context.Context, sessionID string) error
}

func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{sessions: make(map[string][]domain.ConversationTurn)}
}

func (m *MockHistoryStore) Load(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	return m.Turns(sessionID), nil
}

func (m *MockHistoryStore) Save(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, sessionID, turns); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sessions[sessionID] = append([]domain.ConversationTurn(nil), turns...)
	m.mu.Unlock()
	return nil
}

func (m *MockHistoryStore) Clear(ctx context.Context, sessionID string) error {
	if m.ClearFunc != nil {
		if err := m.ClearFunc(ctx, sessionID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// Turns returns a copy of what is stored for sessionID.
func (m *MockHistoryStore) Turns(sessionID string) []domain.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ConversationTurn(nil), m.sessions[sessionID]...)
}
