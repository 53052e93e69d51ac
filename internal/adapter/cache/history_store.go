package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const defaultHistoryTTL = 30 * time.Minute

// HistoryStore keeps voice conversations in the cache as JSON.
type HistoryStore struct {
	cache ports.Cache
	ttl   time.Duration
}

func NewHistoryStore(c ports.Cache, ttl time.Duration) *HistoryStore {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &HistoryStore{cache: c, ttl: ttl}
}

func historyKey(sessionID string) string {
	return "voice:history:" + sessionID
}

func (s *HistoryStore) Load(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	raw, err := s.cache.Get(ctx, historyKey(sessionID))
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var turns []domain.ConversationTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return turns, nil
}

func (s *HistoryStore) Save(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error {
	if len(turns) == 0 {
		return s.Clear(ctx, sessionID)
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.cache.Set(ctx, historyKey(sessionID), data, s.ttl)
}

func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, historyKey(sessionID))
}
