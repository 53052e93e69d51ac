package ports

import (
	"context"
	"errors"
	"time"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

type PropertyRepository interface {
	Save(ctx context.Context, p *domain.Property) error
	FindByID(ctx context.Context, id string) (*domain.Property, error)
	FindAll(ctx context.Context) ([]domain.Property, error)
	UpdateFields(ctx context.Context, id string, update domain.PropertyUpdate) error
}

type ProfessionalRepository interface {
	Save(ctx context.Context, p *domain.Professional) error
	FindByID(ctx context.Context, id string) (*domain.Professional, error)
	FindAll(ctx context.Context) ([]domain.Professional, error)
}

type ExpenseRepository interface {
	Save(ctx context.Context, e *domain.Expense) error
	FindAll(ctx context.Context, limit, offset int) ([]domain.Expense, error)
	FindByProperty(ctx context.Context, propertyID string) ([]domain.Expense, error)
}

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a string key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// HistoryStore persists a session's conversation between reconnects.
type HistoryStore interface {
	Load(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
	Save(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error
	Clear(ctx context.Context, sessionID string) error
}

// EventPublisher fans domain events out to the message bus.
type EventPublisher interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
