package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

var (
	_ ports.Cache        = (*RedisCache)(nil)
	_ ports.HistoryStore = (*RedisHistoryStore)(nil)
)

// Dial parses a redis:// URL and checks the server answers.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisCache is the shared cache. Every key lives under keyPrefix.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, log *zap.Logger) *RedisCache {
	log.Info("Redis cache ready", zap.String("addr", client.Options().Addr))
	return &RedisCache{client: client, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, keyPrefix+key, value, expiration).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}

func (c *RedisCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// RedisHistoryStore keeps each conversation as a Redis list, one JSON turn
// per element, so a save rewrites the list and refreshes its TTL atomically.
type RedisHistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistoryStore(client *redis.Client, ttl time.Duration) *RedisHistoryStore {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &RedisHistoryStore{client: client, ttl: ttl}
}

func (s *RedisHistoryStore) Load(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	raw, err := s.client.LRange(ctx, keyPrefix+historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]domain.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn domain.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisHistoryStore) Save(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error {
	key := keyPrefix + historyKey(sessionID)
	if len(turns) == 0 {
		return s.client.Del(ctx, key).Err()
	}

	items := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		items = append(items, data)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, items...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, keyPrefix+historyKey(sessionID)).Err()
}
