package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/ports"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("cache closed")

var _ ports.Cache = (*LocalCache)(nil)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// LocalCache is the in-process cache for single-node runs and the CLI.
// Expired entries are dropped on read and swept during writes at most once
// per sweep interval, so no background goroutine is needed.
type LocalCache struct {
	mu        sync.Mutex
	entries   map[string]entry
	now       func() time.Time
	sweep     time.Duration
	lastSweep time.Time
	closed    bool
	log       *zap.Logger
}

func NewLocalCache(sweepInterval time.Duration, log *zap.Logger) *LocalCache {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	log.Info("Using in-process cache", zap.Duration("sweep_interval", sweepInterval))
	return &LocalCache{
		entries:   make(map[string]entry),
		now:       time.Now,
		sweep:     sweepInterval,
		lastSweep: time.Now(),
		log:       log,
	}
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}

	e, ok := c.entries[keyPrefix+key]
	if !ok {
		return "", ErrMiss
	}
	if !e.live(c.now()) {
		delete(c.entries, keyPrefix+key)
		return "", ErrMiss
	}
	return e.value, nil
}

// Set stores strings and byte slices as-is and anything else as JSON.
func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		s = string(data)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	now := c.now()
	e := entry{value: s}
	if expiration > 0 {
		e.expiresAt = now.Add(expiration)
	}
	c.entries[keyPrefix+key] = e

	if now.Sub(c.lastSweep) >= c.sweep {
		c.sweepLocked(now)
	}
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	delete(c.entries, keyPrefix+key)
	return nil
}

func (c *LocalCache) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Close drops every entry. Calling it again is a no-op.
func (c *LocalCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = nil
	return nil
}

// Len counts live entries.
func (c *LocalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for _, e := range c.entries {
		if e.live(now) {
			n++
		}
	}
	return n
}

func (c *LocalCache) sweepLocked(now time.Time) {
	c.lastSweep = now
	dropped := 0
	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
			dropped++
		}
	}
	if dropped > 0 {
		c.log.Debug("Swept expired cache entries", zap.Int("dropped", dropped))
	}
}
