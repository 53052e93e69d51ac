//go:build integration

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		container, err := tcredis.Run(ctx, "redis:7-alpine")
		if err != nil {
			t.Skipf("Redis container not available: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("Failed to terminate redis container: %v", err)
			}
		})
		url, err = container.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("Failed to get connection string: %v", err)
		}
	}

	client, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCache_Integration(t *testing.T) {
	var c ports.Cache = NewRedisCache(setupRedis(t), zap.NewNop())
	ctx := context.Background()

	t.Run("SetGet", func(t *testing.T) {
		if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := c.Get(ctx, "k")
		if err != nil || got != "v" {
			t.Fatalf("Expected v, got %q, %v", got, err)
		}
	})

	t.Run("Miss", func(t *testing.T) {
		_, err := c.Get(ctx, "missing")
		if !errors.Is(err, ErrMiss) {
			t.Errorf("Expected ErrMiss, got %v", err)
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		if err := c.Set(ctx, "short", "v", 100*time.Millisecond); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		time.Sleep(300 * time.Millisecond)
		if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrMiss) {
			t.Errorf("Expected key to expire, got %v", err)
		}
	})
}

func TestRedisHistoryStore_Integration(t *testing.T) {
	store := NewRedisHistoryStore(setupRedis(t), time.Minute)
	ctx := context.Background()

	turns := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "subile el alquiler a Corrientes"},
		{Role: domain.RoleAssistant, Content: "¿A cuánto?"},
	}
	if err := store.Save(ctx, "s1", turns); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 || got[1].Content != "¿A cuánto?" {
		t.Errorf("Unexpected turns: %+v", got)
	}

	if err := store.Save(ctx, "s1", turns[1:]); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err = store.Load(ctx, "s1")
	if err != nil || len(got) != 1 || got[0].Role != domain.RoleAssistant {
		t.Errorf("Expected save to replace the list, got %+v, %v", got, err)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	got, err = store.Load(ctx, "s1")
	if err != nil || len(got) != 0 {
		t.Errorf("Expected empty history after clear, got %+v, %v", got, err)
	}
}
