package voice

import (
	"context"
	"testing"
	"time"

	"github.com/seu-repo/rentmap-voice/internal/adapter/cache"
	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/mocks"
)

func TestHistory_AppendAndTrim(t *testing.T) {
	h := NewHistory(3, nil, "s1", newTestLogger())

	h.Append(domain.RoleUser, "uno")
	h.Append(domain.RoleAssistant, "dos")
	h.Append(domain.RoleUser, "")
	h.Append(domain.RoleUser, "tres")
	h.Append(domain.RoleAssistant, "cuatro")

	turns := h.Snapshot()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Content != "dos" || turns[2].Content != "cuatro" {
		t.Errorf("expected oldest turns dropped, got %+v", turns)
	}
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := NewHistory(10, nil, "s1", newTestLogger())
	h.Append(domain.RoleUser, "hola")

	snap := h.Snapshot()
	snap[0].Content = "cambiado"

	if h.Snapshot()[0].Content != "hola" {
		t.Error("mutating a snapshot changed the history")
	}
}

func TestHistory_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := cache.NewHistoryStore(mocks.NewMockCache(), time.Minute)

	h := NewHistory(10, store, "s1", newTestLogger())
	h.Append(domain.RoleUser, "subile el alquiler")
	h.Append(domain.RoleAssistant, "¿A qué propiedad?")
	h.Close()

	restored := NewHistory(10, store, "s1", newTestLogger())
	defer restored.Close()
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 restored turns, got %d", restored.Len())
	}

	restored.Clear()
	restored.Close()
	again := NewHistory(10, store, "s1", newTestLogger())
	defer again.Close()
	if err := again.Restore(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if again.Len() != 0 {
		t.Errorf("expected cleared history, got %d turns", again.Len())
	}
}

func TestHistory_SlowStoreDoesNotBlockWriters(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	store := mocks.NewMockHistoryStore()
	store.SaveFunc = func(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil
	}
	h := NewHistory(10, store, "s1", newTestLogger())

	// Act
	h.Append(domain.RoleUser, "hola")
	<-entered
	start := time.Now()
	h.Append(domain.RoleAssistant, "¿En qué te ayudo?")
	h.Clear()
	elapsed := time.Since(start)
	close(release)
	h.Close()

	// Assert
	if elapsed > 100*time.Millisecond {
		t.Errorf("writes waited on the store for %s", elapsed)
	}
	if turns := store.Turns("s1"); len(turns) != 0 {
		t.Errorf("expected the final clear to win, store has %v", turns)
	}
}

func TestHistory_LastWriteWins(t *testing.T) {
	store := mocks.NewMockHistoryStore()
	h := NewHistory(10, store, "s1", newTestLogger())

	h.Append(domain.RoleUser, "uno")
	h.Clear()
	h.Append(domain.RoleUser, "dos")
	h.Close()

	turns := store.Turns("s1")
	if len(turns) != 1 || turns[0].Content != "dos" {
		t.Errorf("expected only the latest turn stored, got %v", turns)
	}
}

func TestHistory_CloseIsIdempotent(t *testing.T) {
	store := mocks.NewMockHistoryStore()
	h := NewHistory(10, store, "s1", newTestLogger())
	h.Append(domain.RoleUser, "hola")

	h.Close()
	h.Close()
	h.Append(domain.RoleAssistant, "tarde")

	if turns := store.Turns("s1"); len(turns) != 1 {
		t.Errorf("writes after close must stay in memory, store has %v", turns)
	}
	if h.Len() != 2 {
		t.Errorf("expected 2 turns in memory, got %d", h.Len())
	}
}
