package voice

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const (
	defaultHistoryLimit = 20
	persistTimeout      = 2 * time.Second
)

// History is the append-only conversation of one session. Only the
// controller writes to it; the resolver reads snapshots.
//
// Writes never touch the store directly. They mark the latest state dirty and
// a single writer goroutine saves it, so the store always ends up holding the
// most recent state even when it is slow.
type History struct {
	mu    sync.Mutex
	turns []domain.ConversationTurn
	limit int

	store     ports.HistoryStore
	sessionID string
	log       *zap.Logger

	dirty   bool
	pending []domain.ConversationTurn
	closed  bool
	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

func NewHistory(limit int, store ports.HistoryStore, sessionID string, log *zap.Logger) *History {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	h := &History{
		limit:     limit,
		store:     store,
		sessionID: sessionID,
		log:       log,
	}
	if store != nil {
		h.wake = make(chan struct{}, 1)
		h.stop = make(chan struct{})
		h.stopped = make(chan struct{})
		go h.write()
	}
	return h
}

// Restore loads a previously persisted conversation.
func (h *History) Restore(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	turns, err := h.store.Load(ctx, h.sessionID)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.turns = trimTurns(turns, h.limit)
	h.mu.Unlock()
	return nil
}

func (h *History) Append(role domain.Role, content string) {
	if content == "" {
		return
	}
	h.mu.Lock()
	h.turns = trimTurns(append(h.turns, domain.ConversationTurn{Role: role, Content: content}), h.limit)
	h.markDirtyLocked()
	h.mu.Unlock()
}

// Snapshot returns a copy safe to hand to another goroutine.
func (h *History) Snapshot() []domain.ConversationTurn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.copyLocked()
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

func (h *History) Clear() {
	h.mu.Lock()
	h.turns = nil
	h.markDirtyLocked()
	h.mu.Unlock()
}

// Close flushes the last pending write and stops the writer. Later writes
// stay in memory only.
func (h *History) Close() {
	if h.store == nil {
		return
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.stopped
		return
	}
	h.closed = true
	h.mu.Unlock()

	close(h.stop)
	<-h.stopped
}

func (h *History) markDirtyLocked() {
	if h.store == nil || h.closed {
		return
	}
	h.pending = h.copyLocked()
	h.dirty = true
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *History) write() {
	defer close(h.stopped)
	for {
		select {
		case <-h.wake:
			h.flush()
		case <-h.stop:
			h.flush()
			return
		}
	}
}

func (h *History) flush() {
	h.mu.Lock()
	if !h.dirty {
		h.mu.Unlock()
		return
	}
	turns := h.pending
	h.pending, h.dirty = nil, false
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if len(turns) == 0 {
		err = h.store.Clear(ctx, h.sessionID)
	} else {
		err = h.store.Save(ctx, h.sessionID, turns)
	}
	if err != nil {
		h.log.Warn("Failed to persist conversation history",
			zap.String("session_id", h.sessionID),
			zap.Error(err),
		)
	}
}

func (h *History) copyLocked() []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, len(h.turns))
	copy(out, h.turns)
	return out
}

func trimTurns(turns []domain.ConversationTurn, limit int) []domain.ConversationTurn {
	if len(turns) <= limit {
		return turns
	}
	return append([]domain.ConversationTurn(nil), turns[len(turns)-limit:]...)
}
