package queue

import (
	"sync"

	"go.uber.org/zap"
)

// MemoryQueue delivers messages synchronously to in-process subscribers.
type MemoryQueue struct {
	mu       sync.RWMutex
	handlers map[string][]func(data []byte) error
	log      *zap.Logger
}

func NewMemoryQueue(log *zap.Logger) *MemoryQueue {
	return &MemoryQueue{
		handlers: make(map[string][]func(data []byte) error),
		log:      log,
	}
}

func (q *MemoryQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	handlers := append([]func(data []byte) error(nil), q.handlers[subject]...)
	q.mu.RUnlock()

	for _, h := range handlers {
		if err := h(data); err != nil {
			q.log.Error("Error processing message", zap.String("subject", subject), zap.Error(err))
		}
	}
	return nil
}

func (q *MemoryQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	q.handlers[subject] = append(q.handlers[subject], handler)
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.handlers = make(map[string][]func(data []byte) error)
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Connected() bool { return true }
