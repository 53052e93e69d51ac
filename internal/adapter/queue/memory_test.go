package queue

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestMemoryQueue_PublishDeliversToSubscribers(t *testing.T) {
	// Arrange
	q := NewMemoryQueue(newTestLogger())
	var got []string
	_ = q.Subscribe("rentmap.property.updated", func(data []byte) error {
		got = append(got, "a:"+string(data))
		return errors.New("handler failure is logged, not returned")
	})
	_ = q.Subscribe("rentmap.property.updated", func(data []byte) error {
		got = append(got, "b:"+string(data))
		return nil
	})
	_ = q.Subscribe("other", func(data []byte) error {
		t.Error("unrelated subject should not be delivered")
		return nil
	})

	// Act
	err := q.Publish("rentmap.property.updated", []byte("p1"))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 || got[0] != "a:p1" || got[1] != "b:p1" {
		t.Errorf("unexpected deliveries %v", got)
	}
}

func TestMemoryQueue_CloseDropsSubscribers(t *testing.T) {
	q := NewMemoryQueue(newTestLogger())
	_ = q.Subscribe("s", func(data []byte) error {
		t.Error("closed queue should not deliver")
		return nil
	})

	_ = q.Close()
	_ = q.Publish("s", []byte("x"))

	if !q.Connected() {
		t.Error("in-process queue is always connected")
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	q, err := New("", "", newTestLogger())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := q.(*MemoryQueue); !ok {
		t.Errorf("expected memory queue, got %T", q)
	}

	if _, err := New("kafka", "", newTestLogger()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
