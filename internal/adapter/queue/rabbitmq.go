package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventsExchange carries every domain event; the routing key is the event
// subject ("rentmap.property.updated", "rentmap.expense.registered").
const EventsExchange = "rentmap.events"

const reconnectDelay = 5 * time.Second

var errNoChannel = errors.New("rabbitmq: channel not available")

type subscription struct {
	subject string
	handler func(data []byte) error
}

// RabbitMQQueue publishes domain events to a topic exchange. Each subscriber
// gets an exclusive auto-delete queue, rebound after a reconnect.
type RabbitMQQueue struct {
	url string
	log *zap.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	subs    []subscription
	closed  bool
	done    chan struct{}
}

func NewRabbitMQQueue(url string, log *zap.Logger) (*RabbitMQQueue, error) {
	q := &RabbitMQQueue{url: url, log: log, done: make(chan struct{})}
	if err := q.connect(); err != nil {
		return nil, err
	}
	go q.watch()

	log.Info("Connected to RabbitMQ", zap.String("exchange", EventsExchange))
	return q, nil
}

// connect dials, opens a channel and declares the exchange. Caller must not
// hold mu.
func (q *RabbitMQQueue) connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}

	q.mu.Lock()
	q.conn, q.channel = conn, ch
	subs := append([]subscription(nil), q.subs...)
	q.mu.Unlock()

	for _, s := range subs {
		if err := q.consume(s); err != nil {
			q.log.Error("Failed to restore subscription", zap.String("subject", s.subject), zap.Error(err))
		}
	}
	return nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.channel == nil {
		return errNoChannel
	}

	err := q.channel.Publish(EventsExchange, subject, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		AppId:        "rentmap-voice",
		Type:         subject,
		Timestamp:    time.Now(),
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe accepts AMQP topic patterns ("rentmap.property.*", "#").
func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	s := subscription{subject: subject, handler: handler}
	if err := q.consume(s); err != nil {
		return err
	}
	q.mu.Lock()
	q.subs = append(q.subs, s)
	q.mu.Unlock()
	return nil
}

func (q *RabbitMQQueue) consume(s subscription) error {
	q.mu.RLock()
	ch := q.channel
	q.mu.RUnlock()
	if ch == nil {
		return errNoChannel
	}

	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, s.subject, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind %s: %w", s.subject, err)
	}
	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}

	go func() {
		for d := range deliveries {
			if err := s.handler(d.Body); err != nil {
				q.log.Error("Event handler failed",
					zap.String("routing_key", d.RoutingKey),
					zap.Error(err),
				)
			}
		}
	}()
	return nil
}

// watch reconnects after the broker drops the connection until Close.
func (q *RabbitMQQueue) watch() {
	for {
		q.mu.RLock()
		conn := q.conn
		q.mu.RUnlock()

		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok || reason == nil {
			return
		}
		q.log.Warn("RabbitMQ connection lost", zap.String("reason", reason.Reason))

		q.mu.Lock()
		q.channel = nil
		q.mu.Unlock()

		for {
			select {
			case <-q.done:
				return
			case <-time.After(reconnectDelay):
			}
			if err := q.connect(); err != nil {
				q.log.Error("RabbitMQ reconnect failed", zap.Error(err))
				continue
			}
			q.log.Info("Reconnected to RabbitMQ")
			break
		}
	}
}

// Connected reports whether the broker connection is open.
func (q *RabbitMQQueue) Connected() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.conn != nil && !q.conn.IsClosed() && q.channel != nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)

	if q.channel != nil {
		q.channel.Close()
	}
	return q.conn.Close()
}
