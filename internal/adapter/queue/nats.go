package queue

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NATSQueue struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNATSQueue(url string, log *zap.Logger) (*NATSQueue, error) {
	nc, err := nats.Connect(url,
		nats.Name("rentmap-voice"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Successfully connected to NATS", zap.String("url", url))
	return &NATSQueue{
		conn: nc,
		log:  log,
	}, nil
}

func (q *NATSQueue) Publish(subject string, data []byte) error {
	return q.conn.Publish(subject, data)
}

func (q *NATSQueue) Subscribe(subject string, handler func(data []byte) error) error {
	_, err := q.conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			q.log.Error("Error processing message", zap.String("subject", subject), zap.Error(err))
		}
	})
	return err
}

// Connected reports whether the client currently has a server connection.
func (q *NATSQueue) Connected() bool {
	return q.conn.IsConnected()
}

func (q *NATSQueue) Close() error {
	if err := q.conn.Drain(); err != nil {
		q.conn.Close()
	}
	return nil
}
