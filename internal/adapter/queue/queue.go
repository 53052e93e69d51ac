package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const (
	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
	DriverMemory   = "memory"
)

// New connects the configured message bus. An empty driver selects the
// in-process bus.
func New(driver, url string, log *zap.Logger) (ports.EventPublisher, error) {
	switch driver {
	case DriverNATS:
		return NewNATSQueue(url, log)
	case DriverRabbitMQ:
		return NewRabbitMQQueue(url, log)
	case DriverMemory, "":
		return NewMemoryQueue(log), nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", driver)
	}
}
