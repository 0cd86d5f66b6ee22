package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jwalitptl/ward-assistant/pkg/messaging"
)

type Config struct {
	Brokers      []string
	BatchTimeout time.Duration
}

// KafkaBroker writes each message to the topic named by the channel,
// keyed by the message id when the payload is a messaging.Message.
type KafkaBroker struct {
	writer *kafka.Writer
}

var _ messaging.Broker = (*KafkaBroker)(nil)

func NewKafkaBroker(config Config) (*KafkaBroker, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker address is required")
	}
	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}

	return &KafkaBroker{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(config.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := kafka.Message{Topic: channel, Value: payload}
	if m, ok := message.(messaging.Message); ok {
		msg.Key = []byte(m.ID)
	}

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
