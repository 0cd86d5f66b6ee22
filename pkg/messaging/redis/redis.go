// Package redis publishes messages to Redis streams, one stream per
// channel, so a consumer that was down can read what it missed.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/ward-assistant/pkg/circuitbreaker"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
	"github.com/jwalitptl/ward-assistant/pkg/messaging"
)

const defaultStreamMaxLen = 10000

type Config struct {
	URL string
	// StreamMaxLen caps each stream, approximately. Zero means 10000.
	StreamMaxLen int64
	PoolSize     int
}

type StreamBroker struct {
	client *redis.Client
	maxLen int64
	cb     *circuitbreaker.CircuitBreaker
	logger *logger.Logger
}

var _ messaging.Broker = (*StreamBroker)(nil)

func NewStreamBroker(ctx context.Context, config Config, log *logger.Logger) (*StreamBroker, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	maxLen := config.StreamMaxLen
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &StreamBroker{
		client: client,
		maxLen: maxLen,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-stream",
			MaxFailures: 5,
			Timeout:     5 * time.Second,
		}),
		logger: log.With("component", "redis_stream"),
	}, nil
}

// Publish appends message to the stream named by channel.
func (b *StreamBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	values, err := streamValues(message)
	if err != nil {
		return err
	}

	err = b.cb.Execute(func() error {
		return b.client.XAdd(ctx, &redis.XAddArgs{
			Stream: channel,
			MaxLen: b.maxLen,
			Approx: true,
			Values: values,
		}).Err()
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		b.logger.Warn("stream circuit open, dropping message", "stream", channel)
	}
	return err
}

func (b *StreamBroker) Close() error {
	return b.client.Close()
}

// streamValues flattens an envelope into stream fields so consumers can
// filter on type without decoding the payload. Other values travel as a
// single data field.
func streamValues(message interface{}) (map[string]interface{}, error) {
	if m, ok := message.(messaging.Message); ok {
		payload, err := json.Marshal(m.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message: %w", err)
		}
		return map[string]interface{}{
			"id":          m.ID,
			"type":        m.Type,
			"occurred_at": m.OccurredAt.UTC().Format(time.RFC3339Nano),
			"payload":     string(payload),
		}, nil
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return map[string]interface{}{"data": string(data)}, nil
}
