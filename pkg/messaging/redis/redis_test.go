package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ward-assistant/pkg/logger"
	"github.com/jwalitptl/ward-assistant/pkg/messaging"
)

func TestNewStreamBrokerRejectsBadURL(t *testing.T) {
	_, err := NewStreamBroker(context.Background(), Config{URL: "not-a-redis-url"}, logger.Nop())

	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

func TestStreamValuesFlattensEnvelope(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	values, err := streamValues(messaging.Message{
		ID:         "evt-1",
		Type:       "prescription.created",
		OccurredAt: at,
		Payload:    map[string]string{"prescription_id": "PR_001"},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"id":          "evt-1",
		"type":        "prescription.created",
		"occurred_at": "2026-03-01T09:30:00Z",
		"payload":     `{"prescription_id":"PR_001"}`,
	}, values)
}

func TestStreamValuesWrapsOtherMessages(t *testing.T) {
	values, err := streamValues([]int{1, 2})

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"data": "[1,2]"}, values)
}

func TestStreamValuesRejectsUnencodable(t *testing.T) {
	_, err := streamValues(make(chan int))

	assert.ErrorContains(t, err, "failed to marshal message")
}
