package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaBrokerRequiresAddresses(t *testing.T) {
	_, err := NewKafkaBroker(Config{})
	assert.Error(t, err)
}

func TestNewKafkaBrokerDefaults(t *testing.T) {
	b, err := NewKafkaBroker(Config{Brokers: []string{"kafka:9092"}})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "kafka:9092", b.writer.Addr.String())
	assert.True(t, b.writer.AllowAutoTopicCreation)
}
