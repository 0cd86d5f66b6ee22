package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, InfoLevel, ParseLevel("chatty"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})

	log.With("component", "guard").Info("login accepted", "staff_id", "DOC_001")
	log.Debug("dropped")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "login accepted", line["message"])
	assert.Equal(t, "guard", line["component"])
	assert.Equal(t, "DOC_001", line["staff_id"])
	assert.Contains(t, line["caller"], "logger_test.go")
}

func TestContextRoundTrip(t *testing.T) {
	fallback := Nop()
	scoped := Nop().With("request_id", "abc")

	ctx := scoped.IntoContext(context.Background())

	assert.Same(t, scoped, FromContext(ctx, fallback))
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
}
