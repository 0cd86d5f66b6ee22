package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.Store.Backend)
	assert.Equal(t, "hospital_a_db", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.Mongo.ServerSelectionTimeout)
	assert.Equal(t, 30*time.Second, cfg.Mongo.SocketTimeout)
	assert.Equal(t, "file", cfg.Report.Exporter)
	assert.Equal(t, "none", cfg.Events.Broker)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 365, cfg.Audit.RetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.Audit.CleanupInterval)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
mongo:
  operation_timeout: 2s
events:
  broker: kafka
  kafka_brokers: ["kafka:9092"]
report:
  exporter: s3
  s3:
    bucket: ward-reports
`)
	t.Setenv("WARD_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 2*time.Second, cfg.Mongo.OperationTimeout)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "ward-reports", cfg.Report.S3.Bucket)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsIncompleteSections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "store:\n  backend: sqlite\n"},
		{"redis without url", "events:\n  broker: redis\n"},
		{"s3 without bucket", "report:\n  exporter: s3\n"},
		{"mail without recipients", "report:\n  exporter: mail\n  mail:\n    host: smtp.local\n"},
		{"negative retention", "audit:\n  retention_days: -1\n"},
		{"retention without interval", "audit:\n  retention_days: 30\n  cleanup_interval: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
