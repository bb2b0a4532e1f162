package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 12*time.Hour, c.Cache.HistoryTTL)
	assert.Equal(t, time.Minute, c.Cache.LatestTTL)
	assert.Equal(t, "memory", c.Cache.Backend)
	assert.Equal(t, "badger", c.Store.Backend)
	assert.Equal(t, "http", c.Sources.Cboe.Renderer)
	assert.True(t, c.Scheduler.Enabled)
	assert.False(t, c.Kafka.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
server:
  port: 9090
cache:
  backend: layered
  history_ttl: 6h
scheduler:
  enabled: false
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "layered", c.Cache.Backend)
	assert.Equal(t, 6*time.Hour, c.Cache.HistoryTTL)
	assert.False(t, c.Scheduler.Enabled)
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	_, err := Parse([]byte("store:\n  backend: sqlite\n"))
	assert.ErrorContains(t, err, "store.backend")

	_, err = Parse([]byte("cache:\n  backend: disk\n"))
	assert.ErrorContains(t, err, "cache.backend")

	_, err = Parse([]byte("kafka:\n  enabled: true\n"))
	assert.ErrorContains(t, err, "kafka.brokers")
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	env := map[string]string{
		"FRED_API_KEY":  "secret",
		"PORT":          "7000",
		"STORE_BACKEND": "postgres",
		"KAFKA_BROKERS": "k1:9092,k2:9092",
	}
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "secret", c.Sources.Fred.APIKey)
	assert.Equal(t, 7000, c.Server.Port)
	assert.Equal(t, "postgres", c.Store.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.NoError(t, c.Validate())

	c = Default()
	c.ApplyEnv(func(k string) string { return map[string]string{"PORT": "http"}[k] })
	assert.Equal(t, 8080, c.Server.Port)
}
