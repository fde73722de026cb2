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
	path := filepath.Join(t.TempDir(), "wearimud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
instance_id: ward-3
sources:
  - id: left-wrist
    addr: 192.168.1.101:8081
  - id: right-wrist
    addr: 192.168.1.102:8081
mqtt:
  broker: localhost:1883
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ward-3", cfg.InstanceID)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, ":9102", cfg.MetricsAddr)
	assert.Equal(t, "wear/readings/ward-3", cfg.MQTT.Topics.Readings)
	assert.Equal(t, "wear/health/ward-3", cfg.MQTT.Topics.Health)
	assert.Equal(t, byte(0), cfg.MQTT.QoS["readings"])
	assert.Equal(t, byte(1), cfg.MQTT.QoS["health"])
}

func TestLoadEmptyBrokerDisablesEmitterDefaults(t *testing.T) {
	path := writeConfig(t, `
instance_id: bench
sources:
  - id: test-watch
    addr: localhost:8081
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, cfg.MQTT.Broker)
	assert.Empty(t, cfg.MQTT.Topics.Readings)
	assert.Nil(t, cfg.MQTT.QoS)
}

func TestLoadPipelineOptions(t *testing.T) {
	path := writeConfig(t, `
instance_id: bench
sources:
  - id: test-watch
    addr: localhost:8081
pipeline:
  queue_capacity: 4096
  pool_capacity: 1000
  staleness_timeout_ms: 200
  idle_sleep_ms: 2
  batch_size: 25
  reconnect_min_wait_s: 1
  reconnect_max_wait_s: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	opts := cfg.PipelineOptions()
	assert.Equal(t, 4096, opts.QueueCapacity)
	assert.Equal(t, 1000, opts.PoolCapacity)
	assert.Equal(t, 200*time.Millisecond, opts.StalenessTimeout)
	assert.Equal(t, 2*time.Millisecond, opts.IdleSleep)
	assert.Equal(t, 25, opts.BatchSize)
	assert.Equal(t, time.Second, opts.ReconnectMinWait)
	assert.Equal(t, 10*time.Second, opts.ReconnectMaxWait)
	require.Len(t, opts.Sources, 1)
	assert.Equal(t, "test-watch", opts.Sources[0].ID)
	assert.Equal(t, "localhost:8081", opts.Sources[0].Addr)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing instance id",
			cfg:  Config{Sources: []SourceConfig{{ID: "w", Addr: "a:1"}}},
			want: "instance_id is required",
		},
		{
			name: "uppercase instance id",
			cfg:  Config{InstanceID: "Ward3", Sources: []SourceConfig{{ID: "w", Addr: "a:1"}}},
			want: "instance_id must match",
		},
		{
			name: "no sources",
			cfg:  Config{InstanceID: "ward-3"},
			want: "at least one source",
		},
		{
			name: "source missing addr",
			cfg:  Config{InstanceID: "ward-3", Sources: []SourceConfig{{ID: "w"}}},
			want: "sources[0].addr is required",
		},
		{
			name: "duplicate source id",
			cfg: Config{InstanceID: "ward-3", Sources: []SourceConfig{
				{ID: "w", Addr: "a:1"},
				{ID: "w", Addr: "b:1"},
			}},
			want: "duplicate source id",
		},
		{
			name: "inverted reconnect window",
			cfg: Config{
				InstanceID: "ward-3",
				Sources:    []SourceConfig{{ID: "w", Addr: "a:1"}},
				Pipeline:   PipelineConfig{ReconnectMinWaitS: 10, ReconnectMaxWaitS: 2},
			},
			want: "reconnect_max_wait_s",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
