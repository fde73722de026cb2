package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/e7canasta/orion-wear-imu/imupipeline"
)

// Config represents the complete wearimud configuration
type Config struct {
	InstanceID       string         `yaml:"instance_id"`
	ShutdownTimeoutS int            `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Sources          []SourceConfig `yaml:"sources"`
	Pipeline         PipelineConfig `yaml:"pipeline"`
	MQTT             MQTTConfig     `yaml:"mqtt"`
	MetricsAddr      string         `yaml:"metrics_addr"` // Prometheus /metrics listen address (default: :9102)
}

// SourceConfig identifies one watch endpoint
type SourceConfig struct {
	ID   string `yaml:"id"`
	Addr string `yaml:"addr"` // host:port, dialed as ws://addr/imu
}

// PipelineConfig contains ingestion tuning knobs
type PipelineConfig struct {
	QueueCapacity      int `yaml:"queue_capacity"`       // completed-reading backlog bound
	PoolCapacity       int `yaml:"pool_capacity"`        // recycled-reading free list bound
	StalenessTimeoutMS int `yaml:"staleness_timeout_ms"` // partial-reading eviction deadline
	IdleSleepMS        int `yaml:"idle_sleep_ms"`        // dispatcher sleep on empty queue
	BatchSize          int `yaml:"batch_size"`           // max readings per dispatch iteration
	ReconnectMinWaitS  int `yaml:"reconnect_min_wait_s"` // backoff floor between reconnects
	ReconnectMaxWaitS  int `yaml:"reconnect_max_wait_s"` // backoff ceiling between reconnects
}

// MQTTConfig contains MQTT broker settings. An empty broker disables the
// emitter entirely.
type MQTTConfig struct {
	Broker string          `yaml:"broker"`
	Topics MQTTTopics      `yaml:"topics"`
	QoS    map[string]byte `yaml:"qos"`
}

// MQTTTopics contains topic templates
type MQTTTopics struct {
	Readings string `yaml:"readings"`
	Health   string `yaml:"health"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}

// PipelineOptions converts the file config into the library's
// construction-time Config. Zero fields keep the library defaults.
func (c *Config) PipelineOptions() imupipeline.Config {
	sources := make([]imupipeline.SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		sources = append(sources, imupipeline.SourceConfig{ID: s.ID, Addr: s.Addr})
	}

	return imupipeline.Config{
		Sources:          sources,
		QueueCapacity:    c.Pipeline.QueueCapacity,
		PoolCapacity:     c.Pipeline.PoolCapacity,
		StalenessTimeout: time.Duration(c.Pipeline.StalenessTimeoutMS) * time.Millisecond,
		IdleSleep:        time.Duration(c.Pipeline.IdleSleepMS) * time.Millisecond,
		BatchSize:        c.Pipeline.BatchSize,
		ReconnectMinWait: time.Duration(c.Pipeline.ReconnectMinWaitS) * time.Second,
		ReconnectMaxWait: time.Duration(c.Pipeline.ReconnectMaxWaitS) * time.Second,
	}
}
