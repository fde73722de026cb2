package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid and fills topic/QoS defaults
func Validate(cfg *Config) error {
	// Validate instance_id
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5 // default
	}

	// Validate sources
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]struct{}, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d].id is required", i)
		}
		if src.Addr == "" {
			return fmt.Errorf("sources[%d].addr is required", i)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = struct{}{}
	}

	// Pipeline knobs may be zero (library defaults apply) but not negative
	if cfg.Pipeline.QueueCapacity < 0 || cfg.Pipeline.PoolCapacity < 0 ||
		cfg.Pipeline.StalenessTimeoutMS < 0 || cfg.Pipeline.IdleSleepMS < 0 ||
		cfg.Pipeline.BatchSize < 0 {
		return fmt.Errorf("pipeline settings must not be negative")
	}
	if cfg.Pipeline.ReconnectMaxWaitS > 0 &&
		cfg.Pipeline.ReconnectMaxWaitS < cfg.Pipeline.ReconnectMinWaitS {
		return fmt.Errorf("pipeline.reconnect_max_wait_s must be >= reconnect_min_wait_s")
	}

	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9102" // default
	}

	// MQTT is optional; topics and QoS get defaults only when a broker is set
	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topics.Readings == "" {
			cfg.MQTT.Topics.Readings = fmt.Sprintf("wear/readings/%s", cfg.InstanceID)
		}
		if cfg.MQTT.Topics.Health == "" {
			cfg.MQTT.Topics.Health = fmt.Sprintf("wear/health/%s", cfg.InstanceID)
		}
		if cfg.MQTT.QoS == nil {
			cfg.MQTT.QoS = map[string]byte{
				"readings": 0,
				"health":   1,
			}
		}
	}

	return nil
}
