package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults match the rates the pipeline is sized for: two watches pushing up
// to ~1kHz per axis group.
const (
	DefaultQueueCapacity    = 8192
	DefaultPoolCapacity     = 2000
	DefaultStalenessTimeout = 100 * time.Millisecond
	DefaultIdleSleep        = time.Millisecond
	DefaultBatchSize        = 50
	DefaultReconnectMinWait = 2 * time.Second
	DefaultReconnectMaxWait = 5 * time.Second
)

// ErrNoSources is returned by New when the config names no sources.
var ErrNoSources = errors.New("imupipeline: at least one source required")

// SourceConfig identifies one watch endpoint.
type SourceConfig struct {
	// ID names the source in logs and stats, and is the fallback source id
	// for wire messages that omit their own.
	ID string

	// Addr is either a host:port (dialed as ws://Addr/imu) or a full URL
	// (ws://, wss://, http:// and https:// all accepted).
	Addr string
}

// Config is the construction-time pipeline configuration. There is no hot
// reload: changing anything means building a new pipeline.
type Config struct {
	Sources []SourceConfig

	// QueueCapacity bounds the completed-reading backlog between ingest and
	// dispatch. Enqueue on a full queue drops the reading, never blocks.
	QueueCapacity int

	// PoolCapacity bounds the recycled-reading free list. A soft bound:
	// transient overflow allocations are permitted and counted.
	PoolCapacity int

	// StalenessTimeout bounds how long a half-filled correlation entry may
	// wait for its other axis group before eviction.
	StalenessTimeout time.Duration

	// IdleSleep is how long the dispatcher sleeps when the queue is empty.
	IdleSleep time.Duration

	// BatchSize is the maximum readings drained per dispatcher iteration.
	BatchSize int

	// ReconnectMinWait/ReconnectMaxWait bound the backoff between
	// reconnection attempts to a source.
	ReconnectMinWait time.Duration
	ReconnectMaxWait time.Duration

	// Logger receives structured pipeline logs. Nil means no logging.
	Logger *zap.Logger
}

// withDefaults returns a copy with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.PoolCapacity <= 0 {
		c.PoolCapacity = DefaultPoolCapacity
	}
	if c.StalenessTimeout <= 0 {
		c.StalenessTimeout = DefaultStalenessTimeout
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = DefaultIdleSleep
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ReconnectMinWait <= 0 {
		c.ReconnectMinWait = DefaultReconnectMinWait
	}
	if c.ReconnectMaxWait <= 0 {
		c.ReconnectMaxWait = DefaultReconnectMaxWait
	}
	if c.ReconnectMaxWait < c.ReconnectMinWait {
		c.ReconnectMaxWait = c.ReconnectMinWait
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("imupipeline: source %d has empty id", i)
		}
		if src.Addr == "" {
			return fmt.Errorf("imupipeline: source %q has empty address", src.ID)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("imupipeline: duplicate source id %q", src.ID)
		}
		seen[src.ID] = struct{}{}
	}
	return nil
}

// sourceURL resolves a source address to the websocket URL to dial.
func sourceURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "ws://" + addr + "/imu"
}
