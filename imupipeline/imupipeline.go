package imupipeline

import (
	"context"

	"github.com/e7canasta/orion-wear-imu/imupipeline/internal"
)

// Reading is re-exported from the internal package to avoid import cycles.
// See internal/types.go for full documentation.
type Reading = internal.Reading

// Vec3 is a single 3-axis sample.
type Vec3 = internal.Vec3

// Callback receives enriched readings on the dispatcher goroutine. Callbacks
// must be non-blocking by contract; see internal/types.go.
type Callback = internal.Callback

// Stats is a snapshot of pipeline operational state.
type Stats = internal.Stats

// ErrAlreadyStarted is returned by Start on a running pipeline.
var ErrAlreadyStarted = internal.ErrAlreadyStarted

// ErrNoSources is returned by New when the config names no sources.
var ErrNoSources = internal.ErrNoSources

// Pipeline is the public interface for IMU ingestion.
//
// Lifecycle: New() → Subscribe() → Start() → ... → Stop(). Subscribe and
// Unsubscribe are also safe while the pipeline runs.
type Pipeline interface {
	// Start spawns the source, ingest and dispatcher goroutines and returns
	// immediately. Only the first call succeeds; the pipeline runs until
	// ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop shuts the pipeline down and blocks until every goroutine has
	// exited. Shutdown latency is bounded by the larger of the idle sleep
	// and an in-flight reconnect wait. Idempotent.
	Stop() error

	// Subscribe registers a callback invoked for every delivered reading.
	// Callbacks run synchronously on the single dispatcher goroutine and
	// must not block. Re-subscribing an id replaces its callback.
	Subscribe(id string, fn Callback) error

	// Unsubscribe removes a subscriber. Unknown ids are a no-op.
	Unsubscribe(id string)

	// Stats returns a non-blocking snapshot of the pipeline counters.
	// Safe for concurrent use; values may be slightly stale.
	Stats() Stats
}

// New builds a pipeline from cfg. No goroutines run until Start.
func New(cfg Config) (Pipeline, error) {
	return internal.NewEngine(cfg)
}
