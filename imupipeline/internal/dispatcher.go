package internal

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// dispatcher is the sole consumer of the ring. It drains readings in batches,
// enriches them with derived metrics, fans them out to subscribers, and
// recycles the pooled records.
//
// State machine per iteration: idle (queue empty, bounded sleep) → draining
// (batch in hand) → dispatching (per-item callback fan-out) → idle. Terminal
// on context cancellation.
type dispatcher struct {
	queue *ring
	pool  *pool
	stats *perfStats
	log   *zap.SugaredLogger

	idleSleep time.Duration
	batch     []*reading // reused across iterations, len == batch size

	// Subscriber registry. Subscribe/Unsubscribe may be called from any
	// goroutine while the dispatch loop snapshots under the read lock.
	subMu sync.RWMutex
	subs  map[string]Callback

	now func() time.Time
}

func newDispatcher(queue *ring, pool *pool, stats *perfStats, log *zap.SugaredLogger, idleSleep time.Duration, batchSize int, now func() time.Time) *dispatcher {
	return &dispatcher{
		queue:     queue,
		pool:      pool,
		stats:     stats,
		log:       log,
		idleSleep: idleSleep,
		batch:     make([]*reading, batchSize),
		subs:      make(map[string]Callback),
		now:       now,
	}
}

func (d *dispatcher) subscribe(id string, fn Callback) {
	d.subMu.Lock()
	d.subs[id] = fn
	d.subMu.Unlock()
}

func (d *dispatcher) unsubscribe(id string) {
	d.subMu.Lock()
	delete(d.subs, id)
	d.subMu.Unlock()
}

// run drains the queue until ctx is cancelled. Shutdown latency is bounded by
// the idle sleep.
func (d *dispatcher) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		n := d.queue.getBatch(d.batch)
		if n == 0 {
			time.Sleep(d.idleSleep)
			continue
		}

		now := d.now()
		latencySumMs := 0.0
		for _, r := range d.batch[:n] {
			out := enrich(r, now)
			latencySumMs += float64(out.AgeSeconds) * 1e3
			d.fanout(out)
			d.pool.release(r)
		}
		d.stats.observeBatch(now, n, latencySumMs)
	}
}

// fanout invokes every registered callback with the reading. A panicking
// callback is recovered and logged; remaining callbacks still run.
func (d *dispatcher) fanout(out Reading) {
	d.subMu.RLock()
	defer d.subMu.RUnlock()

	for id, fn := range d.subs {
		d.invoke(id, fn, out)
	}
}

func (d *dispatcher) invoke(id string, fn Callback, out Reading) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Errorw("subscriber callback panicked",
				"subscriber_id", id,
				"source_id", out.SourceID,
				"panic", rec,
			)
		}
	}()
	fn(out.SourceID, out)
}

// enrich builds the subscriber-facing value from a pooled record: magnitudes
// for both groups plus the sample's age at dispatch time.
func enrich(r *reading, now time.Time) Reading {
	ts := float64(r.timestampNS) * 1e-9
	age := float64(now.UnixNano())*1e-9 - ts

	return Reading{
		SourceID:       r.sourceID,
		Timestamp:      ts,
		Accel:          r.accel,
		Gyro:           r.gyro,
		AccelMagnitude: magnitude(r.accel),
		GyroMagnitude:  magnitude(r.gyro),
		AgeSeconds:     float32(age),
		Seq:            r.seq,
	}
}

func magnitude(v Vec3) float32 {
	x, y, z := float64(v.X), float64(v.Y), float64(v.Z)
	return float32(math.Sqrt(x*x + y*y + z*z))
}
