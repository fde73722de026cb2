package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// inboxDepth buffers decoded messages between the source goroutines and the
// ingest goroutine. Sized for a few milliseconds of burst at full rate.
const inboxDepth = 256

// ErrAlreadyStarted is returned by Start on a running pipeline.
var ErrAlreadyStarted = errors.New("imupipeline: already started")

// Engine is the concrete pipeline implementation behind the public Pipeline
// interface.
//
// Goroutine topology after Start:
//   - one per configured source (sourceConn.run): receive + decode + forward
//   - one ingest goroutine: reassembly and the ring's producer side
//   - one dispatcher goroutine: the ring's consumer side and callback fan-out
//
// The pending-correlation map lives entirely on the ingest goroutine; only
// the pool and the ring cross the ingest/dispatch boundary.
type Engine struct {
	cfg   Config
	log   *zap.SugaredLogger
	pool  *pool
	queue *ring
	asm   *reassembler
	disp  *dispatcher
	stats *perfStats
	inbox chan RawMessage

	cancel context.CancelFunc
	group  *errgroup.Group

	startedMu sync.Mutex
	started   bool
	stopped   bool
}

// NewEngine validates cfg, applies defaults and builds an engine. No
// goroutines run until Start.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	log := cfg.Logger.Sugar().Named("imupipeline")
	stats := newPerfStats(time.Now())
	pool := newPool(cfg.PoolCapacity)
	queue := newRing(cfg.QueueCapacity)

	return &Engine{
		cfg:   cfg,
		log:   log,
		pool:  pool,
		queue: queue,
		asm:   newReassembler(pool, stats, cfg.StalenessTimeout, time.Now),
		disp:  newDispatcher(queue, pool, stats, log, cfg.IdleSleep, cfg.BatchSize, time.Now),
		stats: stats,
		inbox: make(chan RawMessage, inboxDepth),
	}, nil
}

// Start spawns the source, ingest and dispatcher goroutines and returns
// immediately. Only the first call succeeds.
func (e *Engine) Start(ctx context.Context) error {
	e.startedMu.Lock()
	defer e.startedMu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	e.group = g

	for _, src := range e.cfg.Sources {
		conn := newSourceConn(src, e.inbox, e.stats, e.log,
			e.cfg.ReconnectMinWait, e.cfg.ReconnectMaxWait)
		g.Go(func() error {
			conn.run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		e.ingestLoop(gctx)
		return nil
	})
	g.Go(func() error {
		e.disp.run(gctx)
		return nil
	})

	e.log.Infow("pipeline started",
		"sources", len(e.cfg.Sources),
		"queue_capacity", e.cfg.QueueCapacity,
		"pool_capacity", e.cfg.PoolCapacity,
		"staleness_timeout", e.cfg.StalenessTimeout,
	)
	return nil
}

// Stop cancels every goroutine and waits for them to exit. Worst-case
// latency is the larger of the idle sleep and an in-flight reconnect wait.
// Idempotent.
func (e *Engine) Stop() error {
	e.startedMu.Lock()
	if !e.started || e.stopped {
		e.startedMu.Unlock()
		return nil
	}
	e.stopped = true
	e.startedMu.Unlock()

	e.cancel()
	err := e.group.Wait()

	snap := e.Stats()
	e.log.Infow("pipeline stopped",
		"messages_received", snap.MessagesReceived,
		"messages_converted", snap.MessagesConverted,
		"overflow_count", snap.OverflowCount,
		"conversion_errors", snap.ConversionErrors,
	)
	return err
}

// Subscribe registers fn under id; it will be invoked on the dispatcher
// goroutine for every delivered reading. Re-subscribing an existing id
// replaces its callback.
func (e *Engine) Subscribe(id string, fn Callback) error {
	if fn == nil {
		return fmt.Errorf("imupipeline: nil callback for subscriber %q", id)
	}
	e.disp.subscribe(id, fn)
	return nil
}

// Unsubscribe removes a subscriber. Unknown ids are a no-op.
func (e *Engine) Unsubscribe(id string) {
	e.disp.unsubscribe(id)
}

// Stats returns a non-blocking snapshot of the pipeline counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot(e.queue.len(), e.queue.cap(), e.pool.exhaustion())
}

// ingestLoop is the producer context: it owns the reassembler and the ring's
// write side, so everything here runs without locks.
func (e *Engine) ingestLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Hand every half-filled reading back to the pool so nothing
			// leaks across shutdown.
			e.asm.flush()
			return
		case m := <-e.inbox:
			if r := e.asm.offer(m); r != nil {
				e.enqueue(r)
			}
		}
	}
}

// enqueue moves a completed reading into the ring, or drops it when the
// dispatcher has fallen behind. Dropping over blocking is the pipeline's
// core trade: the producer side must stay real-time.
func (e *Engine) enqueue(r *reading) {
	if e.queue.put(r) {
		return
	}
	e.pool.release(r)
	e.stats.overflow.Add(1)
}
