// Package imupipeline ingests wearable IMU streams from multiple watches,
// correlates accelerometer and gyroscope samples by timestamp, and delivers
// enriched readings to subscriber callbacks with bounded latency.
//
// # Core Philosophy
//
// "Drop readings, never block. Latency > Completeness."
//
// Every stage degrades by dropping and counting rather than blocking: a full
// queue rejects the reading, a half-filled correlation entry is evicted after
// the staleness timeout, a disconnected watch reconnects on its own schedule.
// Nothing in this package is fatal to the process; failures are observable
// only through Stats and logs.
//
// # Basic Usage
//
//	p, err := imupipeline.New(imupipeline.Config{
//	    Sources: []imupipeline.SourceConfig{
//	        {ID: "left", Addr: "192.168.1.101:8081"},
//	        {ID: "right", Addr: "192.168.1.102:8081"},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p.Subscribe("tracker", func(sourceID string, r imupipeline.Reading) {
//	    // non-blocking by contract; runs on the dispatcher goroutine
//	    process(sourceID, r)
//	})
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
// # Data Flow
//
//	watch ──ws──▶ source goroutine ──▶ ingest goroutine ──▶ SPSC ring
//	              (decode JSON)        (correlate accel+gyro,
//	                                    evict stale partials)
//	                                                          │
//	              subscriber callbacks ◀── dispatcher ◀───────┘
//	                                       (batch drain, enrich)
//
// Exactly two execution contexts touch shared pipeline state: the ingest
// goroutine (sole queue producer, owns the correlation map) and the
// dispatcher goroutine (sole consumer). Readings cross the boundary through
// a recycled object pool, so the hot path performs no per-message heap
// allocation in steady state.
//
// # Ordering
//
// Within one source, readings are delivered in timestamp order with strictly
// increasing sequence numbers (gaps reveal drops). Across sources the
// interleaving is arbitrary; consumers needing a global order must sort by
// Reading.Timestamp themselves.
package imupipeline
