package internal

import (
	"math"
	"sync/atomic"
	"time"
)

// statsWindow is the rolling interval over which data rate and average
// latency are derived.
const statsWindow = time.Second

// perfStats aggregates pipeline counters. Pure aggregation, no goroutine of
// its own: every stage increments its own counters and the dispatcher folds
// per-batch observations into the rolling window.
//
// Lifetime counters are atomics because they cross the producer/consumer
// boundary. The window accumulator fields are dispatcher-only and therefore
// plain; the derived values are published as float bits for lock-free
// snapshots.
type perfStats struct {
	received       atomic.Uint64
	converted      atomic.Uint64
	overflow       atomic.Uint64
	decodeErrors   atomic.Uint64
	staleEvictions atomic.Uint64

	// pendingEntries mirrors the reassembler's map size so snapshots don't
	// have to reach into ingest-owned state.
	pendingEntries atomic.Int64

	// Window accumulator. Touched only by the dispatcher goroutine.
	windowStart   time.Time
	windowCount   uint64
	windowLatency float64 // summed sample age, milliseconds

	// Published derived metrics (math.Float64bits encoded).
	rateHzBits     atomic.Uint64
	avgLatencyBits atomic.Uint64
}

func newPerfStats(now time.Time) *perfStats {
	return &perfStats{windowStart: now}
}

// observeBatch records a dispatched batch and rolls the window over once it
// is at least statsWindow old. Dispatcher goroutine only.
func (s *perfStats) observeBatch(now time.Time, count int, latencySumMs float64) {
	s.converted.Add(uint64(count))
	s.windowCount += uint64(count)
	s.windowLatency += latencySumMs

	elapsed := now.Sub(s.windowStart)
	if elapsed < statsWindow {
		return
	}

	rate := float64(s.windowCount) / elapsed.Seconds()
	s.rateHzBits.Store(math.Float64bits(rate))

	avg := 0.0
	if s.windowCount > 0 {
		avg = s.windowLatency / float64(s.windowCount)
	}
	s.avgLatencyBits.Store(math.Float64bits(avg))

	s.windowStart = now
	s.windowCount = 0
	s.windowLatency = 0
}

// snapshot assembles a Stats from the counters plus the queue and pool state
// supplied by the engine.
func (s *perfStats) snapshot(queueLen, queueCap int, poolAllocs uint64) Stats {
	decode := s.decodeErrors.Load()
	evict := s.staleEvictions.Load()

	occupancy := 0.0
	if queueCap > 0 {
		occupancy = float64(queueLen) / float64(queueCap) * 100
	}

	return Stats{
		MessagesReceived:  s.received.Load(),
		MessagesConverted: s.converted.Load(),
		OverflowCount:     s.overflow.Load(),
		ConversionErrors:  decode + evict,
		DecodeErrors:      decode,
		StaleEvictions:    evict,
		PoolExhaustion:    poolAllocs,
		PendingEntries:    int(s.pendingEntries.Load()),
		QueueLen:          queueLen,
		DataRateHz:        math.Float64frombits(s.rateHzBits.Load()),
		AvgLatencyMs:      math.Float64frombits(s.avgLatencyBits.Load()),
		QueueOccupancyPct: occupancy,
	}
}
