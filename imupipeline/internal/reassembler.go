package internal

import "time"

// evictBuckets is the number of live buckets in the staleness ring. Finer
// buckets tighten the eviction deadline; 8 keeps worst-case lateness at
// ~1.25× the configured timeout while the per-call work stays O(1) amortized.
const evictBuckets = 8

type pendingKey struct {
	sourceID    string
	timestampNS int64
}

// reassembler correlates per-axis-group messages into complete readings,
// keyed by (source, timestamp).
//
// Concurrency class: ingest goroutine only. The pending map, the sequence
// counters and the eviction ring are all confined to that one goroutine, so
// none of them carry locks. Only the pendingEntries gauge (for snapshots)
// and the stale-eviction counter are shared, and those are atomics on
// perfStats.
type reassembler struct {
	pool    *pool
	stats   *perfStats
	timeout time.Duration

	pending map[pendingKey]*reading
	seq     map[string]uint64 // next sequence number per source

	// Time-ordered eviction ring: keys land in the bucket that was current
	// when their entry was created. When a bucket comes back around for
	// reuse its keys are at least `timeout` old, so any that are still
	// pending get evicted. Completed entries leave stale keys behind; the
	// map-membership check on eviction makes those free to skip.
	buckets   [][]pendingKey
	bucketDur time.Duration
	cur       int
	curStart  time.Time

	now func() time.Time // injectable clock
}

func newReassembler(pool *pool, stats *perfStats, timeout time.Duration, now func() time.Time) *reassembler {
	// Ring spans slightly more than the timeout: with len = evictBuckets+2
	// and width timeout/evictBuckets, a reused bucket's keys are between
	// 1.125× and 1.25× timeout old.
	buckets := make([][]pendingKey, evictBuckets+2)
	return &reassembler{
		pool:      pool,
		stats:     stats,
		timeout:   timeout,
		pending:   make(map[pendingKey]*reading),
		seq:       make(map[string]uint64),
		buckets:   buckets,
		bucketDur: timeout / evictBuckets,
		curStart:  now(),
		now:       now,
	}
}

// offer consumes one raw message and returns a completed reading once both
// the accel and gyro groups for its key have arrived, nil otherwise.
//
// The first group to arrive for a key acquires a pooled reading, stamps
// identity and the per-source sequence number, and parks it as a pending
// entry. Completion is decided by the explicit per-group flags, so an
// all-zero sample completes a reading like any other.
func (a *reassembler) offer(m RawMessage) *reading {
	a.advance(a.now())

	if m.Group != GroupAccel && m.Group != GroupGyro {
		// mag is decoded and counted upstream but takes no part in
		// correlation.
		return nil
	}

	key := pendingKey{sourceID: m.SourceID, timestampNS: m.TimestampNS}

	r, ok := a.pending[key]
	if !ok {
		r = a.pool.acquire()
		r.sourceID = m.SourceID
		r.timestampNS = m.TimestampNS
		r.seq = a.seq[m.SourceID]
		a.seq[m.SourceID]++
		r.firstSeen = a.now()

		a.pending[key] = r
		a.buckets[a.cur] = append(a.buckets[a.cur], key)
		a.stats.pendingEntries.Add(1)
	}

	switch m.Group {
	case GroupAccel:
		r.accel = Vec3{X: m.X, Y: m.Y, Z: m.Z}
		r.hasAccel = true
	case GroupGyro:
		r.gyro = Vec3{X: m.X, Y: m.Y, Z: m.Z}
		r.hasGyro = true
	}

	if !r.complete() {
		return nil
	}

	delete(a.pending, key)
	a.stats.pendingEntries.Add(-1)
	return r
}

// advance rotates the eviction ring up to the current time, evicting every
// still-pending entry whose bucket has aged past the staleness timeout.
// Amortized O(1) per offer: each key is appended once and scanned once.
func (a *reassembler) advance(now time.Time) {
	if a.bucketDur <= 0 {
		return
	}

	// After a long quiet period everything pending is stale; skip the
	// bucket-by-bucket walk and flush in one pass.
	if now.Sub(a.curStart) >= a.bucketDur*time.Duration(2*len(a.buckets)) {
		a.flush()
		a.curStart = now
		return
	}

	for now.Sub(a.curStart) >= a.bucketDur {
		a.cur = (a.cur + 1) % len(a.buckets)
		a.curStart = a.curStart.Add(a.bucketDur)
		a.evictBucket(a.cur)
	}
}

func (a *reassembler) evictBucket(i int) {
	for _, key := range a.buckets[i] {
		r, ok := a.pending[key]
		if !ok {
			continue // completed, or evicted by an earlier flush
		}
		delete(a.pending, key)
		a.pool.release(r)
		a.stats.pendingEntries.Add(-1)
		a.stats.staleEvictions.Add(1)
	}
	a.buckets[i] = a.buckets[i][:0]
}

// flush evicts every pending entry and clears the ring.
func (a *reassembler) flush() {
	for i := range a.buckets {
		a.evictBucket(i)
	}
	a.cur = 0
}

// pendingCount reports the number of half-filled entries. Ingest goroutine
// and tests only.
func (a *reassembler) pendingCount() int {
	return len(a.pending)
}
