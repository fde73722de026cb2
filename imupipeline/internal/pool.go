package internal

import (
	"sync"
	"sync/atomic"
)

// pool recycles reading records to keep the hot path allocation-free.
//
// The free list is a soft bound on readings in circulation: when it runs dry,
// acquire falls back to a transient allocation (counted, never fatal), and
// release discards instead of growing past capacity.
//
// Concurrency class: exactly two goroutines touch the pool. The ingest
// goroutine acquires (reassembler) and releases (evictions, queue overflow);
// the dispatcher releases after fan-out. Contention is negligible relative to
// the message rate, so a plain mutex is sufficient; nothing here needs to be
// lock-free.
type pool struct {
	mu       sync.Mutex
	free     []*reading
	capacity int

	// allocs counts acquisitions served by allocation because the free list
	// was empty (pool exhaustion). Atomic so Stats can read it from any
	// goroutine.
	allocs atomic.Uint64
}

func newPool(capacity int) *pool {
	p := &pool{
		free:     make([]*reading, capacity),
		capacity: capacity,
	}
	for i := range p.free {
		p.free[i] = &reading{}
	}
	return p
}

// acquire returns a recycled reading, or a freshly allocated one when the
// free list is empty.
func (p *pool) acquire() *reading {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		r := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return r
	}
	p.mu.Unlock()

	p.allocs.Add(1)
	return &reading{}
}

// release resets r and returns it to the free list, or lets it be collected
// if the list is already at capacity.
func (p *pool) release(r *reading) {
	r.reset()

	p.mu.Lock()
	if len(p.free) < p.capacity {
		p.free = append(p.free, r)
	}
	p.mu.Unlock()
}

// idle reports how many readings sit on the free list right now.
func (p *pool) idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// exhaustion reports the lifetime count of fallback allocations.
func (p *pool) exhaustion() uint64 {
	return p.allocs.Load()
}
