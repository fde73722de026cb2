package internal

import "sync/atomic"

// ring is a single-producer single-consumer bounded FIFO for completed
// readings.
//
// The ingest goroutine is the only producer and the dispatcher the only
// consumer, which is what makes the fenced-index design valid: tail is
// written by the producer alone, head by the consumer alone, and the atomic
// stores publish the slot contents to the other side. There are no locks and
// put never blocks; a full ring rejects the item and the caller reclaims it.
type ring struct {
	buf      []*reading
	capacity uint64

	head atomic.Uint64 // next slot to read; advanced by the consumer only
	tail atomic.Uint64 // next slot to write; advanced by the producer only
}

func newRing(capacity int) *ring {
	return &ring{
		buf:      make([]*reading, capacity),
		capacity: uint64(capacity),
	}
}

// put appends r and reports whether there was room. False means the caller
// still owns r and must release it itself.
func (q *ring) put(r *reading) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= q.capacity {
		return false
	}
	q.buf[tail%q.capacity] = r
	q.tail.Store(tail + 1) // publishes the slot write
	return true
}

// get removes and returns the oldest reading, or nil when empty.
func (q *ring) get() *reading {
	head := q.head.Load()
	if head == q.tail.Load() {
		return nil
	}
	r := q.buf[head%q.capacity]
	q.buf[head%q.capacity] = nil
	q.head.Store(head + 1)
	return r
}

// getBatch fills dst with up to len(dst) readings in FIFO order and returns
// how many it took. Zero when the ring is empty.
func (q *ring) getBatch(dst []*reading) int {
	head := q.head.Load()
	avail := q.tail.Load() - head
	if avail == 0 {
		return 0
	}
	n := uint64(len(dst))
	if avail < n {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		idx := (head + i) % q.capacity
		dst[i] = q.buf[idx]
		q.buf[idx] = nil
	}
	q.head.Store(head + n)
	return int(n)
}

// len reports the current backlog. Safe to call from any goroutine; the
// result is naturally racy but monotonic enough for monitoring. head is
// loaded first so the difference can never underflow.
func (q *ring) len() int {
	head := q.head.Load()
	return int(q.tail.Load() - head)
}

func (q *ring) cap() int {
	return int(q.capacity)
}
