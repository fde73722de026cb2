package internal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Contract: put on a full ring returns false and never blocks; the ring
// never holds more than its configured capacity.
func TestRingCapacityBound(t *testing.T) {
	q := newRing(4)

	for i := 0; i < 4; i++ {
		require.True(t, q.put(&reading{seq: uint64(i)}), "put %d should fit", i)
	}

	assert.False(t, q.put(&reading{seq: 99}), "put on full ring must reject")
	assert.Equal(t, 4, q.len())
	assert.Equal(t, 4, q.cap())
}

func TestRingFIFO(t *testing.T) {
	q := newRing(8)
	for i := 0; i < 5; i++ {
		require.True(t, q.put(&reading{seq: uint64(i)}))
	}

	for i := 0; i < 5; i++ {
		r := q.get()
		require.NotNil(t, r)
		assert.Equal(t, uint64(i), r.seq)
	}
	assert.Nil(t, q.get(), "empty ring returns nil")
}

// Contract: getBatch returns at most len(dst) items, in FIFO insertion
// order, possibly zero.
func TestRingGetBatch(t *testing.T) {
	q := newRing(16)
	for i := 0; i < 10; i++ {
		require.True(t, q.put(&reading{seq: uint64(i)}))
	}

	dst := make([]*reading, 4)

	n := q.getBatch(dst)
	require.Equal(t, 4, n)
	for i := 0; i < 4; i++ {
		assert.Equal(t, uint64(i), dst[i].seq)
	}

	n = q.getBatch(dst)
	require.Equal(t, 4, n)
	assert.Equal(t, uint64(4), dst[0].seq)

	n = q.getBatch(dst)
	require.Equal(t, 2, n, "partial batch when fewer than len(dst) remain")
	assert.Equal(t, uint64(8), dst[0].seq)
	assert.Equal(t, uint64(9), dst[1].seq)

	assert.Zero(t, q.getBatch(dst), "empty ring yields zero-length batch")
}

// Wraparound: indices keep increasing past capacity; slots are reused
// without disturbing FIFO order.
func TestRingWraparound(t *testing.T) {
	q := newRing(3)
	next := uint64(0)
	expect := uint64(0)

	for round := 0; round < 10; round++ {
		for q.put(&reading{seq: next}) {
			next++
		}
		for r := q.get(); r != nil; r = q.get() {
			assert.Equal(t, expect, r.seq)
			expect++
		}
	}
	assert.Equal(t, next, expect, "everything enqueued was dequeued in order")
}

// SPSC stress: one producer, one consumer, no locks. Run with -race.
func TestRingSingleProducerSingleConsumer(t *testing.T) {
	const total = 100000
	q := newRing(64)

	var wg sync.WaitGroup
	wg.Add(1)

	var got []uint64
	go func() {
		defer wg.Done()
		dst := make([]*reading, 16)
		for len(got) < total {
			n := q.getBatch(dst)
			for i := 0; i < n; i++ {
				got = append(got, dst[i].seq)
			}
		}
	}()

	for i := uint64(0); i < total; {
		if q.put(&reading{seq: i}) {
			i++
		}
	}
	wg.Wait()

	require.Len(t, got, total)
	for i, seq := range got {
		require.Equal(t, uint64(i), seq, "FIFO order broken at %d", i)
	}
}
