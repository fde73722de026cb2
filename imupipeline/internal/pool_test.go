package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRecycles(t *testing.T) {
	p := newPool(2)
	require.Equal(t, 2, p.idle())

	a := p.acquire()
	b := p.acquire()
	assert.Equal(t, 0, p.idle())

	p.release(a)
	c := p.acquire()
	assert.Same(t, a, c, "released reading is handed out again")
	p.release(b)
	p.release(c)
	assert.Equal(t, 2, p.idle())
	assert.Zero(t, p.exhaustion())
}

// Contract: release resets every field so recycled readings carry nothing
// over from their previous life.
func TestPoolReleaseResets(t *testing.T) {
	p := newPool(1)

	r := p.acquire()
	r.sourceID = "left"
	r.timestampNS = 12345
	r.seq = 7
	r.accel = Vec3{X: 1, Y: 2, Z: 3}
	r.gyro = Vec3{X: 4, Y: 5, Z: 6}
	r.hasAccel = true
	r.hasGyro = true
	p.release(r)

	got := p.acquire()
	require.Same(t, r, got)
	assert.Equal(t, reading{}, *got)
}

// Pool exhaustion is a transient allocation fallback, counted but never
// fatal; releases above capacity are discarded, keeping the free list
// bounded.
func TestPoolExhaustionAndCapacityBound(t *testing.T) {
	p := newPool(2)

	a := p.acquire()
	b := p.acquire()
	c := p.acquire() // free list empty, falls back to allocation
	require.NotNil(t, c)
	assert.Equal(t, uint64(1), p.exhaustion())

	p.release(a)
	p.release(b)
	p.release(c) // above capacity, discarded
	assert.Equal(t, 2, p.idle())
}
