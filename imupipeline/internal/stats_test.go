package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPerfStatsWindowRollover(t *testing.T) {
	start := time.Unix(1700000000, 0)
	s := newPerfStats(start)

	// Inside the window: nothing published yet.
	s.observeBatch(start.Add(500*time.Millisecond), 100, 500)
	snap := s.snapshot(0, 10, 0)
	assert.Zero(t, snap.DataRateHz)
	assert.Equal(t, uint64(100), snap.MessagesConverted)

	// Window closes: 250 readings over 1s.
	s.observeBatch(start.Add(time.Second), 150, 300)
	snap = s.snapshot(0, 10, 0)
	assert.InDelta(t, 250, snap.DataRateHz, 1)
	assert.InDelta(t, 800.0/250.0, snap.AvgLatencyMs, 1e-9)

	// Next window starts fresh.
	s.observeBatch(start.Add(2100*time.Millisecond), 11, 22)
	snap = s.snapshot(0, 10, 0)
	assert.InDelta(t, 10, snap.DataRateHz, 0.2)
	assert.InDelta(t, 2, snap.AvgLatencyMs, 1e-9)
}

func TestSnapshotDerivedFields(t *testing.T) {
	s := newPerfStats(time.Now())
	s.received.Add(10)
	s.decodeErrors.Add(2)
	s.staleEvictions.Add(3)
	s.overflow.Add(1)
	s.pendingEntries.Add(4)

	snap := s.snapshot(5, 20, 7)
	assert.Equal(t, uint64(10), snap.MessagesReceived)
	assert.Equal(t, uint64(5), snap.ConversionErrors, "decode errors plus evictions")
	assert.Equal(t, uint64(2), snap.DecodeErrors)
	assert.Equal(t, uint64(3), snap.StaleEvictions)
	assert.Equal(t, uint64(1), snap.OverflowCount)
	assert.Equal(t, uint64(7), snap.PoolExhaustion)
	assert.Equal(t, 4, snap.PendingEntries)
	assert.Equal(t, 5, snap.QueueLen)
	assert.InDelta(t, 25, snap.QueueOccupancyPct, 1e-9)
}
