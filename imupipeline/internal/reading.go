package internal

import "time"

// reading is the pooled, mutable accumulation record behind a Reading.
//
// Ownership is exclusive and moves through exactly one holder at a time:
//
//	pool (idle) → reassembler pending entry (accumulating)
//	            → ring (in transit) → dispatcher (in flight) → pool
//
// No two holders ever reference the same reading simultaneously; the
// reassembler removes an entry from the pending map in the same call that
// returns it, and the dispatcher releases only after fan-out completes.
type reading struct {
	sourceID    string
	timestampNS int64
	seq         uint64

	accel Vec3
	gyro  Vec3

	// hasAccel/hasGyro are explicit fill flags. Completion is decided by
	// these flags, never by inspecting sample values: a genuine all-zero
	// accel sample is indistinguishable from "not yet received" by value.
	hasAccel bool
	hasGyro  bool

	// firstSeen is the wall-clock time the pending entry was created,
	// read by the eviction scan.
	firstSeen time.Time
}

func (r *reading) complete() bool {
	return r.hasAccel && r.hasGyro
}

// reset zeroes every field so a recycled reading carries nothing over.
func (r *reading) reset() {
	*r = reading{}
}
