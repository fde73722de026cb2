package internal

// AxisGroup identifies which sensor group produced a raw message.
type AxisGroup uint8

const (
	GroupUnknown AxisGroup = iota
	GroupAccel
	GroupGyro
	GroupMag
)

// String returns the wire name of the axis group.
func (g AxisGroup) String() string {
	switch g {
	case GroupAccel:
		return "accel"
	case GroupGyro:
		return "gyro"
	case GroupMag:
		return "mag"
	default:
		return "unknown"
	}
}

// RawMessage is the decoded wire form of a single per-axis-group sample.
//
// RawMessages are ephemeral: a source connection decodes one, hands it to the
// ingest goroutine, and the reassembler consumes it immediately. They are
// passed by value and never stored.
type RawMessage struct {
	SourceID    string
	Group       AxisGroup
	TimestampNS int64
	X, Y, Z     float32
}

// Vec3 is a single 3-axis sample.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Reading is one time-correlated accelerometer+gyroscope sample delivered to
// subscribers.
//
// Readings are handed to callbacks BY VALUE: the pooled accumulation record
// behind them is recycled as soon as fan-out completes, so subscribers may
// retain a Reading indefinitely without breaking the pool's ownership rules.
type Reading struct {
	// SourceID is the watch that produced the sample.
	SourceID string `json:"source_id"`

	// Timestamp is the source-clock sample time in seconds since the epoch.
	Timestamp float64 `json:"timestamp"`

	Accel Vec3 `json:"accel"`
	Gyro  Vec3 `json:"gyro"`

	// AccelMagnitude and GyroMagnitude are the Euclidean norms of the two
	// samples, computed once by the dispatcher so subscribers don't repeat it.
	AccelMagnitude float32 `json:"accel_magnitude"`
	GyroMagnitude  float32 `json:"gyro_magnitude"`

	// AgeSeconds is wall-clock dispatch time minus Timestamp. With synced
	// clocks this is the end-to-end pipeline latency for the sample.
	AgeSeconds float32 `json:"age_seconds"`

	// Seq increases strictly per source, including across drops and
	// evictions, so downstream consumers can detect gaps.
	Seq uint64 `json:"seq"`
}

// Callback receives enriched readings on the dispatcher goroutine.
//
// Contract: callbacks must be non-blocking. They run synchronously on the
// single consumer goroutine, so a slow callback raises end-to-end latency and
// queue occupancy for every source. A panicking callback is recovered and
// logged; it never stops the dispatcher or other callbacks.
type Callback func(sourceID string, r Reading)

// Stats is a snapshot of pipeline operational state.
//
// Counters are lifetime totals; derived rates cover a rolling ~1s window.
// Snapshots are non-blocking and may be slightly stale, which is acceptable
// for monitoring.
type Stats struct {
	// MessagesReceived counts successfully decoded wire messages.
	MessagesReceived uint64 `json:"messages_received"`

	// MessagesConverted counts readings delivered to subscribers.
	MessagesConverted uint64 `json:"messages_converted"`

	// OverflowCount counts completed readings dropped because the queue was
	// full at enqueue time.
	OverflowCount uint64 `json:"overflow_count"`

	// ConversionErrors is DecodeErrors + StaleEvictions, matching the single
	// counter the surrounding UI renders.
	ConversionErrors uint64 `json:"conversion_errors"`

	// DecodeErrors counts malformed or incomplete wire payloads.
	DecodeErrors uint64 `json:"decode_errors"`

	// StaleEvictions counts pending half-filled readings evicted after the
	// staleness timeout.
	StaleEvictions uint64 `json:"stale_evictions"`

	// PoolExhaustion counts transient allocations made while the free list
	// was empty. Should stay near zero in a correctly sized deployment.
	PoolExhaustion uint64 `json:"pool_exhaustion"`

	// PendingEntries is the current number of half-filled correlation
	// entries. Bounded by a small constant in a healthy system.
	PendingEntries int `json:"pending_entries"`

	// QueueLen is the current queue backlog.
	QueueLen int `json:"queue_len"`

	// DataRateHz is the delivered-reading rate over the last window.
	DataRateHz float64 `json:"data_rate_hz"`

	// AvgLatencyMs is the mean sample age at dispatch over the last window.
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	// QueueOccupancyPct is QueueLen over capacity at snapshot time.
	QueueOccupancyPct float64 `json:"queue_occupancy_pct"`
}
