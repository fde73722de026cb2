package imupipeline

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Pipeline's Stats snapshot to a prometheus.Collector so
// the pipeline can be scraped without any extra bookkeeping: every Collect
// takes one snapshot and emits const metrics from it.
type Collector struct {
	pipeline Pipeline

	received    *prometheus.Desc
	converted   *prometheus.Desc
	overflow    *prometheus.Desc
	convErrors  *prometheus.Desc
	exhaustion  *prometheus.Desc
	pending     *prometheus.Desc
	queueLen    *prometheus.Desc
	dataRate    *prometheus.Desc
	avgLatency  *prometheus.Desc
	occupancy   *prometheus.Desc
}

// NewCollector builds a collector over p. Register it with a prometheus
// registry; the pipeline itself never touches the registry.
func NewCollector(p Pipeline) *Collector {
	return &Collector{
		pipeline: p,
		received: prometheus.NewDesc("imupipeline_messages_received_total",
			"Successfully decoded wire messages.", nil, nil),
		converted: prometheus.NewDesc("imupipeline_messages_converted_total",
			"Readings delivered to subscribers.", nil, nil),
		overflow: prometheus.NewDesc("imupipeline_overflow_total",
			"Completed readings dropped because the queue was full.", nil, nil),
		convErrors: prometheus.NewDesc("imupipeline_conversion_errors_total",
			"Decode errors plus stale correlation evictions.", nil, nil),
		exhaustion: prometheus.NewDesc("imupipeline_pool_exhaustion_total",
			"Transient allocations made while the pool free list was empty.", nil, nil),
		pending: prometheus.NewDesc("imupipeline_pending_entries",
			"Half-filled correlation entries awaiting their other axis group.", nil, nil),
		queueLen: prometheus.NewDesc("imupipeline_queue_length",
			"Current completed-reading backlog.", nil, nil),
		dataRate: prometheus.NewDesc("imupipeline_data_rate_hz",
			"Delivered-reading rate over the rolling window.", nil, nil),
		avgLatency: prometheus.NewDesc("imupipeline_avg_latency_ms",
			"Mean sample age at dispatch over the rolling window.", nil, nil),
		occupancy: prometheus.NewDesc("imupipeline_queue_occupancy_pct",
			"Queue backlog as a percentage of capacity.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.received
	ch <- c.converted
	ch <- c.overflow
	ch <- c.convErrors
	ch <- c.exhaustion
	ch <- c.pending
	ch <- c.queueLen
	ch <- c.dataRate
	ch <- c.avgLatency
	ch <- c.occupancy
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pipeline.Stats()

	ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(s.MessagesReceived))
	ch <- prometheus.MustNewConstMetric(c.converted, prometheus.CounterValue, float64(s.MessagesConverted))
	ch <- prometheus.MustNewConstMetric(c.overflow, prometheus.CounterValue, float64(s.OverflowCount))
	ch <- prometheus.MustNewConstMetric(c.convErrors, prometheus.CounterValue, float64(s.ConversionErrors))
	ch <- prometheus.MustNewConstMetric(c.exhaustion, prometheus.CounterValue, float64(s.PoolExhaustion))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.PendingEntries))
	ch <- prometheus.MustNewConstMetric(c.queueLen, prometheus.GaugeValue, float64(s.QueueLen))
	ch <- prometheus.MustNewConstMetric(c.dataRate, prometheus.GaugeValue, s.DataRateHz)
	ch <- prometheus.MustNewConstMetric(c.avgLatency, prometheus.GaugeValue, s.AvgLatencyMs)
	ch <- prometheus.MustNewConstMetric(c.occupancy, prometheus.GaugeValue, s.QueueOccupancyPct)
}
