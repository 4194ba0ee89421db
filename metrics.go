package fiberpool

import "github.com/zoobzio/metricz"

// Metric keys tracked by every Pool's metrics registry.
const (
	MetricJobsPushedTotal   = metricz.Key("pool.jobs.pushed.total")
	MetricJobsPoppedTotal   = metricz.Key("pool.jobs.popped.total")
	MetricJobsExecutedTotal = metricz.Key("pool.jobs.executed.total")
	MetricJobsPanickedTotal = metricz.Key("pool.jobs.panicked.total")
	MetricJobIDWrapsTotal   = metricz.Key("pool.job_id.wraps.total")

	MetricWorkersTotal   = metricz.Key("pool.workers.total")
	MetricWorkersWorking = metricz.Key("pool.workers.working")
	MetricQueueDepth     = metricz.Key("pool.queue.depth")
)

// newMetrics builds the registry and registers every key the pool emits to,
// matching the reference implementation's per-connector registry setup
// (e.g. NewTimeout registering its counters/gauges up front).
func newMetrics() *metricz.Registry {
	m := metricz.New()
	m.Counter(MetricJobsPushedTotal)
	m.Counter(MetricJobsPoppedTotal)
	m.Counter(MetricJobsExecutedTotal)
	m.Counter(MetricJobsPanickedTotal)
	m.Counter(MetricJobIDWrapsTotal)
	m.Gauge(MetricWorkersTotal)
	m.Gauge(MetricWorkersWorking)
	m.Gauge(MetricQueueDepth)
	return m
}
