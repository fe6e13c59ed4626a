// Package metrics exposes Prometheus collectors for the control core's
// pool occupancy, command throughput, and eviction activity. Each
// Collector owns a private registry rather than the global default so
// multiple instances (and tests) never collide on metric names.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "owlbrowser"

// Collector holds every metric the control core reports.
type Collector struct {
	registry *prometheus.Registry

	ContextsActive    prometheus.Gauge
	ContextsCreated   prometheus.Counter
	ContextsEvicted   *prometheus.CounterVec // labeled by reason
	ContextPoolMemory prometheus.Gauge

	CommandsTotal    *prometheus.CounterVec // labeled by action type
	CommandDuration  *prometheus.HistogramVec
	CommandErrors    *prometheus.CounterVec

	IPCConnectionsActive prometheus.Gauge
	IPCConnectionsTotal  prometheus.Counter

	VerificationOutcomes *prometheus.CounterVec // labeled by status code

	LiveStreamSubscribers prometheus.Gauge
}

// New builds a Collector and registers every metric with its own registry.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.ContextsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "contexts_active",
		Help: "Number of browser contexts currently checked out or idle in the pool.",
	})
	c.ContextsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "contexts_created_total",
		Help: "Total browser contexts created since startup.",
	})
	c.ContextsEvicted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "contexts_evicted_total",
		Help: "Total browser contexts evicted, labeled by reason.",
	}, []string{"reason"})
	c.ContextPoolMemory = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "context_pool_memory_estimate_mb",
		Help: "Estimated memory in MB held by the context pool.",
	})

	c.CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "commands_total",
		Help: "Total dispatched commands, labeled by action type.",
	}, []string{"action"})
	c.CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "command_duration_seconds",
		Help:    "Command dispatch latency distribution, labeled by action type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	c.CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "command_errors_total",
		Help: "Total command failures, labeled by action type and status code.",
	}, []string{"action", "status"})

	c.IPCConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "ipc_connections_active",
		Help: "Number of open IPC connections.",
	})
	c.IPCConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "ipc_connections_total",
		Help: "Total IPC connections accepted since startup.",
	})

	c.VerificationOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "verification_outcomes_total",
		Help: "Total action verification outcomes, labeled by status code.",
	}, []string{"status"})

	c.LiveStreamSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "livestream_subscribers",
		Help: "Number of contexts with at least one live-stream subscriber.",
	})

	c.registry.MustRegister(
		c.ContextsActive, c.ContextsCreated, c.ContextsEvicted, c.ContextPoolMemory,
		c.CommandsTotal, c.CommandDuration, c.CommandErrors,
		c.IPCConnectionsActive, c.IPCConnectionsTotal,
		c.VerificationOutcomes, c.LiveStreamSubscribers,
	)
	return c
}

// Registry returns the private registry for mounting on an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordCommand observes a completed command's latency and, on failure,
// increments the error counter labeled with its status code.
func (c *Collector) RecordCommand(action string, d time.Duration, statusCode string, success bool) {
	c.CommandsTotal.WithLabelValues(action).Inc()
	c.CommandDuration.WithLabelValues(action).Observe(d.Seconds())
	if !success {
		c.CommandErrors.WithLabelValues(action, statusCode).Inc()
	}
}

// RecordEviction increments the eviction counter for a reason.
func (c *Collector) RecordEviction(reason string) {
	c.ContextsEvicted.WithLabelValues(reason).Inc()
}

// RecordVerification increments the verification-outcome counter for a status code.
func (c *Collector) RecordVerification(statusCode string) {
	c.VerificationOutcomes.WithLabelValues(statusCode).Inc()
}

// SetPoolOccupancy updates the pool-level gauges together.
func (c *Collector) SetPoolOccupancy(active int, estimatedMemoryMB float64) {
	c.ContextsActive.Set(float64(active))
	c.ContextPoolMemory.Set(estimatedMemoryMB)
}
