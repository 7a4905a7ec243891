package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements every hook interface with Prometheus metrics held in
// its own registry.
type Collector struct {
	registry *prometheus.Registry

	frames        prometheus.Counter
	frameDuration prometheus.Histogram
	nodesDrawn    prometheus.Gauge
	nodesCulled   prometheus.Gauge
	physicsStep   prometheus.Histogram
	inboxApplied  prometheus.Counter
	inboxStale    prometheus.Counter
	inboxRejected prometheus.Counter

	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	inFlight         prometheus.Gauge

	cacheOps *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metric names are prefixed with
// namespace. Go runtime and process metrics are included.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of frames driven",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Wall time of one frame",
			Buckets:   []float64{.001, .002, .004, .008, .016, .033, .066, .133, .25, .5},
		}),
		nodesDrawn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_nodes_drawn",
			Help:      "Nodes drawn in the last frame",
		}),
		nodesCulled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_nodes_culled",
			Help:      "Nodes culled in the last frame",
		}),
		physicsStep: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "physics_step_seconds",
			Help:      "Wall time of one physics step",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
		}),
		inboxApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_applied_total",
			Help:      "Async results applied to the canvas",
		}),
		inboxStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_stale_total",
			Help:      "Async results dropped because their node was deleted",
		}),
		inboxRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_rejected_total",
			Help:      "Async results whose payload did not fit their node",
		}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Remote operations by outcome",
		}, []string{"op", "status"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Remote operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_in_flight",
			Help:      "Remote operations currently in flight",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes",
		}, []string{"key_type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_requests_total",
			Help:      "Outgoing HTTP requests",
		}, []string{"method", "host", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_duration_seconds",
			Help:      "Outgoing HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),
	}

	c.registry.MustRegister(
		c.frames, c.frameDuration, c.nodesDrawn, c.nodesCulled, c.physicsStep,
		c.inboxApplied, c.inboxStale, c.inboxRejected,
		c.dispatches, c.dispatchDuration, c.inFlight,
		c.cacheOps,
		c.httpRequests, c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) OnFrame(_ context.Context, d time.Duration, drawn, culled int) {
	c.frames.Inc()
	c.frameDuration.Observe(d.Seconds())
	c.nodesDrawn.Set(float64(drawn))
	c.nodesCulled.Set(float64(culled))
}

func (c *Collector) OnPhysicsStep(_ context.Context, _ int, d time.Duration) {
	c.physicsStep.Observe(d.Seconds())
}

func (c *Collector) OnDrain(_ context.Context, applied, stale, rejected int) {
	c.inboxApplied.Add(float64(applied))
	c.inboxStale.Add(float64(stale))
	c.inboxRejected.Add(float64(rejected))
}

func (c *Collector) OnDispatchStart(_ context.Context, _ string) {
	c.inFlight.Inc()
}

func (c *Collector) OnDispatchComplete(_ context.Context, op string, d time.Duration, err error) {
	c.inFlight.Dec()
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.dispatches.WithLabelValues(op, status).Inc()
	c.dispatchDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, _ int) {
	c.cacheOps.WithLabelValues(keyType, "set").Inc()
}

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, method, host, _ string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, host, http.StatusText(status)).Inc()
	c.httpDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, method, host, _ string, _ error) {
	c.httpRequests.WithLabelValues(method, host, "error").Inc()
}
