// Package metrics collects Prometheus metrics for the chat pipeline:
// HTTP traffic, gate stages, LLM calls, retrieval and the answer cache.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector owns all pipeline metrics. Create one per process; collectors
// register with the given registerer at construction.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	gateStageTotal    *prometheus.CounterVec
	gateStageDuration *prometheus.HistogramVec

	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec

	retrievalDuration prometheus.Histogram

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewCollector creates a Collector registered with reg.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		gateStageTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_stage_total",
				Help:      "Validation gate stage outcomes",
			},
			[]string{"stage", "outcome"},
		),
		gateStageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gate_stage_duration_seconds",
				Help:      "Validation gate stage duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		),
		llmRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total number of LLM requests",
			},
			[]string{"provider", "status"},
		),
		llmRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "LLM request duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		retrievalDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retrieval_duration_seconds",
				Help:      "Vector retrieval duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answer_cache_hits_total",
				Help:      "Answer cache hits",
			},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answer_cache_misses_total",
				Help:      "Answer cache misses",
			},
		),
	}
}

// RecordHTTPRequest records one HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveStage implements guardrails.StageObserver.
func (c *Collector) ObserveStage(stage string, rejected bool, elapsed time.Duration) {
	outcome := "passed"
	if rejected {
		outcome = "rejected"
	}
	c.gateStageTotal.WithLabelValues(stage, outcome).Inc()
	c.gateStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordLLMRequest records one chat/embedding/vision call.
func (c *Collector) RecordLLMRequest(provider string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.llmRequestsTotal.WithLabelValues(provider, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordRetrieval records one vector search.
func (c *Collector) RecordRetrieval(elapsed time.Duration) {
	c.retrievalDuration.Observe(elapsed.Seconds())
}

// RecordCacheHit records an answer cache hit.
func (c *Collector) RecordCacheHit() { c.cacheHits.Inc() }

// RecordCacheMiss records an answer cache miss.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }
