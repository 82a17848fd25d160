// Package observability defines the Prometheus metrics exported by the
// service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wearables"

// Summary granularities and write outcomes used as label values.
const (
	GranularityDaily   = "daily"
	GranularityMonthly = "monthly"
	OutcomeInserted    = "inserted"
	OutcomeUpdated     = "updated"
)

// Metrics holds every collector the service records to.
type Metrics struct {
	gatherer prometheus.Gatherer

	EntriesIngested     prometheus.Counter
	EntriesSkipped      *prometheus.CounterVec
	SummaryWrites       *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	auto := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		EntriesIngested: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "entries_saved_total",
			Help:      "Activity entries inserted or updated by ingestion.",
		}),
		EntriesSkipped: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "entries_skipped_total",
			Help:      "Activity entries rejected during ingestion, by error code.",
		}, []string{"code"}),
		SummaryWrites: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "summary_writes_total",
			Help:      "Summary rows written by the aggregation engine.",
		}, []string{"granularity", "outcome"}),
		AggregationDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "duration_seconds",
			Help:      "Time spent recomputing summaries for one record key.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveSummaryWrites records inserted and updated rows for one granularity.
func (m *Metrics) ObserveSummaryWrites(granularity string, inserted, updated int) {
	m.SummaryWrites.WithLabelValues(granularity, OutcomeInserted).Add(float64(inserted))
	m.SummaryWrites.WithLabelValues(granularity, OutcomeUpdated).Add(float64(updated))
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
