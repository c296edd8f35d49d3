package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus instruments.
type Metrics struct {
	Loads          *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec
	RowsLoaded     *prometheus.GaugeVec
	RowsDropped    *prometheus.CounterVec
	DateStrategies *prometheus.CounterVec
	LoadDuration   *prometheus.HistogramVec
	Refreshes      prometheus.Counter
	Reports        prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the instruments on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "finsnap_source_loads_total",
			Help: "Source loads by outcome (ok, empty, fetch_error, decode_error, schema_error, unknown).",
		}, []string{"source", "outcome"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "finsnap_source_cache_hits_total",
			Help: "Source loads served from the memo table.",
		}, []string{"source"}),
		RowsLoaded: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finsnap_source_rows",
			Help: "Rows in the latest normalized table per source.",
		}, []string{"source"}),
		RowsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "finsnap_source_rows_dropped_total",
			Help: "Rows dropped during normalization by reason (bad_date, before_start).",
		}, []string{"source", "reason"}),
		DateStrategies: f.NewCounterVec(prometheus.CounterOpts{
			Name: "finsnap_date_strategy_rows_total",
			Help: "Kept rows by the date parsing step that resolved them (direct, epoch, explicit, day_first, embedded).",
		}, []string{"source", "strategy"}),
		LoadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finsnap_source_load_seconds",
			Help:    "Fetch and normalize latency per source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		Refreshes: f.NewCounter(prometheus.CounterOpts{
			Name: "finsnap_cache_invalidations_total",
			Help: "Explicit cache invalidations.",
		}),
		Reports: f.NewCounter(prometheus.CounterOpts{
			Name: "finsnap_reports_total",
			Help: "Metric snapshots computed.",
		}),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
