package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess           = "success"
	StatusInvalidParameter  = "invalid_parameter"
	StatusInsufficientData  = "insufficient_data"
	StatusError             = "error"
	CacheResultHit          = "hit"
	CacheResultMiss         = "miss"
	defaultMetricsNamespace = "stock_backtest"
)

// Metrics owns a private registry so tests and multiple instances never
// collide on the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	backtestRuns      *prometheus.CounterVec
	backtestDuration  *prometheus.HistogramVec
	backtestTrades    prometheus.Histogram
	priceCache        *prometheus.CounterVec
	priceFetchLatency *prometheus.HistogramVec
	jobRuns           *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultMetricsNamespace
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		backtestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtest_runs_total",
			Help:      "Backtest runs by outcome.",
		}, []string{"status"}),
		backtestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backtest_duration_seconds",
			Help:      "Wall time of a backtest including price retrieval.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		backtestTrades: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backtest_trades",
			Help:      "Number of position changes per successful backtest.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		priceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_requests_total",
			Help:      "Price history cache lookups by result.",
		}, []string{"result"}),
		priceFetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "price_fetch_duration_seconds",
			Help:      "Latency of upstream price history requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "status"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by type and outcome.",
		}, []string{"type", "status"}),
	}

	reg.MustRegister(
		m.backtestRuns,
		m.backtestDuration,
		m.backtestTrades,
		m.priceCache,
		m.priceFetchLatency,
		m.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// NewNop returns metrics backed by a throwaway registry.
func NewNop() *Metrics {
	return New("")
}

func (m *Metrics) ObserveBacktest(status, source string, elapsed time.Duration, trades int) {
	m.backtestRuns.WithLabelValues(status).Inc()
	if status != StatusSuccess {
		return
	}
	m.backtestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.backtestTrades.Observe(float64(trades))
}

func (m *Metrics) ObservePriceCache(hit bool) {
	result := CacheResultMiss
	if hit {
		result = CacheResultHit
	}
	m.priceCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObservePriceFetch(source string, err error, elapsed time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.priceFetchLatency.WithLabelValues(source, status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveJob(jobType, status string) {
	m.jobRuns.WithLabelValues(jobType, status).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
