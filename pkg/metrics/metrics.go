// Package metrics exposes Prometheus collectors for the HTTP layer and the
// balance engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitledger"

// Metrics owns a private registry. All methods are safe on a nil receiver
// so services can be built without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration    *prometheus.HistogramVec
	balanceRuns     *prometheus.CounterVec
	transfers       prometheus.Histogram
	expensesCreated *prometheus.CounterVec
	splitRejections *prometheus.CounterVec
}

// New registers every collector plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		balanceRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_computations_total",
			Help:      "Balance recomputations by view (group or user).",
		}, []string{"view"}),
		transfers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simplified_transfers",
			Help:      "Number of transfers produced per simplification.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
		expensesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_created_total",
			Help:      "Expenses stored, by split policy.",
		}, []string{"policy"}),
		splitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_rejections_total",
			Help:      "Expense creations refused by split calculation or validation.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.balanceRuns,
		m.transfers,
		m.expensesCreated,
		m.splitRejections,
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware times every request. The route label is the chi pattern, not
// the raw path, so ids do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// BalanceComputed records one engine run and the size of its transfer list.
func (m *Metrics) BalanceComputed(view string, transfers int) {
	if m == nil {
		return
	}
	m.balanceRuns.WithLabelValues(view).Inc()
	m.transfers.Observe(float64(transfers))
}

// ExpenseCreated counts a stored expense.
func (m *Metrics) ExpenseCreated(policy string) {
	if m == nil {
		return
	}
	m.expensesCreated.WithLabelValues(policy).Inc()
}

// SplitRejected counts a refused expense. reason is "invalid_input" or "validation_failed".
func (m *Metrics) SplitRejected(reason string) {
	if m == nil {
		return
	}
	m.splitRejections.WithLabelValues(reason).Inc()
}
