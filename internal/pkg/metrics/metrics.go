package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "erp_"

	ResultSuccess = "success"
	ResultError   = "error"

	ConfirmResultConfirmed  = "confirmed"
	ConfirmResultIdempotent = "idempotent"
	ConfirmResultConflict   = "conflict"
	ConfirmResultMismatch   = "mismatch"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	statementComputeTotal   *prometheus.CounterVec
	statementComputeLatency *prometheus.HistogramVec
	statementConfirmTotal   *prometheus.CounterVec
	statementReopenTotal    prometheus.Counter
	statementExportTotal    *prometheus.CounterVec
	rejectedEditsTotal      *prometheus.CounterVec
	duplicateLeadsTotal     *prometheus.CounterVec
)

// Init registers all collectors on the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		statementComputeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_compute_total",
				Help: "Total statement computations by source (computed or snapshot) and result",
			},
			[]string{"source", "result"},
		)
		statementComputeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_compute_latency_seconds",
				Help:    "Statement computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		statementConfirmTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_confirm_total",
				Help: "Total confirm requests by result",
			},
			[]string{"result"},
		)
		statementReopenTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_reopen_total",
				Help: "Total administrative reopens",
			},
		)
		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement exports by result",
			},
			[]string{"result"},
		)
		rejectedEditsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "confirmed_scope_rejected_edits_total",
				Help: "Writes rejected because the statement scope is confirmed",
			},
			[]string{"kind"},
		)
		duplicateLeadsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sales_duplicate_checks_total",
				Help: "Lead intake duplicate checks by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			statementComputeTotal,
			statementComputeLatency,
			statementConfirmTotal,
			statementReopenTotal,
			statementExportTotal,
			rejectedEditsTotal,
			duplicateLeadsTotal,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency labelled by the matched chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if httpRequests == nil {
			return
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveStatementCompute records one statement read. source is "computed" or "snapshot".
func ObserveStatementCompute(source, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if statementComputeTotal != nil {
		statementComputeTotal.WithLabelValues(source, result).Inc()
	}
	if statementComputeLatency != nil {
		statementComputeLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

func IncStatementConfirm(result string) {
	if statementConfirmTotal != nil {
		statementConfirmTotal.WithLabelValues(result).Inc()
	}
}

func IncStatementReopen() {
	if statementReopenTotal != nil {
		statementReopenTotal.Inc()
	}
}

func IncStatementExport(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(result).Inc()
	}
}

// IncRejectedEdit counts a write refused by the confirmation gate. kind names the operation.
func IncRejectedEdit(kind string) {
	if rejectedEditsTotal != nil {
		rejectedEditsTotal.WithLabelValues(kind).Inc()
	}
}

// IncDuplicateCheck counts lead intake outcomes: clean, blocked, forced.
func IncDuplicateCheck(outcome string) {
	if duplicateLeadsTotal != nil {
		duplicateLeadsTotal.WithLabelValues(outcome).Inc()
	}
}
