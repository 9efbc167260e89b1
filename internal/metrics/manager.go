// Package metrics holds the prometheus collectors of the training planner.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds every collector. It satisfies the metrics interface of the training service.
type Manager struct {
	// counters
	CounterPlansGenerated    *prometheus.CounterVec
	CounterCalendarDegraded  prometheus.Counter
	CounterPlanWarnings      *prometheus.CounterVec
	CounterRequests          *prometheus.CounterVec
	CounterScheduledFailures prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistPlanGenerationDuration prometheus.Histogram
	HistRequestDuration        *prometheus.HistogramVec
}

// NewTestManager creates a manager with a private registry.
func NewTestManager() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("trainingplan", "test", reg), reg
}

// NewManager registers the collectors with reg.
func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterPlansGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plans_generated_total",
			Help:      "Weekly plan generations by outcome",
		}, []string{"outcome"}),
		CounterCalendarDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "calendar_degraded_total",
			Help:      "Plan generations that ran without calendar data",
		}),
		CounterPlanWarnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_warnings_total",
			Help:      "Warnings attached to plans by kind",
		}, []string{"kind"}),
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterScheduledFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scheduled_generation_failures_total",
			Help:      "Failed scheduled pre-generations of next week's plan",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),
		HistPlanGenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_generation_duration_seconds",
			Help:      "Duration of weekly plan generations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// PlanGenerated records a generation outcome.
func (m *Manager) PlanGenerated(outcome string, duration time.Duration) {
	m.CounterPlansGenerated.WithLabelValues(outcome).Inc()
	m.HistPlanGenerationDuration.Observe(duration.Seconds())
}

// CalendarDegraded records a generation without calendar data.
func (m *Manager) CalendarDegraded() {
	m.CounterCalendarDegraded.Inc()
}

// PlanWarning records a plan warning.
func (m *Manager) PlanWarning(kind string) {
	m.CounterPlanWarnings.WithLabelValues(kind).Inc()
}

// ScheduledGenerationFailed records a failed scheduled pre-generation.
func (m *Manager) ScheduledGenerationFailed() {
	m.CounterScheduledFailures.Inc()
}

// RequestMetrics counts and times the requests served by next.
func (m *Manager) RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.GaugeRequests.Inc()
		defer func(begin time.Time) {
			m.GaugeRequests.Dec()
			m.HistRequestDuration.WithLabelValues(r.Method).Observe(time.Since(begin).Seconds())
		}(time.Now())

		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		m.CounterRequests.With(prometheus.Labels{
			"method": r.Method,
			"status": strconv.Itoa(sw.statusCode),
		}).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
