package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics on a private registry, so several
// instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tab metrics
	TabsOpen     prometheus.Gauge
	TabsOpened   prometheus.Counter
	TabsClosed   prometheus.Counter
	TabsRestored prometheus.Counter
	BindFailures prometheus.Counter

	// Persistence metrics
	HistoryAppends   prometheus.Counter
	SessionSaves     prometheus.Counter
	SessionRestores  prometheus.Counter
	InvalidMoves     prometheus.Counter
	WindowsOpen      *prometheus.GaugeVec
	WSConnections    prometheus.Gauge
	SurfaceUnhealthy prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sol_http_requests_total",
				Help: "Total number of control API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sol_http_request_duration_seconds",
				Help:    "Control API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		TabsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sol_tabs_open",
			Help: "Number of tabs currently open across all windows",
		}),
		TabsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_tabs_opened_total",
			Help: "Total number of tabs opened",
		}),
		TabsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_tabs_closed_total",
			Help: "Total number of tabs closed",
		}),
		TabsRestored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_tabs_restored_total",
			Help: "Total number of closed tabs reopened",
		}),
		BindFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_bind_failures_total",
			Help: "Total number of content surface bind failures",
		}),

		HistoryAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_history_appends_total",
			Help: "Total number of history entries written",
		}),
		SessionSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_session_saves_total",
			Help: "Total number of session snapshots written",
		}),
		SessionRestores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_session_restores_total",
			Help: "Total number of sessions restored",
		}),
		InvalidMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sol_invalid_moves_total",
			Help: "Total number of rejected tree moves",
		}),
		WindowsOpen: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sol_windows_open",
				Help: "Number of open windows by mode",
			},
			[]string{"mode"},
		),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sol_ws_connections",
			Help: "Number of active event stream connections",
		}),
		SurfaceUnhealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sol_surface_unavailable",
			Help: "1 while the content surface bind guard is open",
		}),
	}

	m.registry.MustRegister(
		m.RequestsTotal, m.RequestDuration,
		m.TabsOpen, m.TabsOpened, m.TabsClosed, m.TabsRestored, m.BindFailures,
		m.HistoryAppends, m.SessionSaves, m.SessionRestores, m.InvalidMoves,
		m.WindowsOpen, m.WSConnections, m.SurfaceUnhealthy,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sol_uptime_seconds",
			Help: "Process uptime in seconds",
		}, func() float64 { return time.Since(m.startTime).Seconds() }),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records a control API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) TabOpened() {
	m.TabsOpened.Inc()
	m.TabsOpen.Inc()
}

func (m *Metrics) TabClosed() {
	m.TabsClosed.Inc()
	m.TabsOpen.Dec()
}

func (m *Metrics) TabRestored()     { m.TabsRestored.Inc() }
func (m *Metrics) BindFailed()      { m.BindFailures.Inc() }
func (m *Metrics) HistoryAppended() { m.HistoryAppends.Inc() }
func (m *Metrics) SessionSaved()    { m.SessionSaves.Inc() }
func (m *Metrics) SessionRestored() { m.SessionRestores.Inc() }
func (m *Metrics) InvalidMove()     { m.InvalidMoves.Inc() }

// TabsReleased removes tabs torn down with their window from the open gauge.
func (m *Metrics) TabsReleased(n int) { m.TabsOpen.Sub(float64(n)) }

// WindowOpened and WindowClosed track open windows; mode is "normal" or
// "incognito".
func (m *Metrics) WindowOpened(mode string) { m.WindowsOpen.WithLabelValues(mode).Inc() }
func (m *Metrics) WindowClosed(mode string) { m.WindowsOpen.WithLabelValues(mode).Dec() }

// SurfaceAvailable mirrors the bind guard state.
func (m *Metrics) SurfaceAvailable(ok bool) {
	if ok {
		m.SurfaceUnhealthy.Set(0)
		return
	}
	m.SurfaceUnhealthy.Set(1)
}

// IncWSConnections increments event stream connections
func (m *Metrics) IncWSConnections() { m.WSConnections.Inc() }

// DecWSConnections decrements event stream connections
func (m *Metrics) DecWSConnections() { m.WSConnections.Dec() }
