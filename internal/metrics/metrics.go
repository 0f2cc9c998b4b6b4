package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "ats"

// Cycle outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Strategy metrics
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	orders        *prometheus.CounterVec
	weight        *prometheus.GaugeVec
	signalState   *prometheus.GaugeVec
	tasksActive   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),

		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Strategy task cycles by outcome",
			},
			[]string{"strategy", "outcome"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Strategy task cycle duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Orders submitted by strategy tasks",
			},
			[]string{"strategy", "side", "status"},
		),
		weight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "strategy_weight_percent",
				Help:      "Last observed portfolio weight of the strategy instrument",
			},
			[]string{"strategy"},
		),
		signalState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "signal_exposure",
				Help:      "Next-session exposure decided by the signal (1 invested, 0 flat)",
			},
			[]string{"strategy"},
		),
		tasksActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks_active",
				Help:      "Number of running strategy tasks",
			},
		),
	}

	reg.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.httpRequestsInFlight,
		r.cycles,
		r.cycleDuration,
		r.orders,
		r.weight,
		r.signalState,
		r.tasksActive,
	)
	return r
}

// RegisterLogDrops exposes a counter read from fn, typically the log sink's
// drop count.
func (r *Registry) RegisterLogDrops(fn func() uint64) {
	r.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_dropped_total",
			Help:      "Log entries discarded because the sink backlog was full",
		},
		func() float64 { return float64(fn()) },
	))
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordCycle records a finished strategy cycle.
func (r *Registry) RecordCycle(strategy, outcome string, duration float64) {
	r.cycles.WithLabelValues(strategy, outcome).Inc()
	r.cycleDuration.WithLabelValues(strategy).Observe(duration)
}

// RecordOrder records an order attempt; status is "filled" or "failed".
func (r *Registry) RecordOrder(strategy, side, status string) {
	r.orders.WithLabelValues(strategy, side, status).Inc()
}

// SetWeight sets the last observed weight for a strategy.
func (r *Registry) SetWeight(strategy string, weight float64) {
	r.weight.WithLabelValues(strategy).Set(weight)
}

// SetExposure sets the exposure of the strategy's next-session signal.
func (r *Registry) SetExposure(strategy string, exposure float64) {
	r.signalState.WithLabelValues(strategy).Set(exposure)
}

// TaskStarted and TaskStopped track running strategy tasks.
func (r *Registry) TaskStarted() { r.tasksActive.Inc() }

func (r *Registry) TaskStopped() { r.tasksActive.Dec() }

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
