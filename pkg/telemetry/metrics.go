package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the collection back office.
type Metrics struct {
	apiRequests       *prometheus.CounterVec
	apiDuration       *prometheus.HistogramVec
	sweepRuns         *prometheus.CounterVec
	sweepDuration     *prometheus.HistogramVec
	sweepFailures     *prometheus.CounterVec
	queueSize         prometheus.Gauge
	escalations       *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	notificationTime  *prometheus.HistogramVec
	blocksActive      prometheus.Gauge
	agreementsCreated *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cobranca_api_requests_total",
		Help: "Counts API requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cobranca_api_duration_seconds",
		Help:    "API request latency per method/route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	sweepRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cobranca_sweep_runs_total",
		Help: "Counts batch sweep executions by kind and outcome.",
	}, []string{"kind", "outcome"})

	sweepDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cobranca_sweep_duration_seconds",
		Help:    "Batch sweep duration per kind.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"kind"})

	sweepFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cobranca_sweep_unit_failures_total",
		Help: "Counts per-unit failures inside batch sweeps.",
	}, []string{"kind"})

	queueSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cobranca_priority_queue_size",
		Help: "Units currently in the prioritization queue.",
	})

	escalations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cobranca_escalations_total",
		Help: "Counts escalation level transitions by target level and origin.",
	}, []string{"level", "automatic"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cobranca_notifications_total",
		Help: "Counts outbound notifications by channel and outcome.",
	}, []string{"channel", "outcome"})

	notificationTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cobranca_notification_duration_seconds",
		Help:    "Outbound notification latency per channel.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})

	blocksActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cobranca_blocks_active",
		Help: "Franchisee units with an active access block.",
	})

	agreementsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cobranca_agreements_total",
		Help: "Counts agreement lifecycle events by transition.",
	}, []string{"transition"})

	prometheus.MustRegister(
		apiRequests,
		apiDuration,
		sweepRuns,
		sweepDuration,
		sweepFailures,
		queueSize,
		escalations,
		notifications,
		notificationTime,
		blocksActive,
		agreementsCreated,
	)

	return &Metrics{
		apiRequests:       apiRequests,
		apiDuration:       apiDuration,
		sweepRuns:         sweepRuns,
		sweepDuration:     sweepDuration,
		sweepFailures:     sweepFailures,
		queueSize:         queueSize,
		escalations:       escalations,
		notifications:     notifications,
		notificationTime:  notificationTime,
		blocksActive:      blocksActive,
		agreementsCreated: agreementsCreated,
	}
}

func (m *Metrics) ObserveAPIRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveSweep(kind, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(kind, outcome).Inc()
	m.sweepDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) IncSweepUnitFailure(kind string) {
	if m == nil {
		return
	}
	m.sweepFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetQueueSize(size int) {
	if m == nil {
		return
	}
	m.queueSize.Set(float64(size))
}

func (m *Metrics) IncEscalation(level string, automatic bool) {
	if m == nil {
		return
	}
	origin := "false"
	if automatic {
		origin = "true"
	}
	m.escalations.WithLabelValues(level, origin).Inc()
}

func (m *Metrics) ObserveNotification(channel, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
	m.notificationTime.WithLabelValues(channel).Observe(duration.Seconds())
}

func (m *Metrics) SetActiveBlocks(count int) {
	if m == nil {
		return
	}
	m.blocksActive.Set(float64(count))
}

func (m *Metrics) IncAgreementTransition(transition string) {
	if m == nil {
		return
	}
	m.agreementsCreated.WithLabelValues(transition).Inc()
}
