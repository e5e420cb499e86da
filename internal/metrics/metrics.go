// Package metrics holds the Prometheus collectors for application transitions, payment settlement
// and verification runs. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "admissions"

type Metrics struct {
	Transitions          *prometheus.CounterVec
	RejectedTransitions  *prometheus.CounterVec
	Orders               *prometheus.CounterVec
	Settlements          *prometheus.CounterVec
	VerificationRuns     *prometheus.CounterVec
	VerificationDuration prometheus.Histogram
	QueuedVerifications  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "application",
			Name:      "transitions_total",
			Help:      "Application status transitions applied, by trigger",
		}, []string{"trigger"}),
		RejectedTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "application",
			Name:      "transitions_rejected_total",
			Help:      "Application transitions refused, by trigger and error kind",
		}, []string{"trigger", "kind"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "orders_total",
			Help:      "Gateway orders created, by payment type",
		}, []string{"type"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "settlements_total",
			Help:      "Payments settled, by payment type and outcome",
		}, []string{"type", "outcome"}),
		VerificationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "runs_total",
			Help:      "Verification runs, by report source and outcome",
		}, []string{"source", "outcome"}),
		VerificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "duration_seconds",
			Help:      "Verification run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QueuedVerifications: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "queued",
			Help:      "Verification tasks waiting for a worker",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.Transitions,
		m.RejectedTransitions,
		m.Orders,
		m.Settlements,
		m.VerificationRuns,
		m.VerificationDuration,
		m.QueuedVerifications,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) RecordTransition(trigger string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(trigger).Inc()
}

func (m *Metrics) RecordRejectedTransition(trigger, kind string) {
	if m == nil {
		return
	}
	m.RejectedTransitions.WithLabelValues(trigger, kind).Inc()
}

func (m *Metrics) RecordOrder(paymentType string) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(paymentType).Inc()
}

func (m *Metrics) RecordSettlement(paymentType, outcome string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(paymentType, outcome).Inc()
}

func (m *Metrics) RecordVerification(source, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.VerificationRuns.WithLabelValues(source, outcome).Inc()
	m.VerificationDuration.Observe(took.Seconds())
}

func (m *Metrics) SetQueued(n int) {
	if m == nil {
		return
	}
	m.QueuedVerifications.Set(float64(n))
}
