package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics exposes counters/histograms for emergency dispatch flows.
type DispatchMetrics struct {
	requestsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	reservations     *prometheus.CounterVec
	classifierTotal  *prometheus.CounterVec
	assessLatency    prometheus.Histogram
	eventsTotal      *prometheus.CounterVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicore",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total emergency requests created, by triage level",
		}, []string{"level"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicore",
			Subsystem: "dispatch",
			Name:      "transitions_total",
			Help:      "Total request status transitions",
		}, []string{"from", "to", "outcome"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicore",
			Subsystem: "dispatch",
			Name:      "ambulance_reservations_total",
			Help:      "Total ambulance reservation attempts",
		}, []string{"outcome"}),
		classifierTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicore",
			Subsystem: "triage",
			Name:      "classifications_total",
			Help:      "Total triage classifications, by source",
		}, []string{"source"}),
		assessLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicore",
			Subsystem: "triage",
			Name:      "assessment_latency_seconds",
			Help:      "Latency of symptom assessment",
			Buckets:   prometheus.DefBuckets,
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicore",
			Subsystem: "dispatch",
			Name:      "events_total",
			Help:      "Total dispatch events consumed from the queue",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.transitionsTotal, m.reservations, m.classifierTotal, m.assessLatency, m.eventsTotal)
	return m
}

func (m *DispatchMetrics) ObserveRequestCreated(level string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(level).Inc()
}

func (m *DispatchMetrics) ObserveTransition(from, to string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "invalid"
	}
	m.transitionsTotal.WithLabelValues(from, to, outcome).Inc()
}

func (m *DispatchMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}

func (m *DispatchMetrics) ObserveClassification(source string) {
	if m == nil {
		return
	}
	m.classifierTotal.WithLabelValues(source).Inc()
}

func (m *DispatchMetrics) ObserveAssessmentLatency(seconds float64) {
	if m == nil {
		return
	}
	m.assessLatency.Observe(seconds)
}

// ObserveEvent satisfies the queue notifier's metrics hook.
func (m *DispatchMetrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind).Inc()
}
