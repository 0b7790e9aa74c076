package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDispatchMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)
	m.ObserveRequestCreated("CRITICAL")
	m.ObserveTransition("Requested", "En Route", true)
	m.ObserveTransition("Completed", "Arrived", false)
	m.ObserveReservation("reserved")
	m.ObserveClassification("rules")
	m.ObserveAssessmentLatency(0.25)
	m.ObserveEvent("request.created")
}

func TestDispatchMetricsNilSafe(t *testing.T) {
	var m *DispatchMetrics
	m.ObserveRequestCreated("LOW")
	m.ObserveTransition("Requested", "Cancelled", true)
	m.ObserveReservation("conflict")
	m.ObserveClassification("rules_fallback")
	m.ObserveAssessmentLatency(0.1)
	m.ObserveEvent("request.transitioned")
}
