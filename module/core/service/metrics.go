package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	alarmsFired        prometheus.Counter
	alarmsSuppressed   prometheus.Counter
	nearbyAlerts       *prometheus.CounterVec
	placeLookups       *prometheus.CounterVec
	effectFailures     *prometheus.CounterVec
	recurringDecisions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		alarmsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonecaz",
			Name:      "destination_alarms_fired_total",
			Help:      "Destination alarms that fired.",
		}),
		alarmsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonecaz",
			Name:      "destination_alarms_suppressed_total",
			Help:      "Qualifying samples held back by quiet hours.",
		}),
		nearbyAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonecaz",
			Name:      "nearby_alerts_total",
			Help:      "Nearby-place alerts fired by category.",
		}, []string{"category"}),
		placeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonecaz",
			Name:      "place_lookups_total",
			Help:      "Place lookups by result.",
		}, []string{"result"}),
		effectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonecaz",
			Name:      "effect_failures_total",
			Help:      "Effect sink failures by effect.",
		}, []string{"effect"}),
		recurringDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonecaz",
			Name:      "recurring_activations_total",
			Help:      "Recurring alarm arm and disarm commands.",
		}, []string{"action"}),
	}
	if reg != nil {
		reg.MustRegister(m.alarmsFired, m.alarmsSuppressed, m.nearbyAlerts, m.placeLookups, m.effectFailures, m.recurringDecisions)
	}
	return m
}

func (m *Metrics) alarmFired() {
	if m != nil {
		m.alarmsFired.Inc()
	}
}

func (m *Metrics) alarmSuppressed() {
	if m != nil {
		m.alarmsSuppressed.Inc()
	}
}

func (m *Metrics) nearbyAlert(c domain.PlaceCategory) {
	if m != nil {
		m.nearbyAlerts.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) placeLookup(result string) {
	if m != nil {
		m.placeLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) effectFailed(effect string) {
	if m != nil {
		m.effectFailures.WithLabelValues(effect).Inc()
	}
}

func (m *Metrics) recurring(action string) {
	if m != nil {
		m.recurringDecisions.WithLabelValues(action).Inc()
	}
}
