package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	Notifications        *prometheus.CounterVec
	Transitions          *prometheus.CounterVec
	IdentifierCollisions prometheus.Counter
}

// NewMetrics registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification delivery attempts per event, channel and result",
		}, []string{"event", "channel", "result"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Applied workflow transitions",
		}, []string{"workflow", "to"}),
		IdentifierCollisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifier_collisions_total",
			Help:      "Generated identifiers rejected because they were already taken",
		}),
	}
}

// NotificationSent records one channel attempt. Safe on a nil receiver.
func (m *Metrics) NotificationSent(event, channel string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Notifications.WithLabelValues(event, channel, result).Inc()
}

// TransitionApplied records one applied transition. Safe on a nil receiver.
func (m *Metrics) TransitionApplied(workflow, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(workflow, to).Inc()
}

// IdentifierCollision records a rejected identifier candidate. Safe on a nil receiver.
func (m *Metrics) IdentifierCollision() {
	if m == nil {
		return
	}
	m.IdentifierCollisions.Inc()
}
