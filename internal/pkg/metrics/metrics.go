package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report reminder lifecycle activity.
type Metrics struct {
	AlarmsFired          prometheus.Counter
	AlarmsSuppressed     prometheus.Counter
	NotificationsShown   prometheus.Counter
	NotificationFailures prometheus.Counter
	Actions              *prometheus.CounterVec
	Jobs                 *prometheus.CounterVec
	PendingCallbacks     prometheus.Gauge
}

// New constructs and registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so that names never collide.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AlarmsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "alarm",
			Name:      "fired_total",
			Help:      "Wake triggers that reached the fired-reminder handler.",
		}),
		AlarmsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "alarm",
			Name:      "suppressed_total",
			Help:      "Firings suppressed because completion of the item was in flight.",
		}),
		NotificationsShown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "notification",
			Name:      "shown_total",
			Help:      "Alerts posted to the notification shade.",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "notification",
			Name:      "failures_total",
			Help:      "Fired reminders whose alert could not be posted or registered.",
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "notification",
			Name:      "actions_total",
			Help:      "User interactions with alerts, by action and outcome.",
		}, []string{"action", "outcome"}),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reminder",
			Subsystem: "work",
			Name:      "jobs_total",
			Help:      "Durable job executions, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		PendingCallbacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reminder",
			Subsystem: "bridge",
			Name:      "pending_callbacks",
			Help:      "Outbound callbacks queued behind the readiness gate.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.AlarmsFired,
			m.AlarmsSuppressed,
			m.NotificationsShown,
			m.NotificationFailures,
			m.Actions,
			m.Jobs,
			m.PendingCallbacks,
		)
	}
	return m
}

// Discard returns unregistered collectors.
func Discard() *Metrics {
	return New(nil)
}
