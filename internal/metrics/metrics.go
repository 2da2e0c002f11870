// Package metrics holds the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts resolved scans by resulting action.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitorlog_scans_total",
		Help: "Number of resolved scans, labeled by action.",
	}, []string{"action"})

	// NotificationsFailedTotal counts arrival notifications that could not
	// be delivered.
	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitorlog_notifications_failed_total",
		Help: "Number of arrival notifications that failed to send.",
	})

	// PresentVisitors tracks the current number of checked-in visitors.
	PresentVisitors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "visitorlog_present_visitors",
		Help: "Number of visitors currently checked in.",
	})
)
