package valet

import "github.com/prometheus/client_golang/prometheus"

var (
	checkInsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valet_checkins_total",
		Help: "Total number of vehicles checked in",
	})

	requestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valet_requests_total",
		Help: "Total number of pickup requests raised",
	})

	promotionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valet_promotions_total",
		Help: "Total number of scheduled pickups promoted into the request queue",
	})

	archivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valet_archived_total",
		Help: "Total number of vehicles archived on departure",
	})

	reinstatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valet_reinstated_total",
		Help: "Total number of archived vehicles reinstated",
	})

	notificationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "valet_notification_failures_total",
		Help: "Total number of guest notifications that failed to send",
	})

	requestQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "valet_request_queue_depth",
		Help: "Vehicles currently awaiting retrieval",
	})
)

// RegisterMetrics adds the coordinator metrics to the given registry.
func RegisterMetrics(reg *prometheus.Registry) {
	reg.MustRegister(
		checkInsTotal,
		requestsTotal,
		promotionsTotal,
		archivedTotal,
		reinstatedTotal,
		notificationFailuresTotal,
		requestQueueDepth,
	)
}
