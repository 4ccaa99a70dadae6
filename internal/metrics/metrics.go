package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "consult"

var (
	BookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_created_total", Help: "Number of consultation bookings persisted."},
	)
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "booking_status_transitions_total", Help: "Number of booking status transitions by source and target status."},
		[]string{"from", "to"},
	)
	NotificationDispatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notification_dispatch_total", Help: "Number of notification delivery attempts by message kind and result."},
		[]string{"kind", "result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(BookingsCreated)
	reg.MustRegister(StatusTransitions)
	reg.MustRegister(NotificationDispatch)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
