package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_service",
			Name:      "availability_checks_total",
			Help:      "Count of availability checks by outcome.",
		},
		[]string{"result"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_service",
			Name:      "bookings_total",
			Help:      "Count of booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_service",
			Name:      "reservation_status_transitions_total",
			Help:      "Count of reservation status changes by target status.",
		},
		[]string{"status"},
	)

	notificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking_service",
			Name:      "notification_failures_total",
			Help:      "Count of notifications that could not be emitted.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(availabilityChecks, bookings, statusTransitions, notificationFailures)
	})
}

func IncAvailabilityCheck(result string) {
	availabilityChecks.WithLabelValues(result).Inc()
}

func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func IncStatusTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

func IncNotificationFailure() {
	notificationFailures.Inc()
}
