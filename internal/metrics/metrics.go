package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendshare",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lendshare",
			Name:      "bookings_created_total",
			Help:      "Bookings placed since start.",
		},
	)

	bookingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendshare",
			Name:      "booking_decisions_total",
			Help:      "Booking decisions by outcome.",
		},
		[]string{"decision"},
	)

	commentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lendshare",
			Name:      "comments_created_total",
			Help:      "Comments published since start.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingDecisions, commentsCreated)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a placed booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncBookingDecision counts an approval or rejection.
func IncBookingDecision(decision string) {
	bookingDecisions.WithLabelValues(decision).Inc()
}

// IncCommentCreated counts a published comment.
func IncCommentCreated() {
	commentsCreated.Inc()
}
