package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weddingplanner",
			Name:      "bookings_created_total",
			Help:      "Count of bookings created, by outcome.",
		},
		[]string{"outcome"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weddingplanner",
			Name:      "booking_transitions_total",
			Help:      "Count of booking status changes, by target status.",
		},
		[]string{"status"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weddingplanner",
			Name:      "payments_total",
			Help:      "Count of payment lifecycle events, by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	gatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "weddingplanner",
			Name:      "payment_gateway_request_seconds",
			Help:      "Latency of payment gateway calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	httpRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "weddingplanner",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of API requests, by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "code"},
	)

	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weddingplanner",
			Name:      "emails_sent_total",
			Help:      "Count of transactional emails handed to the transport, by template and outcome.",
		},
		[]string{"template", "outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, bookingTransitions, payments, gatewayLatency, httpRequests, emailsSent)
	})
}

// Handler returns the Prometheus exposition handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func IncBookingCreated(err error) {
	bookingsCreated.WithLabelValues(outcome(err)).Inc()
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// IncPayment counts a payment event; stage is "initiate", "verify" or
// "refund_due"
func IncPayment(stage string, err error) {
	payments.WithLabelValues(stage, outcome(err)).Inc()
}

func ObserveGateway(operation string, start time.Time) {
	gatewayLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func IncEmailSent(template string, err error) {
	emailsSent.WithLabelValues(template, outcome(err)).Inc()
}

// ObserveHTTP records a finished request. route is the mux pattern that
// matched, so path parameters do not explode label cardinality.
func ObserveHTTP(route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
