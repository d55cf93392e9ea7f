package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_reservations_total",
			Help: "Reserve requests by outcome",
		},
		[]string{"result"},
	)

	cancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_cancellations_total",
			Help: "Cancelled bookings by their prior status",
		},
		[]string{"prior_status"},
	)

	promotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_waitlist_promotions_total",
			Help: "Waitlisted bookings promoted to confirmed",
		},
	)

	waitlistLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gym_waitlist_length",
			Help: "Current waitlist length per class",
		},
		[]string{"class_id"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gym_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

func ReservationProcessed(result string) {
	reservationsTotal.WithLabelValues(result).Inc()
}

func BookingCancelled(priorStatus string) {
	cancellationsTotal.WithLabelValues(priorStatus).Inc()
}

func WaitlistPromoted() {
	promotionsTotal.Inc()
}

func SetWaitlistLength(classID string, length int) {
	waitlistLength.WithLabelValues(classID).Set(float64(length))
}

func ObserveHTTPRequest(method string, status int, duration time.Duration) {
	httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}
