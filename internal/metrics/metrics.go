package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightbooking_bookings_total",
		Help: "Booking attempts by result (confirmed, exhausted, not_found, error)",
	}, []string{"result"})

	FlightDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightbooking_flight_deletions_total",
		Help: "Flight deletion requests by final state",
	}, []string{"state"})

	TicketsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightbooking_tickets_cancelled_total",
		Help: "Tickets cancelled by forced flight cancellation",
	})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightbooking_notifications_total",
		Help: "Notification events by type and outcome",
	}, []string{"type", "outcome"})

	FlightsCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightbooking_flights_cache_lookups_total",
		Help: "Flight listing cache lookups by outcome (hit, miss, error)",
	}, []string{"outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightbooking_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware records request latency labelled by the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
