package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "Total number of HTTP requests processed by the social service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "social_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	fanoutWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_fanout_writes_total",
			Help: "Total number of fan-out writes by target.",
		},
		[]string{"target"},
	)
	presenceOnlineGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "social_presence_online",
			Help: "Users currently marked online by the presence tracker.",
		},
	)
	presenceSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_presence_sweeps_total",
			Help: "Total number of stale presence records flipped offline by the reaper.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		fanoutWritesTotal,
		presenceOnlineGauge,
		presenceSweepsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncFanout(target string) {
	fanoutWritesTotal.WithLabelValues(target).Inc()
}

func IncPresenceOnline() {
	presenceOnlineGauge.Inc()
}

func DecPresenceOnline() {
	presenceOnlineGauge.Dec()
}

func IncPresenceSweep() {
	presenceSweepsTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
