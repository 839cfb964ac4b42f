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
	discoveryFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circl_discovery_fetches_total",
			Help: "Resource fetches by quiz domain and outcome",
		},
		[]string{"domain", "result"},
	)

	discoveryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circl_discovery_fetch_duration_seconds",
			Help:    "Duration of upstream resource fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"domain"},
	)

	networkRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circl_network_refreshes_total",
			Help: "Network membership refreshes by outcome",
		},
		[]string{"result"},
	)

	sessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circl_session_events_total",
			Help: "Session gate transitions",
		},
		[]string{"event"},
	)

	httpRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circl_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveFetch records one resource fetch. failure is empty on success.
func ObserveFetch(domain, failure string, took time.Duration) {
	result := "ok"
	if failure != "" {
		result = failure
	}
	discoveryFetches.WithLabelValues(domain, result).Inc()
	discoveryFetchDuration.WithLabelValues(domain).Observe(took.Seconds())
}

// ObserveRefresh records one network refresh that reached the source.
func ObserveRefresh(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	networkRefreshes.WithLabelValues(result).Inc()
}

// SessionEvent counts a launch, login or logout.
func SessionEvent(event string) {
	sessionEvents.WithLabelValues(event).Inc()
}

// Middleware times every request by its route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
