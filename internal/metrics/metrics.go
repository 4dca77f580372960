package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.DefaultRegisterer

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by path/method/code.",
		},
		[]string{"path", "method", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by path/method/code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "code"},
	)

	rosterEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_events_total",
			Help: "Roster operations by operation and result with error label.",
		},
		[]string{"op", "result", "error"},
	)

	rosterDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roster_operation_duration_seconds",
			Help:    "Duration of roster operations by op and result.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "result"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outgoing notifications by kind and result.",
		},
		[]string{"kind", "result"},
	)

	bulkDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_deleted_total",
			Help: "Entities removed by bulk user deletion, by entity.",
		},
		[]string{"entity"},
	)
)

func GinMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()
	code := strconv.Itoa(c.Writer.Status())
	path := c.FullPath()

	// на случаи 404, потому что иначе не записывалось бы
	if path == "" {
		path = c.Request.URL.Path
	}

	if path == "/metrics" || strings.HasPrefix(path, "/debug/pprof/") {
		return
	}

	method := c.Request.Method

	httpRequests.WithLabelValues(path, method, code).Inc()
	httpDuration.WithLabelValues(path, method, code).Observe(time.Since(start).Seconds())
}

func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func ObserveRosterOp(op string, start time.Time, err error) {
	result := "success"
	errLabel := ""
	if err != nil {
		result = "error"
		errLabel = rootLabel(err)
	}
	rosterEvents.WithLabelValues(op, result, errLabel).Inc()
	rosterDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

func ObserveNotification(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	notifications.WithLabelValues(kind, result).Inc()
}

func AddBulkDeleted(entity string, n int) {
	bulkDeleted.WithLabelValues(entity).Add(float64(n))
}

// rootLabel - первый код вида TEAM_FULL в цепочке "op: ...: CODE"; все остальное в одну метку,
// чтобы не раздувать кардинальность текстами драйверов
func rootLabel(err error) string {
	for _, part := range strings.Split(err.Error(), ": ") {
		if isCode(part) {
			return part
		}
	}
	return "other"
}

func isCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

func init() {
	collectors := []prometheus.Collector{
		httpRequests,
		httpDuration,
		rosterEvents,
		rosterDuration,
		notifications,
		bulkDeleted,
	}

	for _, c := range collectors {
		_ = registry.Register(c)
	}
}
