package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors and the registry they live in.
// The registry is per-instance rather than the package default so building
// a second router (tests do) never trips duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	PostsCreated    prometheus.Counter
	PostsDeleted    prometheus.Counter
	LikesToggled    prometheus.Counter
	CommentsCreated prometheus.Counter
}

// NewMetrics builds and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kageban_http_requests_total",
			Help: "HTTP requests by route template, method and status.",
		}, []string{"route", "method", "status"}),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kageban_posts_created_total",
			Help: "Posts accepted into the timeline.",
		}),
		PostsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kageban_posts_deleted_total",
			Help: "Posts soft-deleted by authors or admins.",
		}),
		LikesToggled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kageban_likes_toggled_total",
			Help: "Like toggles applied.",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kageban_comments_created_total",
			Help: "Comments appended to posts.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.PostsCreated,
		m.PostsDeleted,
		m.LikesToggled,
		m.CommentsCreated,
	)
	return m
}

// Handler serves the scrape endpoint for this metrics set.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Collect counts every request against its route template once the
// handler chain finishes.
func (m *Metrics) Collect() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
