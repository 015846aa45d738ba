package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec
	HTTPRequestSize     prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Domain metrics
	PostsCreatedTotal    prometheus.Counter
	PostsDeletedTotal    prometheus.Counter
	UploadedBytesTotal   prometheus.Counter
	LikesTotal           prometheus.CounterVec
	FollowsTotal         prometheus.CounterVec
	CommentsCreatedTotal prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the metrics singleton, registering on first use
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total cache misses",
				},
				[]string{"cache"},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by rate limiting",
				},
				[]string{"endpoint", "method"},
			),
			PostsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "posts_created_total",
					Help: "Posts created",
				},
			),
			PostsDeletedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "posts_deleted_total",
					Help: "Posts deleted",
				},
			),
			UploadedBytesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "uploaded_image_bytes_total",
					Help: "Bytes of post images uploaded to object storage",
				},
			),
			LikesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "likes_total",
					Help: "Like mutations by action (create, delete)",
				},
				[]string{"action"},
			),
			FollowsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "follows_total",
					Help: "Follow mutations by action (create, delete)",
				},
				[]string{"action"},
			),
			CommentsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "comments_created_total",
					Help: "Comments created",
				},
			),
		}
	})
	return instance
}
