// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheRequests counts cache-aside lookups by cache name and outcome (hit/miss/error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_requests_total",
		Help: "Total cache-aside lookups by cache and outcome",
	}, []string{"cache", "outcome"})

	// RateLimitRejections counts requests blocked by the Redis rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_rate_limit_rejections_total",
		Help: "Total requests rejected by the rate limiter, by resource",
	}, []string{"resource"})

	// CommentLikeToggles counts like toggles by resulting state.
	CommentLikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_comment_like_toggles_total",
		Help: "Total comment like toggles by resulting state (liked/unliked)",
	}, []string{"state"})

	// CommentsCreated counts created comments, split top-level vs reply.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_comments_created_total",
		Help: "Total comments created, by kind (comment/reply)",
	}, []string{"kind"})

	// AvatarResizeDuration records avatar decode+resize+encode latency.
	AvatarResizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inkwell_avatar_resize_duration_seconds",
		Help:    "Avatar processing latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// BulkBookRows counts bulk-import rows by outcome (created/rejected).
	BulkBookRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_bulk_book_rows_total",
		Help: "Total bulk book import rows by outcome",
	}, []string{"outcome"})

	// NotificationsCreated counts notifications fanned out, by verb.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_notifications_created_total",
		Help: "Total notifications created, by verb",
	}, []string{"verb"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
