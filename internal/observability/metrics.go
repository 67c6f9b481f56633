package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alumnet_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// FeedPageLoads counts feed page listings by sort order.
	FeedPageLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alumnet_feed_page_loads_total",
		Help: "Total number of feed pages served by sort order",
	}, []string{"sort"})

	// FeedMutations counts feed mutations by kind (create_post, toggle_like, add_comment).
	FeedMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alumnet_feed_mutations_total",
		Help: "Total number of feed mutations by kind",
	}, []string{"kind"})

	// StoreQueryLatency records storage query latency by operation and collection.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "alumnet_store_query_latency_seconds",
		Help:    "Storage query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// CacheHits counts cache-aside outcomes by key class.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alumnet_cache_hits_total",
		Help: "Total cache-aside hits by key class",
	}, []string{"key"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
