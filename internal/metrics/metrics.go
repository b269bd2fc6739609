package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamCallsTotal tracks Solscan API calls per operation
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenlens_upstream_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"operation", "status"},
	)

	// UpstreamLatency tracks upstream call latency
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokenlens_upstream_latency_seconds",
			Help:    "Upstream API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// PagesFetched tracks pages consumed per aggregation endpoint
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenlens_pages_fetched_total",
			Help: "Total number of upstream pages fetched",
		},
		[]string{"endpoint"},
	)

	// HTTPRequestsTotal tracks served requests per route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenlens_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "status"},
	)

	// HTTPRequestDuration tracks request handling latency per route
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokenlens_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// CacheHits tracks response cache hits per endpoint
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenlens_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"endpoint"},
	)

	// CacheMisses tracks response cache misses per endpoint
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenlens_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"endpoint"},
	)
)
