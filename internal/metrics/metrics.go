package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Chat request metrics
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citechat_chat_requests_total",
			Help: "Total chat requests by outcome",
		},
		[]string{"outcome"}, // ok|rate_limited|bad_request|upstream_error
	)

	ChatRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citechat_chat_request_duration_seconds",
			Help:    "End-to-end chat request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Rate limiter metrics
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citechat_rate_limit_rejections_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)

	RateLimitStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citechat_rate_limit_store_errors_total",
			Help: "Total rate limit store failures (request admitted fail-open)",
		},
	)

	// Scraper metrics
	Scrapes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citechat_scrapes_total",
			Help: "Total scrape attempts by mode and outcome",
		},
		[]string{"mode", "outcome"}, // mode: static|rendered, outcome: ok|error
	)

	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citechat_scrape_duration_seconds",
			Help:    "Scrape duration in seconds by mode",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)

	// LLM metrics
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citechat_llm_requests_total",
			Help: "Total language model calls by outcome",
		},
		[]string{"outcome"}, // ok|error
	)

	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citechat_llm_request_duration_seconds",
			Help:    "Language model call duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Share store metrics
	SharesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citechat_shares_created_total",
			Help: "Total shared conversations stored",
		},
	)

	SharesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citechat_shares_fetched_total",
			Help: "Total shared conversations retrieved",
		},
	)
)
