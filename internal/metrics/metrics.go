package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safespeak_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safespeak_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// 分析指标
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safespeak_analyses_total",
			Help: "Total analysed messages by severity",
		},
		[]string{"severity"},
	)

	ClassifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safespeak_classifier_requests_total",
			Help: "Classifier invocations by source and outcome",
		},
		[]string{"source", "outcome"}, // outcome: "ok", "error", "cache_hit"
	)

	ClassifierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safespeak_classifier_latency_seconds",
			Help:    "Classifier latency",
			Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "safespeak_live_connections",
			Help: "Open live-analysis websocket connections",
		},
	)
)
