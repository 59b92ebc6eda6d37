package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schemascope_request_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	// outcome: emitted, suppressed, throttled, dropped, cancelled
	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schemascope_diagnostics_total",
		Help: "Completed requests by diagnostic outcome",
	}, []string{"outcome"})

	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schemascope_sink_errors_total",
		Help: "Diagnostic sink write failures",
	}, []string{"sink"})

	ValidationFieldFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schemascope_validation_field_failures_total",
		Help: "Rejected fields seen in validation failures",
	}, []string{"field", "expected_type"})

	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schemascope_stream_subscribers",
		Help: "Connected live diagnostic stream clients",
	})
)
