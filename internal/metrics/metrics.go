// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laptopadvisor_ingest_rows_total",
			Help: "Catalog rows seen during ingestion by outcome",
		},
		[]string{"outcome"}, // "accepted", "rejected", "skipped"
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laptopadvisor_catalog_size",
			Help: "Number of laptops in the published catalog",
		},
	)

	// Training
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laptopadvisor_training_runs_total",
			Help: "Training runs by result",
		},
		[]string{"result"}, // "success", "failure", "rejected", "aborted"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "laptopadvisor_training_duration_seconds",
			Help:    "Duration of successful training runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	TrainingValLoss = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laptopadvisor_training_val_loss",
			Help: "Final validation loss of the published model",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laptopadvisor_model_version",
			Help: "Version of the published model",
		},
	)

	// Recommendation
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laptopadvisor_recommend_requests_total",
			Help: "Recommendation requests by result",
		},
		[]string{"result"}, // "ok", "invalid", "not_ready", "error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "laptopadvisor_recommend_duration_seconds",
			Help:    "Duration of scored recommendation requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laptopadvisor_recommend_cache_hits_total",
			Help: "Recommendation responses served from cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laptopadvisor_recommend_cache_misses_total",
			Help: "Recommendation responses computed because of a cache miss",
		},
	)

	Feedback = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laptopadvisor_feedback_total",
			Help: "User feedback events by action",
		},
		[]string{"action"},
	)

	// HTTP
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laptopadvisor_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "laptopadvisor_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laptopadvisor_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

// RecordIngest records the outcome counts of one ingestion. The catalog size
// only changes when something was kept, since an empty ingest is not published.
func RecordIngest(accepted, rejected, skipped, kept int) {
	IngestRows.WithLabelValues("accepted").Add(float64(accepted))
	IngestRows.WithLabelValues("rejected").Add(float64(rejected))
	IngestRows.WithLabelValues("skipped").Add(float64(skipped))
	if kept > 0 {
		CatalogSize.Set(float64(kept))
	}
}

// RecordTraining records a training attempt. result is one of success,
// failure, rejected or aborted.
func RecordTraining(result string, duration time.Duration, valLoss float64, version int64) {
	TrainingRuns.WithLabelValues(result).Inc()
	if result != "success" {
		return
	}
	TrainingDuration.Observe(duration.Seconds())
	TrainingValLoss.Set(valLoss)
	ModelVersion.Set(float64(version))
}

// RecordRecommend records a recommendation request
func RecordRecommend(result string, duration time.Duration, cacheHit bool) {
	RecommendRequests.WithLabelValues(result).Inc()
	if result != "ok" {
		return
	}
	if cacheHit {
		CacheHits.Inc()
		return
	}
	CacheMisses.Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records one HTTP request
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, status).Inc()
	APIDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
