package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorescraper_jobs_processed_total",
		Help: "Total number of jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scorescraper_job_processing_duration_seconds",
		Help:    "Duration of the processing pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	CandidateFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorescraper_candidate_frames_total",
		Help: "Total number of candidate frames evaluated across all jobs",
	})

	KeptFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorescraper_kept_frames_total",
		Help: "Total number of frames that survived deduplication",
	})

	PagesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorescraper_pages_rendered_total",
		Help: "Total number of PDF pages rendered",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scorescraper_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorescraper_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
