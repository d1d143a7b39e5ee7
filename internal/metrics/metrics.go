// Package metrics holds the pipeline collectors. HTTP collectors live with the
// middleware that records them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "health_report_submissions_total",
		Help: "Report analysis submissions by outcome.",
	}, []string{"outcome"})

	submissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "health_report_submission_duration_seconds",
		Help:    "Time from submit to result, including all AI calls.",
		Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 160},
	})

	completionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "health_ai_completions_total",
		Help: "Calls to the completion service by stage and result.",
	}, []string{"stage", "result"})
)

// ObserveSubmission records one finished submission.
func ObserveSubmission(outcome string, d time.Duration) {
	submissionsTotal.WithLabelValues(outcome).Inc()
	submissionDuration.Observe(d.Seconds())
}

// ObserveCompletion records one completion call.
func ObserveCompletion(stage string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	completionsTotal.WithLabelValues(stage, result).Inc()
}
