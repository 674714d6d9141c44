// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_batch_cycles_total",
			Help: "Total number of batch cycles run, by outcome",
		},
		[]string{"status"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_events_processed_total",
			Help: "Total number of inbound events processed, by kind",
		},
		[]string{"kind"},
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_events_skipped_total",
			Help: "Total number of inbound events skipped, by reason",
		},
		[]string{"reason"},
	)

	SubjectsOnboarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_subjects_onboarded_total",
			Help: "Total number of applicants onboarded",
		},
	)

	ExtractionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_extraction_failures_total",
			Help: "Total number of unparsable model extractions",
		},
	)

	VerdictTiers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_verdict_tiers_total",
			Help: "Total number of document verdicts, by decision tier",
		},
		[]string{"tier"},
	)

	RepliesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_replies_sent_total",
			Help: "Total number of outbound replies, by outcome",
		},
		[]string{"status"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "onboarding_batch_duration_seconds",
			Help: "Duration of one batch cycle in seconds",
		},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_query_duration_seconds",
			Help: "Duration of data-access queries in seconds",
		},
		[]string{"store"},
	)
)
