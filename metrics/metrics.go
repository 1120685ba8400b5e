// Package metrics exposes Prometheus metrics for weekly matching runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished runs by outcome: created, no_candidates, already_matched, error
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duomatch_runs_total",
			Help: "Total number of matching runs by outcome",
		},
		[]string{"outcome", "reason"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "duomatch_run_duration_seconds",
			Help:    "Duration of matching runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MatchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duomatch_matches_created_total",
			Help: "Total number of weekly match records written",
		},
	)

	// LastRunCandidates reports the pipeline counts of the most recent run
	LastRunCandidates = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "duomatch_last_run_candidates",
			Help: "Counts seen by each stage of the last matching run",
		},
		[]string{"stage"},
	)

	// SideEffectFailuresTotal counts archive and notification failures after a run
	SideEffectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duomatch_side_effect_failures_total",
			Help: "Total number of failed post-run side effects",
		},
		[]string{"kind"},
	)
)

// RunCounts is what RecordRun needs from a run result
type RunCounts struct {
	Duos, GroupA, GroupB, Feasible, Repeats, Accepted int
}

// RecordRun records one finished run
func RecordRun(outcome, reason string, elapsed time.Duration, counts RunCounts) {
	RunsTotal.WithLabelValues(outcome, reason).Inc()
	RunDuration.Observe(elapsed.Seconds())
	MatchesCreatedTotal.Add(float64(counts.Accepted))

	LastRunCandidates.WithLabelValues("duos").Set(float64(counts.Duos))
	LastRunCandidates.WithLabelValues("group_a").Set(float64(counts.GroupA))
	LastRunCandidates.WithLabelValues("group_b").Set(float64(counts.GroupB))
	LastRunCandidates.WithLabelValues("feasible").Set(float64(counts.Feasible))
	LastRunCandidates.WithLabelValues("repeats").Set(float64(counts.Repeats))
	LastRunCandidates.WithLabelValues("accepted").Set(float64(counts.Accepted))
}

// RecordRunFailure records a run that ended in an error or was refused
func RecordRunFailure(outcome string, elapsed time.Duration) {
	RunsTotal.WithLabelValues(outcome, "").Inc()
	RunDuration.Observe(elapsed.Seconds())
}

func RecordSideEffectFailure(kind string) {
	SideEffectFailuresTotal.WithLabelValues(kind).Inc()
}
