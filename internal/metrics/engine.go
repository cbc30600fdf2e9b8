package metrics

import "github.com/prometheus/client_golang/prometheus"

// Orchestration and ingestion Prometheus metrics.
var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "juris",
			Name:      "runs_total",
			Help:      "Total orchestration runs by terminal state",
		},
		[]string{"state"},
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "juris",
			Name:      "step_duration_seconds",
			Help:      "Orchestration step duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"step"},
	)

	StepOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "juris",
			Name:      "step_outcomes_total",
			Help:      "Orchestration step completions by outcome",
		},
		[]string{"step", "outcome"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "juris",
			Name:      "generation_tokens_total",
			Help:      "Generation tokens consumed",
		},
		[]string{"type"},
	)

	IngestedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "juris",
			Name:      "ingested_documents_total",
			Help:      "Documents processed at ingestion",
		},
		[]string{"status"},
	)

	TraceEventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "juris",
			Name:      "trace_events_dropped_total",
			Help:      "Trace events lost to a full delivery buffer",
		},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(StepDuration)
	prometheus.MustRegister(StepOutcomesTotal)
	prometheus.MustRegister(GenerationTokensTotal)
	prometheus.MustRegister(IngestedDocumentsTotal)
	prometheus.MustRegister(TraceEventsDroppedTotal)
}
