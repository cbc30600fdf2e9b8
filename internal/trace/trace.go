// Package trace records orchestration spans: one root span per run, one
// child span per state. Delivery to the external sink is buffered and
// best-effort; a lost event never fails a run.
package trace

import "time"

// Phase marks whether an event opens or closes a span.
type Phase string

// Span phases.
const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
)

// Outcome is the recorded result of a span.
type Outcome string

// Span outcomes.
const (
	OutcomeOK Outcome = "ok"
	// OutcomeDegraded marks a step that succeeded after shedding work,
	// e.g. the planner stripping invalid filters.
	OutcomeDegraded Outcome = "degraded"
	OutcomeError    Outcome = "error"
)

// Metrics are per-span measurements. Token counts are only meaningful when
// HasTokens is set; generation providers do not always report usage.
type Metrics struct {
	Elapsed          time.Duration
	PromptTokens     int
	CompletionTokens int
	HasTokens        bool
}

// Event is one recorded span transition.
type Event struct {
	RunID   string
	Step    string
	Phase   Phase
	Outcome Outcome
	At      time.Time
	Attrs   map[string]string
	Metrics Metrics
}

// Sink receives span events. Implementations must tolerate concurrent calls;
// delivery is fire-and-forget from the engine's perspective.
type Sink interface {
	Record(ev Event)
}
