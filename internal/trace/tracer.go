package trace

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBufferSize is the default sink delivery buffer.
const DefaultBufferSize = 256

// RootStep is the step name of the per-run root span.
const RootStep = "RUN"

// Tracer forwards span events to a sink through a bounded buffer. Emission
// never blocks the caller: when the buffer is full the event is dropped and
// counted.
type Tracer struct {
	sink    Sink
	events  chan Event
	done    chan struct{}
	logger  *zap.Logger
	dropped func()

	// mu orders emit against Close so a late span drops instead of
	// sending on a closed channel.
	mu     sync.Mutex
	closed bool
}

// New creates a Tracer delivering to sink from a background goroutine.
// bufferSize <= 0 falls back to DefaultBufferSize. onDropped (optional) is
// invoked once per event lost to a full buffer.
func New(sink Sink, bufferSize int, logger *zap.Logger, onDropped func()) *Tracer {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	t := &Tracer{
		sink:    sink,
		events:  make(chan Event, bufferSize),
		done:    make(chan struct{}),
		logger:  logger,
		dropped: onDropped,
	}
	go t.deliver()
	return t
}

func (t *Tracer) deliver() {
	defer close(t.done)
	for ev := range t.events {
		t.sink.Record(ev)
	}
}

// Close drains buffered events and stops delivery. Safe to call more than
// once; events emitted after Close are dropped and counted.
func (t *Tracer) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.events)
	t.mu.Unlock()
	<-t.done
}

// emit forwards an event without blocking. Full buffer or a closed tracer
// means the event is dropped; losing trace data must never fail the run.
func (t *Tracer) emit(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		select {
		case t.events <- ev:
			return
		default:
		}
	}
	if t.dropped != nil {
		t.dropped()
	}
	t.logger.Debug("trace event dropped", zap.String("run_id", ev.RunID), zap.String("step", ev.Step))
}

// StartRun opens the root span for a run and returns its collector.
func (t *Tracer) StartRun(runID string, attrs map[string]string) *RunTrace {
	rt := &RunTrace{tracer: t, runID: runID}
	rt.root = rt.StartSpan(RootStep, attrs)
	return rt
}

// RunTrace collects the ordered events of one run while forwarding each to
// the sink. Safe for use from the single goroutine driving the run.
type RunTrace struct {
	tracer *Tracer
	runID  string
	root   *Span

	mu     sync.Mutex
	events []Event
}

// StartSpan opens a child span for one orchestration step.
func (rt *RunTrace) StartSpan(step string, attrs map[string]string) *Span {
	sp := &Span{rt: rt, step: step, attrs: attrs, started: time.Now()}
	rt.record(Event{
		RunID: rt.runID,
		Step:  step,
		Phase: PhaseStart,
		At:    sp.started,
		Attrs: attrs,
	})
	return sp
}

// Finish closes the root span with the run's final outcome.
func (rt *RunTrace) Finish(outcome Outcome) {
	rt.root.End(outcome, Metrics{})
}

// Events returns the ordered events recorded so far.
func (rt *RunTrace) Events() []Event {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]Event(nil), rt.events...)
}

func (rt *RunTrace) record(ev Event) {
	rt.mu.Lock()
	rt.events = append(rt.events, ev)
	rt.mu.Unlock()
	rt.tracer.emit(ev)
}

// Span is an open step span. End it exactly once; Close guarantees closure
// on every exit path when deferred.
type Span struct {
	rt      *RunTrace
	step    string
	attrs   map[string]string
	started time.Time
	ended   bool
}

// Elapsed returns the time since the span opened.
func (sp *Span) Elapsed() time.Duration { return time.Since(sp.started) }

// SetAttr attaches an attribute discovered while the step ran; it appears on
// the span's end event.
func (sp *Span) SetAttr(key, value string) {
	if sp.attrs == nil {
		sp.attrs = make(map[string]string)
	}
	sp.attrs[key] = value
}

// End closes the span with the given outcome. Elapsed time is measured here;
// token metrics are passed through when the step produced them.
func (sp *Span) End(outcome Outcome, m Metrics) {
	if sp.ended {
		return
	}
	sp.ended = true
	m.Elapsed = time.Since(sp.started)
	sp.rt.record(Event{
		RunID:   sp.rt.runID,
		Step:    sp.step,
		Phase:   PhaseEnd,
		Outcome: outcome,
		At:      time.Now(),
		Attrs:   sp.attrs,
		Metrics: m,
	})
}

// Close ends the span with an error outcome if it was not ended explicitly.
// Intended for defer, so a panicking step still closes its span.
func (sp *Span) Close() {
	if !sp.ended {
		sp.End(OutcomeError, Metrics{})
	}
}
