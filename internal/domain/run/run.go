// Package run models one orchestrated question: a sequential state machine
// from PLANNING to a terminal DONE or FAILED, with its trace attached.
package run

import (
	"fmt"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/search/request"
	"github.com/veredito/juris/internal/domain/search/result"
	"github.com/veredito/juris/internal/trace"
)

// State is an orchestration state.
type State string

// Orchestration states.
const (
	StatePlanning    State = "PLANNING"
	StateRetrieving  State = "RETRIEVING"
	StateEmptyResult State = "EMPTY_RESULT"
	StateHasResults  State = "HAS_RESULTS"
	StateGenerating  State = "GENERATING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// transitions enumerates the legal state graph. FAILED is reachable from any
// non-terminal state and is handled separately in Fail.
var transitions = map[State][]State{
	StatePlanning:    {StateRetrieving},
	StateRetrieving:  {StateEmptyResult, StateHasResults},
	StateEmptyResult: {StateGenerating},
	StateHasResults:  {StateGenerating},
	StateGenerating:  {StateDone},
}

// Run is one orchestrated question. Created at submission, driven through
// the state machine by the orchestrator, and immutable to callers once a
// terminal state is reached.
type Run struct {
	id       string
	question string
	state    State

	request  *request.Request
	passages []result.Passage
	answer   string
	err      error
	events   []trace.Event
}

// New creates a Run in PLANNING.
func New(id, question string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run ID is required")
	}
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}
	return &Run{id: id, question: question, state: StatePlanning}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Question returns the user question.
func (r *Run) Question() string { return r.question }

// State returns the current state.
func (r *Run) State() State { return r.state }

// Request returns the planned retrieval request (nil before PLANNING ends).
func (r *Run) Request() *request.Request { return r.request }

// Passages returns the retrieved passages (nil on EMPTY_RESULT).
func (r *Run) Passages() []result.Passage { return r.passages }

// Answer returns the final answer text ("" unless DONE).
func (r *Run) Answer() string { return r.answer }

// Err returns the structured failure (nil unless FAILED).
func (r *Run) Err() error { return r.err }

// Events returns the ordered trace events recorded for this run.
func (r *Run) Events() []trace.Event { return r.events }

// Failed reports whether the run ended in FAILED.
func (r *Run) Failed() bool { return r.state == StateFailed }

// Transition moves the run to the next state along a legal edge.
func (r *Run) Transition(next State) error {
	if r.state.Terminal() {
		return fmt.Errorf("%w: cannot leave %s", domain.ErrRunFinished, r.state)
	}
	for _, allowed := range transitions[r.state] {
		if allowed == next {
			r.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", r.state, next)
}

// Fail moves the run to FAILED with the structured cause. Legal from any
// non-terminal state.
func (r *Run) Fail(err error) error {
	if r.state.Terminal() {
		return fmt.Errorf("%w: cannot fail %s", domain.ErrRunFinished, r.state)
	}
	r.state = StateFailed
	r.err = err
	return nil
}

// SetRequest attaches the planned retrieval request.
func (r *Run) SetRequest(req *request.Request) { r.request = req }

// SetPassages attaches the retrieval result.
func (r *Run) SetPassages(passages []result.Passage) { r.passages = passages }

// SetAnswer attaches the final answer text.
func (r *Run) SetAnswer(answer string) { r.answer = answer }

// SetEvents attaches the recorded trace events.
func (r *Run) SetEvents(events []trace.Event) { r.events = events }
