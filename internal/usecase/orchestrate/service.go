// Package orchestrate drives one question through the retrieval and
// generation state machine:
//
//	PLANNING -> RETRIEVING -> (EMPTY_RESULT | HAS_RESULTS) -> GENERATING -> DONE
//
// FAILED is reachable from every non-terminal state. Each state contributes a
// start/end span pair to the run's trace; retrieval retries add one pair per
// attempt.
package orchestrate

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/run"
	"github.com/veredito/juris/internal/domain/search/result"
	"github.com/veredito/juris/internal/metrics"
	"github.com/veredito/juris/internal/trace"
)

// retrievalAttempts is the total number of tries for the retrieval step:
// the original call plus one retry with the unchanged request.
const retrievalAttempts = 2

// Service sequences planning, retrieval, and generation for one question.
// Concurrent runs are independent; the service holds only read-only state.
type Service struct {
	planner   Planner
	retriever Retriever
	generator Generator
	tracer    *trace.Tracer
	cfg       Config
	logger    *zap.Logger
}

// New creates an orchestrator.
func New(
	planner Planner, retriever Retriever, generator Generator,
	tracer *trace.Tracer, cfg Config, logger *zap.Logger,
) *Service {
	return &Service{
		planner:   planner,
		retriever: retriever,
		generator: generator,
		tracer:    tracer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run answers one question. The returned run is always terminal: DONE with an
// answer, or FAILED with a structured step error (also returned as err).
func (s *Service) Run(ctx context.Context, question string) (*run.Run, error) {
	r, err := run.New(uuid.NewString(), question)
	if err != nil {
		return nil, err
	}

	rt := s.tracer.StartRun(r.ID(), map[string]string{"question_chars": strconv.Itoa(len(question))})

	for !r.State().Terminal() {
		switch r.State() {
		case run.StatePlanning:
			s.stepPlan(ctx, r, rt)
		case run.StateRetrieving:
			s.stepRetrieve(ctx, r, rt)
		case run.StateEmptyResult:
			s.stepEmptyResult(r, rt)
		case run.StateHasResults:
			s.stepHasResults(r, rt)
		case run.StateGenerating:
			s.stepGenerate(ctx, r, rt)
		}
	}

	outcome := trace.OutcomeOK
	if r.Failed() {
		outcome = trace.OutcomeError
	}
	rt.Finish(outcome)
	r.SetEvents(rt.Events())
	metrics.RunsTotal.WithLabelValues(string(r.State())).Inc()

	if r.Failed() {
		return r, r.Err()
	}
	return r, nil
}

func (s *Service) stepPlan(ctx context.Context, r *run.Run, rt *trace.RunTrace) {
	sp := rt.StartSpan(string(run.StatePlanning), nil)
	defer sp.Close()

	ctx, cancel := s.withTimeout(ctx, s.cfg.PlanningTimeout)
	defer cancel()

	p, err := s.planner.Plan(ctx, r.Question())
	if err != nil {
		s.failStep(r, sp, run.StatePlanning, domain.ErrPlanning, err)
		return
	}

	r.SetRequest(&p.Request)
	sp.SetAttr("filter", p.Request.Filters().Render())

	outcome := trace.OutcomeOK
	if len(p.Dropped) > 0 {
		// The fallback that stripped invalid constraints must be visible in
		// the trace, never silent.
		outcome = trace.OutcomeDegraded
		sp.SetAttr("constraints_stripped", strconv.Itoa(len(p.Dropped)))
	}
	s.endStep(sp, run.StatePlanning, outcome, trace.Metrics{})

	_ = r.Transition(run.StateRetrieving)
}

func (s *Service) stepRetrieve(ctx context.Context, r *run.Run, rt *trace.RunTrace) {
	var passages []result.Passage
	var err error

	for attempt := 1; attempt <= retrievalAttempts; attempt++ {
		passages, err = s.retrieveOnce(ctx, r, rt, attempt)
		if err == nil {
			break
		}
		if attempt < retrievalAttempts {
			s.logger.Warn("retrieval attempt failed, retrying",
				zap.String("run_id", r.ID()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}
	if err != nil {
		_ = r.Fail(domain.NewStepError(string(run.StateRetrieving), domain.ErrRetrieval, err))
		return
	}

	r.SetPassages(passages)
	if len(passages) == 0 {
		_ = r.Transition(run.StateEmptyResult)
		return
	}
	_ = r.Transition(run.StateHasResults)
}

// retrieveOnce runs a single retrieval attempt under its own span, so the
// trace shows one RETRIEVING pair per attempt.
func (s *Service) retrieveOnce(
	ctx context.Context, r *run.Run, rt *trace.RunTrace, attempt int,
) ([]result.Passage, error) {
	sp := rt.StartSpan(string(run.StateRetrieving), map[string]string{"attempt": strconv.Itoa(attempt)})
	defer sp.Close()

	ctx, cancel := s.withTimeout(ctx, s.cfg.RetrievalTimeout)
	defer cancel()

	passages, err := s.retriever.Retrieve(ctx, r.Request())
	if err != nil {
		s.endStep(sp, run.StateRetrieving, trace.OutcomeError, trace.Metrics{})
		return nil, err
	}

	sp.SetAttr("passages", strconv.Itoa(len(passages)))
	s.endStep(sp, run.StateRetrieving, trace.OutcomeOK, trace.Metrics{})
	return passages, nil
}

func (s *Service) stepEmptyResult(r *run.Run, rt *trace.RunTrace) {
	sp := rt.StartSpan(string(run.StateEmptyResult), map[string]string{"context": "none"})
	defer sp.Close()
	s.endStep(sp, run.StateEmptyResult, trace.OutcomeOK, trace.Metrics{})
	_ = r.Transition(run.StateGenerating)
}

func (s *Service) stepHasResults(r *run.Run, rt *trace.RunTrace) {
	sp := rt.StartSpan(string(run.StateHasResults), map[string]string{
		"passages": strconv.Itoa(len(r.Passages())),
	})
	defer sp.Close()
	s.endStep(sp, run.StateHasResults, trace.OutcomeOK, trace.Metrics{})
	_ = r.Transition(run.StateGenerating)
}

func (s *Service) stepGenerate(ctx context.Context, r *run.Run, rt *trace.RunTrace) {
	sp := rt.StartSpan(string(run.StateGenerating), nil)
	defer sp.Close()

	ctx, cancel := s.withTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	// An empty passage slice is the explicit no-context marker; generation
	// failures are not retried here, the caller may resubmit as a new run.
	gen, err := s.generator.Generate(ctx, r.Question(), r.Passages())
	if err != nil {
		s.failStep(r, sp, run.StateGenerating, domain.ErrGeneration, err)
		return
	}
	if gen.Answer == "" {
		s.failStep(r, sp, run.StateGenerating, domain.ErrGeneration, errors.New("provider returned empty answer"))
		return
	}

	m := trace.Metrics{
		PromptTokens:     gen.PromptTokens,
		CompletionTokens: gen.CompletionTokens,
		HasTokens:        gen.HasUsage,
	}
	if gen.HasUsage {
		metrics.GenerationTokensTotal.WithLabelValues("prompt").Add(float64(gen.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues("completion").Add(float64(gen.CompletionTokens))
	}
	s.endStep(sp, run.StateGenerating, trace.OutcomeOK, m)

	r.SetAnswer(gen.Answer)
	_ = r.Transition(run.StateDone)
}

func (s *Service) endStep(sp *trace.Span, state run.State, outcome trace.Outcome, m trace.Metrics) {
	metrics.StepDuration.WithLabelValues(string(state)).Observe(sp.Elapsed().Seconds())
	sp.End(outcome, m)
	metrics.StepOutcomesTotal.WithLabelValues(string(state), string(outcome)).Inc()
}

func (s *Service) failStep(r *run.Run, sp *trace.Span, state run.State, sentinel, cause error) {
	s.endStep(sp, state, trace.OutcomeError, trace.Metrics{})
	_ = r.Fail(domain.NewStepError(string(state), sentinel, cause))
	s.logger.Error("orchestration step failed",
		zap.String("run_id", r.ID()),
		zap.String("step", string(state)),
		zap.Error(cause),
	)
}

func (s *Service) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
