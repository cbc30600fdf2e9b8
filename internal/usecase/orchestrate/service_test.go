package orchestrate

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/run"
	"github.com/veredito/juris/internal/domain/search/constraint"
	"github.com/veredito/juris/internal/domain/search/filter"
	"github.com/veredito/juris/internal/domain/search/request"
	"github.com/veredito/juris/internal/domain/search/result"
	"github.com/veredito/juris/internal/trace"
	"github.com/veredito/juris/internal/usecase/plan"
)

type stubPlanner struct {
	plan  plan.Plan
	err   error
	calls int
}

func (s *stubPlanner) Plan(context.Context, string) (plan.Plan, error) {
	s.calls++
	return s.plan, s.err
}

type stubRetriever struct {
	passages []result.Passage
	errs     []error // consumed per call; nil entry means success
	calls    int
}

func (s *stubRetriever) Retrieve(context.Context, *request.Request) ([]result.Passage, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.passages, nil
}

type stubGenerator struct {
	result      domain.GenerationResult
	err         error
	calls       int
	gotPassages []result.Passage
}

func (s *stubGenerator) Generate(_ context.Context, _ string, passages []result.Passage) (domain.GenerationResult, error) {
	s.calls++
	s.gotPassages = passages
	return s.result, s.err
}

type nopSink struct{}

func (nopSink) Record(trace.Event) {}

func okPlan(t *testing.T) plan.Plan {
	t.Helper()
	req, err := request.New("sumulas sobre licitacao", nil, filter.Expression{}, 10)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return plan.Plan{Request: req}
}

func newService(t *testing.T, p *stubPlanner, r *stubRetriever, g *stubGenerator) (*Service, *trace.Tracer) {
	t.Helper()
	tr := trace.New(nopSink{}, 64, zap.NewNop(), nil)
	t.Cleanup(tr.Close)
	return New(p, r, g, tr, Config{}, zap.NewNop()), tr
}

// countSteps tallies end events per step name.
func countSteps(events []trace.Event, step string, phase trace.Phase) int {
	n := 0
	for _, ev := range events {
		if ev.Step == step && ev.Phase == phase {
			n++
		}
	}
	return n
}

func TestRun_HappyPath(t *testing.T) {
	planner := &stubPlanner{plan: okPlan(t)}
	retriever := &stubRetriever{passages: []result.Passage{
		result.New("p1", 0.9, "texto", map[string]string{"num_sumula": "70"}, nil),
	}}
	generator := &stubGenerator{result: domain.GenerationResult{
		Answer: "A sumula 70 dispoe...", PromptTokens: 100, CompletionTokens: 30, HasUsage: true,
	}}
	svc, _ := newService(t, planner, retriever, generator)

	r, err := svc.Run(context.Background(), "o que diz a sumula 70?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.State() != run.StateDone {
		t.Errorf("expected DONE, got %s", r.State())
	}
	if r.Answer() != "A sumula 70 dispoe..." {
		t.Errorf("unexpected answer %q", r.Answer())
	}
	if len(r.Passages()) != 1 {
		t.Errorf("expected passages attached, got %d", len(r.Passages()))
	}
	if retriever.calls != 1 {
		t.Errorf("expected 1 retrieval call, got %d", retriever.calls)
	}

	events := r.Events()
	for _, step := range []string{
		trace.RootStep, "PLANNING", "RETRIEVING", "HAS_RESULTS", "GENERATING",
	} {
		if countSteps(events, step, trace.PhaseStart) != 1 || countSteps(events, step, trace.PhaseEnd) != 1 {
			t.Errorf("expected one start/end pair for %s", step)
		}
	}
}

func TestRun_EmptyResultStillAnswers(t *testing.T) {
	planner := &stubPlanner{plan: okPlan(t)}
	retriever := &stubRetriever{passages: nil}
	generator := &stubGenerator{result: domain.GenerationResult{
		Answer: "Nenhuma sumula corresponde aos criterios informados.",
	}}
	svc, _ := newService(t, planner, retriever, generator)

	r, err := svc.Run(context.Background(), "sumulas de 1800?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.State() != run.StateDone {
		t.Errorf("expected DONE, got %s", r.State())
	}
	if generator.calls != 1 {
		t.Fatal("generator must run with the no-context marker")
	}
	if generator.gotPassages != nil {
		t.Errorf("expected nil passages as no-context marker, got %v", generator.gotPassages)
	}

	events := r.Events()
	if countSteps(events, "EMPTY_RESULT", trace.PhaseEnd) != 1 {
		t.Error("expected EMPTY_RESULT span")
	}
	if countSteps(events, "HAS_RESULTS", trace.PhaseStart) != 0 {
		t.Error("HAS_RESULTS must not appear on the empty path")
	}
}

func TestRun_RetrievalRetriesOnce(t *testing.T) {
	planner := &stubPlanner{plan: okPlan(t)}
	retriever := &stubRetriever{
		errs:     []error{errors.New("transient index error"), nil},
		passages: []result.Passage{result.New("p1", 0.8, "texto", nil, nil)},
	}
	generator := &stubGenerator{result: domain.GenerationResult{Answer: "resposta"}}
	svc, _ := newService(t, planner, retriever, generator)

	r, err := svc.Run(context.Background(), "pergunta")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}

	if r.State() != run.StateDone {
		t.Errorf("expected DONE, got %s", r.State())
	}
	if retriever.calls != 2 {
		t.Errorf("expected 2 retrieval calls, got %d", retriever.calls)
	}

	// One RETRIEVING span pair per attempt: failed first, successful second.
	events := r.Events()
	if got := countSteps(events, "RETRIEVING", trace.PhaseEnd); got != 2 {
		t.Fatalf("expected 2 RETRIEVING end events, got %d", got)
	}
	var outcomes []trace.Outcome
	for _, ev := range events {
		if ev.Step == "RETRIEVING" && ev.Phase == trace.PhaseEnd {
			outcomes = append(outcomes, ev.Outcome)
		}
	}
	if outcomes[0] != trace.OutcomeError || outcomes[1] != trace.OutcomeOK {
		t.Errorf("expected error then ok, got %v", outcomes)
	}
}

func TestRun_RetrievalFailsAfterRetry(t *testing.T) {
	indexErr := errors.New("index down")
	planner := &stubPlanner{plan: okPlan(t)}
	retriever := &stubRetriever{errs: []error{indexErr, indexErr}}
	generator := &stubGenerator{}
	svc, _ := newService(t, planner, retriever, generator)

	r, err := svc.Run(context.Background(), "pergunta")
	if err == nil {
		t.Fatal("expected error")
	}

	if r.State() != run.StateFailed {
		t.Errorf("expected FAILED, got %s", r.State())
	}
	if retriever.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", retriever.calls)
	}
	if generator.calls != 0 {
		t.Error("generation must not run after retrieval failure")
	}

	var stepErr *domain.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != "RETRIEVING" || !errors.Is(err, domain.ErrRetrieval) {
		t.Errorf("unexpected step error: %+v", stepErr)
	}
}

func TestRun_PlanningFailure(t *testing.T) {
	planErr := errors.New("extractor unavailable")
	planner := &stubPlanner{err: planErr}
	retriever := &stubRetriever{}
	svc, _ := newService(t, planner, retriever, &stubGenerator{})

	r, err := svc.Run(context.Background(), "pergunta")
	if err == nil {
		t.Fatal("expected error")
	}
	if r.State() != run.StateFailed {
		t.Errorf("expected FAILED, got %s", r.State())
	}
	if !errors.Is(err, domain.ErrPlanning) {
		t.Errorf("expected ErrPlanning, got %v", err)
	}
	if retriever.calls != 0 {
		t.Error("retrieval must not run after planning failure")
	}
}

func TestRun_GenerationFailureIsNotRetried(t *testing.T) {
	genErr := errors.New("model overloaded")
	planner := &stubPlanner{plan: okPlan(t)}
	retriever := &stubRetriever{passages: []result.Passage{result.New("p1", 0.9, "t", nil, nil)}}
	generator := &stubGenerator{err: genErr}
	svc, _ := newService(t, planner, retriever, generator)

	r, err := svc.Run(context.Background(), "pergunta")
	if err == nil {
		t.Fatal("expected error")
	}

	if r.State() != run.StateFailed {
		t.Errorf("expected FAILED, got %s", r.State())
	}
	if generator.calls != 1 {
		t.Errorf("generation must not be retried, got %d calls", generator.calls)
	}
	var stepErr *domain.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != "GENERATING" || !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("unexpected step error: %+v", stepErr)
	}
	// A failed run carries no answer.
	if r.Answer() != "" {
		t.Errorf("failed run must not carry an answer, got %q", r.Answer())
	}
}

func TestRun_EmptyAnswerIsFailure(t *testing.T) {
	planner := &stubPlanner{plan: okPlan(t)}
	retriever := &stubRetriever{passages: []result.Passage{result.New("p1", 0.9, "t", nil, nil)}}
	generator := &stubGenerator{result: domain.GenerationResult{Answer: ""}}
	svc, _ := newService(t, planner, retriever, generator)

	r, err := svc.Run(context.Background(), "pergunta")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if r.State() != run.StateFailed {
		t.Errorf("expected FAILED, got %s", r.State())
	}
}

func TestRun_DegradedPlanVisibleInTrace(t *testing.T) {
	p := okPlan(t)
	c, err := constraint.New("status_atual", constraint.Eq, "SUSPENSA")
	if err != nil {
		t.Fatalf("constraint.New: %v", err)
	}
	p.Dropped = append(p.Dropped, c)

	planner := &stubPlanner{plan: p}
	retriever := &stubRetriever{passages: []result.Passage{result.New("p1", 0.9, "t", nil, nil)}}
	generator := &stubGenerator{result: domain.GenerationResult{Answer: "resposta"}}
	svc, _ := newService(t, planner, retriever, generator)

	r, err := svc.Run(context.Background(), "pergunta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, ev := range r.Events() {
		if ev.Step == "PLANNING" && ev.Phase == trace.PhaseEnd {
			if ev.Outcome != trace.OutcomeDegraded {
				t.Errorf("expected degraded outcome, got %s", ev.Outcome)
			}
			if ev.Attrs["constraints_stripped"] != "1" {
				t.Errorf("expected stripped count attr, got %v", ev.Attrs)
			}
			return
		}
	}
	t.Fatal("PLANNING end event not found")
}

func TestRun_RootSpanOutcome(t *testing.T) {
	planner := &stubPlanner{plan: okPlan(t)}
	generator := &stubGenerator{result: domain.GenerationResult{Answer: "resposta"}}

	okSvc, _ := newService(t, planner, &stubRetriever{
		passages: []result.Passage{result.New("p1", 0.9, "t", nil, nil)},
	}, generator)
	r, err := okSvc.Run(context.Background(), "pergunta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rootOutcome(r.Events()); got != trace.OutcomeOK {
		t.Errorf("expected ok root outcome, got %s", got)
	}

	failErr := errors.New("down")
	failSvc, _ := newService(t, &stubPlanner{err: failErr}, &stubRetriever{}, &stubGenerator{})
	r, _ = failSvc.Run(context.Background(), "pergunta")
	if got := rootOutcome(r.Events()); got != trace.OutcomeError {
		t.Errorf("expected error root outcome, got %s", got)
	}
}

func rootOutcome(events []trace.Event) trace.Outcome {
	for _, ev := range events {
		if ev.Step == trace.RootStep && ev.Phase == trace.PhaseEnd {
			return ev.Outcome
		}
	}
	return ""
}
