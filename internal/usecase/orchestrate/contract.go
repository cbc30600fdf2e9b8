package orchestrate

import (
	"context"
	"time"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/search/request"
	"github.com/veredito/juris/internal/domain/search/result"
	"github.com/veredito/juris/internal/usecase/plan"
)

// Planner produces a retrieval request from a user question.
type Planner interface {
	Plan(ctx context.Context, question string) (plan.Plan, error)
}

// Retriever executes a retrieval request against the vector index.
type Retriever interface {
	Retrieve(ctx context.Context, req *request.Request) ([]result.Passage, error)
}

// Generator synthesizes the final answer. An empty passage slice is the
// explicit no-context marker: the generator must state that nothing matched
// rather than invent an answer.
type Generator interface {
	Generate(ctx context.Context, question string, passages []result.Passage) (domain.GenerationResult, error)
}

// Config holds per-step timeouts. A zero timeout disables the deadline for
// that step. The timeout is the only cancellation mechanism: an expired step
// is treated as failed under the state machine's retry rules.
type Config struct {
	PlanningTimeout   time.Duration
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
}
