// Package plan turns a user question into a validated retrieval request:
// semantic query text plus a schema-checked conjunctive filter.
package plan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain/schema"
	"github.com/veredito/juris/internal/domain/search/constraint"
	"github.com/veredito/juris/internal/domain/search/filter"
	"github.com/veredito/juris/internal/domain/search/request"
)

// Plan is a planned retrieval request. Dropped lists constraints the
// extractor produced but the schema rejected; a non-empty list means the
// planner fell back to the valid subset (degraded, observable in the trace).
type Plan struct {
	Request request.Request
	Dropped []constraint.Constraint
}

// Service is the query planner.
type Service struct {
	extractor Extractor
	schema    schema.Schema
	topK      int
	logger    *zap.Logger
}

// New creates a planner. topK comes from configuration; request.New enforces
// that it is never zero.
func New(extractor Extractor, s schema.Schema, topK int, logger *zap.Logger) *Service {
	return &Service{extractor: extractor, schema: s, topK: topK, logger: logger}
}

// Plan extracts constraints from the question and translates them into a
// filter. If translation rejects the set, the planner retries once with the
// invalid constraints stripped: a degraded-but-useful retrieval beats none.
// Extractor failure is unrecoverable here and surfaces to the caller.
func (s *Service) Plan(ctx context.Context, question string) (Plan, error) {
	ext, err := s.extractor.Extract(ctx, question, s.schema)
	if err != nil {
		return Plan{}, fmt.Errorf("extract constraints: %w", err)
	}

	semanticText := ext.SemanticText
	if semanticText == "" {
		semanticText = question
	}

	kept := ext.Constraints
	var dropped []constraint.Constraint

	expr, err := filter.Translate(kept, s.schema)
	if err != nil {
		kept, dropped = s.splitValid(ext.Constraints)
		s.logger.Warn("constraint set rejected, retrying with valid subset",
			zap.Error(err),
			zap.Int("kept", len(kept)),
			zap.Int("dropped", len(dropped)),
		)
		expr, err = filter.Translate(kept, s.schema)
		if err != nil {
			return Plan{}, fmt.Errorf("translate stripped constraints: %w", err)
		}
	}

	req, err := request.New(semanticText, kept, expr, s.topK)
	if err != nil {
		return Plan{}, fmt.Errorf("build retrieval request: %w", err)
	}

	return Plan{Request: req, Dropped: dropped}, nil
}

// splitValid partitions constraints by whether they translate individually.
func (s *Service) splitValid(constraints []constraint.Constraint) (valid, dropped []constraint.Constraint) {
	for _, c := range constraints {
		if _, err := filter.Translate([]constraint.Constraint{c}, s.schema); err != nil {
			dropped = append(dropped, c)
			continue
		}
		valid = append(valid, c)
	}
	return valid, dropped
}
