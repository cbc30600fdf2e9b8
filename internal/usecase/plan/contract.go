package plan

import (
	"context"

	"github.com/veredito/juris/internal/domain/schema"
	"github.com/veredito/juris/internal/domain/search/constraint"
)

// Extraction is the raw output of the natural-language constraint extractor:
// the semantic search text it distilled from the question (may equal the
// question) and zero or more attribute constraints it inferred.
type Extraction struct {
	SemanticText string
	Constraints  []constraint.Constraint
}

// Extractor is the external natural-language constraint extractor. Its output
// is untrusted: the planner validates every constraint against the schema
// before anything reaches the index.
type Extractor interface {
	Extract(ctx context.Context, question string, s schema.Schema) (Extraction, error)
}
