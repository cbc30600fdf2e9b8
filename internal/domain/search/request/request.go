// Package request models a validated retrieval request: semantic query text
// plus a translated attribute filter.
package request

import (
	"fmt"

	"github.com/veredito/juris/internal/domain/search/constraint"
	"github.com/veredito/juris/internal/domain/search/filter"
)

// Retrieval parameter limits.
const (
	// MaxQueryLength is the maximum allowed semantic query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 100
)

// Request is a validated retrieval request.
type Request struct {
	semanticText string
	constraints  []constraint.Constraint
	filters      filter.Expression
	topK         int
}

// New validates and normalizes retrieval parameters. The constraint list is
// the pre-translation form, kept in extraction order for trace readability;
// filters is its translated conjunctive predicate. topK defaults to 10 and is
// clamped to 100 — it is never zero.
func New(
	semanticText string,
	constraints []constraint.Constraint,
	filters filter.Expression,
	topK int,
) (Request, error) {
	if semanticText == "" {
		return Request{}, fmt.Errorf("semantic query text is required")
	}
	if len(semanticText) > MaxQueryLength {
		return Request{}, fmt.Errorf("semantic query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return Request{
		semanticText: semanticText,
		constraints:  constraints,
		filters:      filters,
		topK:         topK,
	}, nil
}

// SemanticText returns the semantic query text.
func (r *Request) SemanticText() string { return r.semanticText }

// Constraints returns the extracted constraints in extraction order.
func (r *Request) Constraints() []constraint.Constraint { return r.constraints }

// Filters returns the translated conjunctive filter.
func (r *Request) Filters() filter.Expression { return r.filters }

// TopK returns the number of passages to retrieve.
func (r *Request) TopK() int { return r.topK }
