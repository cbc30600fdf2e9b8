// Package retrieve executes planned retrieval requests against the vector
// index.
package retrieve

import (
	"context"
	"fmt"

	"github.com/veredito/juris/internal/domain/search/request"
	"github.com/veredito/juris/internal/domain/search/result"
)

// Service embeds the semantic query and runs the filtered KNN search.
type Service struct {
	repo  Repository
	embed Embedder
}

// New creates a retrieval service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// Retrieve executes the request and returns passages ranked by descending
// relevance. An empty result is not an error.
func (s *Service) Retrieve(ctx context.Context, req *request.Request) ([]result.Passage, error) {
	embResult, err := s.embed.Embed(ctx, req.SemanticText())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	passages, err := s.repo.SearchKNN(ctx, embResult.Embedding, req.Filters(), req.TopK())
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return passages, nil
}
