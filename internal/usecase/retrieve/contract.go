package retrieve

import (
	"context"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/search/filter"
	"github.com/veredito/juris/internal/domain/search/result"
)

// Repository defines the vector index contract for retrieval.
type Repository interface {
	SearchKNN(
		ctx context.Context, vector []float32, filters filter.Expression, topK int,
	) ([]result.Passage, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
