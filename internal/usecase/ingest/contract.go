package ingest

import (
	"context"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/document"
)

// Repository defines the index storage contract for ingestion.
type Repository interface {
	Upsert(ctx context.Context, rec document.Record, vector []float32) error
	Get(ctx context.Context, id string) (document.Record, error)
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes passage text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
