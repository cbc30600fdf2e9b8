// Package ingest normalizes raw documents and writes them to the passage
// index.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain/document"
	"github.com/veredito/juris/internal/domain/metadata"
	"github.com/veredito/juris/internal/metrics"
)

// RawDocument is an already-extracted passage with its raw string metadata.
// ID is optional; a random one is assigned when absent.
type RawDocument struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Service normalizes and indexes raw documents.
type Service struct {
	normalizer *metadata.Normalizer
	repo       Repository
	embed      Embedder
	logger     *zap.Logger
}

// New creates an ingestion service.
func New(normalizer *metadata.Normalizer, repo Repository, embed Embedder, logger *zap.Logger) *Service {
	return &Service{normalizer: normalizer, repo: repo, embed: embed, logger: logger}
}

// Ingest normalizes raw metadata, embeds the text, and upserts the record.
// Field-level normalization failures are recoverable: the field is dropped,
// the record is flagged, and ingestion proceeds. Re-ingesting an identical
// raw document yields identical metadata.
func (s *Service) Ingest(ctx context.Context, raw RawDocument) (document.Record, error) {
	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	norm := s.normalizer.Normalize(raw.Metadata)
	droppedNames := make([]string, 0, len(norm.Dropped))
	for _, d := range norm.Dropped {
		droppedNames = append(droppedNames, d.Field)
		s.logger.Warn("metadata field dropped during normalization",
			zap.String("document_id", id),
			zap.String("field", d.Field),
			zap.Error(d.Err),
		)
	}

	rec, err := document.New(id, raw.Text, norm.Tags, norm.Numerics, droppedNames)
	if err != nil {
		metrics.IngestedDocumentsTotal.WithLabelValues("rejected").Inc()
		return document.Record{}, fmt.Errorf("build record: %w", err)
	}

	embResult, err := s.embed.Embed(ctx, rec.Text())
	if err != nil {
		metrics.IngestedDocumentsTotal.WithLabelValues("failed").Inc()
		return document.Record{}, fmt.Errorf("embed passage: %w", err)
	}

	if err := s.repo.Upsert(ctx, rec, embResult.Embedding); err != nil {
		metrics.IngestedDocumentsTotal.WithLabelValues("failed").Inc()
		return document.Record{}, fmt.Errorf("index passage: %w", err)
	}

	status := "ok"
	if rec.Flagged() {
		status = "flagged"
	}
	metrics.IngestedDocumentsTotal.WithLabelValues(status).Inc()

	return rec, nil
}

// Fetch reads an indexed record by ID.
func (s *Service) Fetch(ctx context.Context, id string) (document.Record, error) {
	return s.repo.Get(ctx, id)
}

// Remove deletes an indexed record by ID.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
