// Package passage stores and searches indexed passages in Redis hashes
// behind an FT vector index.
package passage

import (
	"context"
	"errors"
	"fmt"

	"github.com/veredito/juris/internal/db"
	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/document"
	"github.com/veredito/juris/internal/domain/schema"
	"github.com/veredito/juris/internal/domain/search/filter"
	"github.com/veredito/juris/internal/domain/search/result"
)

// Config holds index settings for the passage repository.
type Config struct {
	IndexName       string
	KeyPrefix       string
	VectorDim       int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements passage storage and KNN search over a db.Store.
type Repo struct {
	store  *db.Store
	schema schema.Schema
	cfg    Config
}

// NewRepo creates a passage repository.
func NewRepo(store *db.Store, s schema.Schema, cfg Config) *Repo {
	if cfg.IndexName == "" {
		cfg.IndexName = "idx:passages"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "passage:"
	}
	return &Repo{store: store, schema: s, cfg: cfg}
}

// EnsureIndex creates the passage index if absent. The index schema is
// derived from the attribute schema: integer attributes become NUMERIC
// fields, everything else becomes TAG; plus the vector field.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.cfg.IndexName,
		Prefixes: []string{r.cfg.KeyPrefix},
		Fields: []db.IndexField{{
			Name:              "vector",
			Type:              db.IndexFieldVector,
			VectorDim:         r.cfg.VectorDim,
			VectorM:           r.cfg.HNSWM,
			VectorEFConstruct: r.cfg.HNSWEFConstruct,
		}},
	}
	for _, attr := range r.schema.Attributes() {
		ft := db.IndexFieldTag
		if attr.Type() == schema.Integer {
			ft = db.IndexFieldNumeric
		}
		def.Fields = append(def.Fields, db.IndexField{Name: attr.Name(), Type: ft})
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert writes a record and its embedding. Re-ingesting the same ID
// replaces the stored passage.
func (r *Repo) Upsert(ctx context.Context, rec document.Record, vector []float32) error {
	if len(vector) != r.cfg.VectorDim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vector), r.cfg.VectorDim)
	}
	fields := recordToFields(rec, vector)
	if err := r.store.HSet(ctx, r.key(rec.ID()), fields); err != nil {
		return fmt.Errorf("store passage: %w", err)
	}
	return nil
}

// Get reads a stored record by ID.
func (r *Repo) Get(ctx context.Context, id string) (document.Record, error) {
	fields, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return document.Record{}, fmt.Errorf("%w: passage %s", domain.ErrNotFound, id)
		}
		return document.Record{}, fmt.Errorf("read passage: %w", err)
	}
	return fieldsToRecord(id, fields, r.schema), nil
}

// Delete removes a stored passage. Deleting an absent ID is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete passage: %w", err)
	}
	return nil
}

// SearchKNN runs a filtered vector similarity search and maps hits to
// ranked passages.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, topK int,
) ([]result.Passage, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		Vector:       vector,
		Filters:      filters,
		K:            topK,
		ReturnFields: searchReturnFields(r.schema),
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	passages := make([]result.Passage, 0, len(res.Entries))
	for _, entry := range res.Entries {
		passages = append(passages, entryToPassage(entry, r.cfg.KeyPrefix, r.schema))
	}
	return passages, nil
}

func (r *Repo) key(id string) string {
	return r.cfg.KeyPrefix + id
}

// searchReturnFields lists the hash fields a hit must carry back: the text,
// the score, every declared attribute, and the raw source field of each
// derived year. The source fields are not indexed, but callers cite them.
func searchReturnFields(s schema.Schema) []string {
	fields := []string{"text", "__vector_score"}
	for _, attr := range s.Attributes() {
		fields = append(fields, attr.Name())
		if src := attr.YearOf(); src != "" {
			fields = append(fields, src)
		}
	}
	return fields
}
