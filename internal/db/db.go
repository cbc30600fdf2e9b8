// Package db wraps the Redis search commands the passage index needs:
// FT.CREATE, FT.SEARCH with KNN, and hash document storage.
package db

import "github.com/veredito/juris/internal/domain/search/filter"

// IndexFieldType is the index-level type of a field.
type IndexFieldType string

// Index field types.
const (
	IndexFieldTag     IndexFieldType = "tag"
	IndexFieldNumeric IndexFieldType = "numeric"
	IndexFieldVector  IndexFieldType = "vector"
)

// IndexField is one field in an index definition.
type IndexField struct {
	Name string
	Type IndexFieldType

	// Vector fields only (HNSW, FLOAT32, cosine distance).
	VectorDim         int
	VectorM           int
	VectorEFConstruct int
}

// IndexDefinition describes an FT index over hash documents.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// KNNQuery is a vector similarity search with a conjunctive pre-filter.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	Filters      filter.Expression
	K            int
	ReturnFields []string
}

// SearchEntry is one hit with its similarity score and returned fields.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is an ordered FT.SEARCH result.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
