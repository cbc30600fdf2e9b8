// Package result models ranked passages returned by the vector index.
package result

// Passage is a single retrieval hit, ordered by descending relevance score.
type Passage struct {
	id       string
	score    float64
	text     string
	tags     map[string]string
	numerics map[string]int64
}

// New creates a retrieval hit.
func New(id string, score float64, text string, tags map[string]string, numerics map[string]int64) Passage {
	return Passage{id: id, score: score, text: text, tags: tags, numerics: numerics}
}

// ID returns the passage identifier.
func (p *Passage) ID() string { return p.id }

// Score returns the relevance score.
func (p *Passage) Score() float64 { return p.score }

// Text returns the passage content.
func (p *Passage) Text() string { return p.text }

// Tags returns the passage string metadata.
func (p *Passage) Tags() map[string]string { return p.tags }

// Numerics returns the passage integer metadata.
func (p *Passage) Numerics() map[string]int64 { return p.numerics }

// Tag returns a single string metadata value, or "" when absent.
func (p *Passage) Tag(key string) string { return p.tags[key] }
