// Package document models indexed passage records. Records are created once
// at ingestion and immutable thereafter; replacing one means re-ingesting it.
package document

import (
	"fmt"
	"regexp"
	"sort"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTextSize is the maximum passage text size in bytes.
const MaxTextSize = 163840 // 160KB

// Record is an indexed passage with its normalized metadata.
// Tags hold string-valued attributes (including opaque, non-filterable ones);
// Numerics hold integer attributes, the only ones range filters may target.
// Dropped lists field names removed during normalization (bad dates etc.).
type Record struct {
	id       string
	text     string
	tags     map[string]string
	numerics map[string]int64
	dropped  []string
}

// New validates and creates a Record.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Text: non-empty, max 160KB.
func New(id, text string, tags map[string]string, numerics map[string]int64, dropped []string) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required")
	}
	if len(id) > 256 {
		return Record{}, fmt.Errorf("record ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Record{}, fmt.Errorf("record ID must be alphanumeric with underscores and hyphens")
	}
	if text == "" {
		return Record{}, fmt.Errorf("text is required")
	}
	if len(text) > MaxTextSize {
		return Record{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}

	return Record{
		id:       id,
		text:     text,
		tags:     cloneStringMap(tags),
		numerics: cloneInt64Map(numerics),
		dropped:  append([]string(nil), dropped...),
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id, text string, tags map[string]string, numerics map[string]int64) Record {
	return Record{id: id, text: text, tags: tags, numerics: numerics}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Text returns the passage text.
func (r *Record) Text() string { return r.text }

// Tags returns the string metadata attributes.
func (r *Record) Tags() map[string]string { return r.tags }

// Numerics returns the integer metadata attributes.
func (r *Record) Numerics() map[string]int64 { return r.numerics }

// Dropped returns the names of fields omitted during normalization.
func (r *Record) Dropped() []string { return r.dropped }

// Flagged reports whether any field was dropped during normalization.
func (r *Record) Flagged() bool { return len(r.dropped) > 0 }

// MetadataDigest renders the full metadata deterministically (sorted by
// attribute name). Identical raw input always yields an identical digest.
func (r *Record) MetadataDigest() string {
	keys := make([]string, 0, len(r.tags)+len(r.numerics))
	for k := range r.tags {
		keys = append(keys, k)
	}
	for k := range r.numerics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	digest := ""
	for _, k := range keys {
		if v, ok := r.numerics[k]; ok {
			digest += fmt.Sprintf("%s=%d;", k, v)
			continue
		}
		digest += fmt.Sprintf("%s=%q;", k, r.tags[k])
	}
	return digest
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneInt64Map(m map[string]int64) map[string]int64 {
	if m == nil {
		return nil
	}
	c := make(map[string]int64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
