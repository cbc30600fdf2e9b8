// Package metadata normalizes raw document attributes into typed, filterable
// values at ingestion time. Normalization is pure and deterministic: the same
// raw input always produces the same output.
package metadata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/schema"
)

// DefaultCenturyPivot is the two-digit year pivot: YY <= pivot expands to
// 20YY, YY > pivot expands to 19YY. The default matches the corpus (legal
// rulings, none predating 1969).
const DefaultCenturyPivot = 68

// Normalized is the outcome of normalizing one raw metadata mapping.
// Dropped records per-field failures: each entry's Err unwraps to
// domain.ErrNormalization; the field is absent from Tags and Numerics so it
// can never match a filter.
type Normalized struct {
	Tags     map[string]string
	Numerics map[string]int64
	Dropped  []DroppedField
}

// DroppedField is a field omitted during normalization, with its cause.
type DroppedField struct {
	Field string
	Err   error
}

// Normalizer converts raw string attributes into schema-typed metadata.
type Normalizer struct {
	schema       schema.Schema
	centuryPivot int
}

// NewNormalizer creates a Normalizer. A non-positive centuryPivot falls back
// to DefaultCenturyPivot.
func NewNormalizer(s schema.Schema, centuryPivot int) *Normalizer {
	if centuryPivot <= 0 || centuryPivot > 99 {
		centuryPivot = DefaultCenturyPivot
	}
	return &Normalizer{schema: s, centuryPivot: centuryPivot}
}

// Normalize converts raw attributes into typed metadata.
//
// Declared attributes are normalized to their schema type: integers parsed,
// enum values upper-cased and checked against the allowed set, strings passed
// through. Integer attributes declared with a year-of source derive their
// value from the named raw date field (DD/MM/YY or DD/MM/YYYY). Attributes
// absent from the schema are preserved verbatim as opaque tags; they are
// stored but never filter-eligible.
//
// Failures are per-field: the field lands in Dropped and the rest of the
// record proceeds. Normalize itself never fails.
func (n *Normalizer) Normalize(raw map[string]string) Normalized {
	out := Normalized{
		Tags:     make(map[string]string),
		Numerics: make(map[string]int64),
	}

	// Sorted iteration keeps Dropped ordering deterministic across runs.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := raw[name]
		attr, declared := n.schema.AttributeByName(name)
		if !declared {
			// Opaque passthrough. Raw date fields consumed by a derived year
			// attribute land here too, as plain unfilterable strings.
			out.Tags[name] = value
			continue
		}
		n.normalizeDeclared(attr, value, &out)
	}

	// Derived year attributes read their source field from the raw input.
	for _, attr := range n.schema.Attributes() {
		if attr.YearOf() == "" {
			continue
		}
		source, ok := raw[attr.YearOf()]
		if !ok {
			continue
		}
		year, err := n.yearFromDate(source)
		if err != nil {
			out.drop(attr.YearOf(), err)
			delete(out.Tags, attr.YearOf())
			continue
		}
		out.Numerics[attr.Name()] = int64(year)
	}

	return out
}

func (n *Normalizer) normalizeDeclared(attr schema.Attribute, value string, out *Normalized) {
	switch attr.Type() {
	case schema.Integer:
		if attr.YearOf() != "" {
			// Derived attributes are computed from their source field; a raw
			// value under the derived name is ignored in favor of the source.
			return
		}
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			out.drop(attr.Name(), fmt.Errorf("not an integer: %q", value))
			return
		}
		out.Numerics[attr.Name()] = v
	case schema.Enum:
		canonical := strings.ToUpper(strings.TrimSpace(value))
		if !attr.AllowsEnumValue(canonical) {
			out.drop(attr.Name(), fmt.Errorf("value %q not in enum", value))
			return
		}
		out.Tags[attr.Name()] = canonical
	default:
		out.Tags[attr.Name()] = value
	}
}

// yearFromDate extracts a 4-digit year from a DD/MM/YY date string.
// Two-digit years expand via the century pivot: 00..pivot to 20YY,
// pivot+1..99 to 19YY. Four-digit years pass through unchanged.
func (n *Normalizer) yearFromDate(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return 0, fmt.Errorf("date %q is not in DD/MM/YY form", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("date %q has invalid day", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, fmt.Errorf("date %q has invalid month", s)
	}

	yearPart := parts[2]
	year, err := strconv.Atoi(yearPart)
	if err != nil || year < 0 {
		return 0, fmt.Errorf("date %q has invalid year", s)
	}

	switch len(yearPart) {
	case 2:
		if year <= n.centuryPivot {
			return 2000 + year, nil
		}
		return 1900 + year, nil
	case 4:
		return year, nil
	default:
		return 0, fmt.Errorf("date %q has invalid year", s)
	}
}

func (m *Normalized) drop(field string, cause error) {
	m.Dropped = append(m.Dropped, DroppedField{
		Field: field,
		Err:   domain.NewNormalizationError(field, cause),
	})
}
