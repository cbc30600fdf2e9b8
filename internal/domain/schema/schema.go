// Package schema declares the filterable attributes of indexed passages.
// The schema is static: loaded once at startup and shared read-only by
// normalization, filter translation, and constraint extraction.
package schema

import (
	"fmt"
	"strings"
)

// Type is the declared semantic type of a filterable attribute.
type Type string

// Attribute type constants.
const (
	// String is a free-form string attribute (equality only).
	String Type = "string"
	// Integer is a range-comparable integer attribute.
	Integer Type = "integer"
	// Enum is a closed set of string values (equality only).
	Enum Type = "enum"
)

// IsValid reports whether t is a declared attribute type.
func (t Type) IsValid() bool {
	return t == String || t == Integer || t == Enum
}

// reservedNames are attribute names the index claims for itself.
var reservedNames = map[string]bool{
	"id": true, "text": true, "score": true, "vector": true,
}

// Attribute describes one filterable metadata attribute.
type Attribute struct {
	name        string
	attrType    Type
	description string
	enumValues  []string
	yearOf      string
}

// NewAttribute validates and creates an Attribute.
// Enum attributes require at least one allowed value; other types must not
// declare any. yearOf (integer attributes only) names the raw date field the
// attribute's value is derived from during normalization.
func NewAttribute(name string, t Type, description string, enumValues []string, yearOf string) (Attribute, error) {
	if name == "" {
		return Attribute{}, fmt.Errorf("attribute name is required")
	}
	if reservedNames[name] {
		return Attribute{}, fmt.Errorf("attribute name %q is reserved", name)
	}
	if !t.IsValid() {
		return Attribute{}, fmt.Errorf("invalid type %q for attribute %q", t, name)
	}
	if t == Enum && len(enumValues) == 0 {
		return Attribute{}, fmt.Errorf("enum attribute %q requires allowed values", name)
	}
	if t != Enum && len(enumValues) > 0 {
		return Attribute{}, fmt.Errorf("attribute %q is not an enum but declares allowed values", name)
	}
	if yearOf != "" && t != Integer {
		return Attribute{}, fmt.Errorf("attribute %q derives a year but is not integer", name)
	}
	canonical := make([]string, len(enumValues))
	for i, v := range enumValues {
		canonical[i] = strings.ToUpper(v)
	}
	return Attribute{name: name, attrType: t, description: description, enumValues: canonical, yearOf: yearOf}, nil
}

// Name returns the attribute name.
func (a Attribute) Name() string { return a.name }

// Type returns the declared attribute type.
func (a Attribute) Type() Type { return a.attrType }

// Description returns the human-readable description used to guide
// constraint extraction.
func (a Attribute) Description() string { return a.description }

// EnumValues returns the canonical (upper-cased) allowed enum values.
func (a Attribute) EnumValues() []string { return a.enumValues }

// YearOf returns the raw date field this integer attribute is derived from,
// or "" if the attribute is ingested directly.
func (a Attribute) YearOf() string { return a.yearOf }

// Comparable reports whether range operators are legal on this attribute.
// Only integer attributes are range-comparable.
func (a Attribute) Comparable() bool { return a.attrType == Integer }

// AllowsEnumValue reports whether v is an allowed value (case-insensitive).
func (a Attribute) AllowsEnumValue(v string) bool {
	upper := strings.ToUpper(v)
	for _, allowed := range a.enumValues {
		if allowed == upper {
			return true
		}
	}
	return false
}

// Schema is the immutable set of declared attributes.
type Schema struct {
	attrs  []Attribute
	byName map[string]Attribute
}

// New validates and creates a Schema. Attribute names must be unique, and a
// yearOf reference must not collide with a declared attribute name.
func New(attrs []Attribute) (Schema, error) {
	byName := make(map[string]Attribute, len(attrs))
	for _, a := range attrs {
		if _, ok := byName[a.name]; ok {
			return Schema{}, fmt.Errorf("duplicate attribute %q", a.name)
		}
		byName[a.name] = a
	}
	for _, a := range attrs {
		if a.yearOf == "" {
			continue
		}
		if _, ok := byName[a.yearOf]; ok {
			return Schema{}, fmt.Errorf("attribute %q derives year from declared attribute %q", a.name, a.yearOf)
		}
	}
	return Schema{attrs: attrs, byName: byName}, nil
}

// Attributes returns the declared attributes in declaration order.
func (s Schema) Attributes() []Attribute { return s.attrs }

// AttributeByName looks up an attribute by name.
func (s Schema) AttributeByName(name string) (Attribute, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// Len returns the number of declared attributes.
func (s Schema) Len() int { return len(s.attrs) }
