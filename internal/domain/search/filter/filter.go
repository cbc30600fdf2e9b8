// Package filter models the structured predicate handed to the vector index.
// Expressions are strictly conjunctive: every condition must hold. OR and NOT
// composition is deliberately unsupported.
package filter

import (
	"fmt"
	"strings"
)

// MaxConditions is the maximum number of conditions per expression.
const MaxConditions = 32

// Expression is a conjunctive structured filter.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates a conjunctive Expression.
func NewExpression(conditions []Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the conditions, all of which must hold.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Render formats the expression for traces and API responses.
func (e Expression) Render() string {
	if e.IsEmpty() {
		return "no filter"
	}
	parts := make([]string, 0, len(e.conditions))
	for _, c := range e.conditions {
		parts = append(parts, c.render())
	}
	return strings.Join(parts, " AND ")
}

// Condition is a single filter clause: either an exact tag match or an
// integer range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// NewMatch creates an exact match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates an integer range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the attribute name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the integer range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

func (c Condition) render() string {
	if c.IsRange() {
		return c.rangeExpr.render(c.key)
	}
	return fmt.Sprintf("%s = %q", c.key, c.match)
}

// Range is an integer range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *int64
	gte *int64
	lt  *int64
	lte *int64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *int64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// Exact creates a degenerate range matching a single integer value.
func Exact(v int64) Range {
	return Range{gte: &v, lte: &v}
}

// GT returns the lower exclusive bound.
func (r Range) GT() *int64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *int64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *int64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *int64 { return r.lte }

func (r Range) render(key string) string {
	if r.gte != nil && r.lte != nil && *r.gte == *r.lte {
		return fmt.Sprintf("%s = %d", key, *r.gte)
	}
	var parts []string
	if r.gt != nil {
		parts = append(parts, fmt.Sprintf("%s > %d", key, *r.gt))
	}
	if r.gte != nil {
		parts = append(parts, fmt.Sprintf("%s >= %d", key, *r.gte))
	}
	if r.lt != nil {
		parts = append(parts, fmt.Sprintf("%s < %d", key, *r.lt))
	}
	if r.lte != nil {
		parts = append(parts, fmt.Sprintf("%s <= %d", key, *r.lte))
	}
	return strings.Join(parts, " AND ")
}
