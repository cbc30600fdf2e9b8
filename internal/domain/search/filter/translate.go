package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/search/constraint"
	"github.com/veredito/juris/internal/domain/schema"
)

// Translate converts extracted constraints into a conjunctive Expression,
// validating each against the declared schema. Any invalid constraint fails
// the whole translation: callers must decide explicitly whether to strip
// filters, never get a silently degraded predicate.
func Translate(constraints []constraint.Constraint, s schema.Schema) (Expression, error) {
	conditions := make([]Condition, 0, len(constraints))
	for _, c := range constraints {
		cond, err := translateOne(c, s)
		if err != nil {
			return Expression{}, err
		}
		conditions = append(conditions, cond)
	}
	return NewExpression(conditions)
}

func translateOne(c constraint.Constraint, s schema.Schema) (Condition, error) {
	attr, ok := s.AttributeByName(c.Attribute())
	if !ok {
		return Condition{}, fmt.Errorf("%w: unknown attribute %q", domain.ErrTranslation, c.Attribute())
	}

	if c.Operator().IsComparison() && !attr.Comparable() {
		return Condition{}, &domain.UnsupportedOperatorError{
			Attribute: attr.Name(),
			Operator:  string(c.Operator()),
		}
	}

	switch attr.Type() {
	case schema.Integer:
		return translateInteger(c, attr)
	case schema.Enum:
		value := strings.ToUpper(c.Value())
		if !attr.AllowsEnumValue(value) {
			return Condition{}, fmt.Errorf("%w: value %q not allowed for enum attribute %q",
				domain.ErrTranslation, c.Value(), attr.Name())
		}
		return NewMatch(attr.Name(), value)
	default:
		return NewMatch(attr.Name(), c.Value())
	}
}

func translateInteger(c constraint.Constraint, attr schema.Attribute) (Condition, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(c.Value()), 10, 64)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: attribute %q requires an integer value, got %q",
			domain.ErrTranslation, attr.Name(), c.Value())
	}

	var r Range
	switch c.Operator() {
	case constraint.Eq:
		r = Exact(v)
	case constraint.Lt:
		r, err = NewRangeFilter(nil, nil, &v, nil)
	case constraint.Lte:
		r, err = NewRangeFilter(nil, nil, nil, &v)
	case constraint.Gt:
		r, err = NewRangeFilter(&v, nil, nil, nil)
	case constraint.Gte:
		r, err = NewRangeFilter(nil, &v, nil, nil)
	default:
		return Condition{}, &domain.UnsupportedOperatorError{
			Attribute: attr.Name(),
			Operator:  string(c.Operator()),
		}
	}
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %v", domain.ErrTranslation, err)
	}
	return NewRange(attr.Name(), r)
}
