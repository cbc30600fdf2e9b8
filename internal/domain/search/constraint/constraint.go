// Package constraint models a single attribute constraint extracted from a
// user question, before schema validation and filter translation.
package constraint

import "fmt"

// Operator is a constraint comparison operator.
type Operator string

// Supported operators.
const (
	Eq  Operator = "eq"
	Lt  Operator = "lt"
	Lte Operator = "lte"
	Gt  Operator = "gt"
	Gte Operator = "gte"
)

// IsValid reports whether o is a supported operator.
func (o Operator) IsValid() bool {
	switch o {
	case Eq, Lt, Lte, Gt, Gte:
		return true
	}
	return false
}

// IsComparison reports whether o is a range comparison (anything but eq).
func (o Operator) IsComparison() bool { return o.IsValid() && o != Eq }

// symbols for human-readable rendering.
var symbols = map[Operator]string{
	Eq: "=", Lt: "<", Lte: "<=", Gt: ">", Gte: ">=",
}

// Symbol returns the operator's comparison symbol.
func (o Operator) Symbol() string {
	if s, ok := symbols[o]; ok {
		return s
	}
	return string(o)
}

// Constraint is one extracted attribute constraint. Values are carried as
// strings; typed interpretation happens during filter translation against
// the declared schema.
type Constraint struct {
	attribute string
	operator  Operator
	value     string
}

// New validates and creates a Constraint.
func New(attribute string, op Operator, value string) (Constraint, error) {
	if attribute == "" {
		return Constraint{}, fmt.Errorf("constraint attribute is required")
	}
	if !op.IsValid() {
		return Constraint{}, fmt.Errorf("invalid operator %q for attribute %q", op, attribute)
	}
	if value == "" {
		return Constraint{}, fmt.Errorf("constraint value is required for attribute %q", attribute)
	}
	return Constraint{attribute: attribute, operator: op, value: value}, nil
}

// Attribute returns the target attribute name.
func (c Constraint) Attribute() string { return c.attribute }

// Operator returns the comparison operator.
func (c Constraint) Operator() Operator { return c.operator }

// Value returns the untyped constraint value.
func (c Constraint) Value() string { return c.value }

// String renders the constraint for traces and logs.
func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %q", c.attribute, c.operator.Symbol(), c.value)
}
