package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/veredito/juris/internal/domain"
	"github.com/veredito/juris/internal/domain/search/constraint"
	"github.com/veredito/juris/internal/domain/schema"
)

func testSchema(t *testing.T) schema.Schema {
	t.Helper()
	mk := func(name string, typ schema.Type, values []string, yearOf string) schema.Attribute {
		a, err := schema.NewAttribute(name, typ, "", values, yearOf)
		if err != nil {
			t.Fatalf("NewAttribute(%s): %v", name, err)
		}
		return a
	}
	s, err := schema.New([]schema.Attribute{
		mk("num_sumula", schema.String, nil, ""),
		mk("status_atual", schema.Enum, []string{"VIGENTE", "REVOGADA"}, ""),
		mk("data_status_ano", schema.Integer, nil, "data_status"),
		mk("chunk_index", schema.Integer, nil, ""),
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func mustConstraint(t *testing.T, attr string, op constraint.Operator, value string) constraint.Constraint {
	t.Helper()
	c, err := constraint.New(attr, op, value)
	if err != nil {
		t.Fatalf("constraint.New(%s): %v", attr, err)
	}
	return c
}

func TestTranslate_Conjunction(t *testing.T) {
	s := testSchema(t)
	expr, err := Translate([]constraint.Constraint{
		mustConstraint(t, "data_status_ano", constraint.Gte, "2010"),
		mustConstraint(t, "status_atual", constraint.Eq, "vigente"),
	}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conds := expr.Conditions()
	if len(conds) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conds))
	}
	if !conds[0].IsRange() || conds[0].Key() != "data_status_ano" {
		t.Errorf("expected range on data_status_ano, got %+v", conds[0])
	}
	if got := *conds[0].Range().GTE(); got != 2010 {
		t.Errorf("expected gte 2010, got %d", got)
	}
	// Enum values are canonicalized during translation
	if conds[1].Match() != "VIGENTE" {
		t.Errorf("expected canonical enum value, got %q", conds[1].Match())
	}
}

func TestTranslate_EqOnInteger(t *testing.T) {
	s := testSchema(t)
	expr, err := Translate([]constraint.Constraint{
		mustConstraint(t, "data_status_ano", constraint.Eq, "2014"),
	}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := expr.Conditions()[0].Range()
	if r == nil || *r.GTE() != 2014 || *r.LTE() != 2014 {
		t.Errorf("expected degenerate range 2014, got %+v", r)
	}
}

func TestTranslate_ComparisonOperators(t *testing.T) {
	s := testSchema(t)
	tests := []struct {
		op    constraint.Operator
		check func(r *Range) bool
	}{
		{constraint.Lt, func(r *Range) bool { return r.LT() != nil && *r.LT() == 2015 }},
		{constraint.Lte, func(r *Range) bool { return r.LTE() != nil && *r.LTE() == 2015 }},
		{constraint.Gt, func(r *Range) bool { return r.GT() != nil && *r.GT() == 2015 }},
		{constraint.Gte, func(r *Range) bool { return r.GTE() != nil && *r.GTE() == 2015 }},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			expr, err := Translate([]constraint.Constraint{
				mustConstraint(t, "data_status_ano", tt.op, "2015"),
			}, s)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(expr.Conditions()[0].Range()) {
				t.Errorf("wrong boundary for %s", tt.op)
			}
		})
	}
}

func TestTranslate_UnknownAttribute(t *testing.T) {
	s := testSchema(t)
	_, err := Translate([]constraint.Constraint{
		mustConstraint(t, "relator", constraint.Eq, "fulano"),
	}, s)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrTranslation) {
		t.Errorf("expected ErrTranslation, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown attribute") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTranslate_ComparisonOnString(t *testing.T) {
	s := testSchema(t)
	_, err := Translate([]constraint.Constraint{
		mustConstraint(t, "num_sumula", constraint.Gt, "50"),
	}, s)
	if err == nil {
		t.Fatal("expected error")
	}

	var opErr *domain.UnsupportedOperatorError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected UnsupportedOperatorError, got %v", err)
	}
	if opErr.Attribute != "num_sumula" || opErr.Operator != "gt" {
		t.Errorf("unexpected fields: %+v", opErr)
	}
	if !errors.Is(err, domain.ErrTranslation) {
		t.Error("UnsupportedOperatorError must unwrap to ErrTranslation")
	}
}

func TestTranslate_ComparisonOnEnum(t *testing.T) {
	s := testSchema(t)
	_, err := Translate([]constraint.Constraint{
		mustConstraint(t, "status_atual", constraint.Lte, "VIGENTE"),
	}, s)
	var opErr *domain.UnsupportedOperatorError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected UnsupportedOperatorError, got %v", err)
	}
}

func TestTranslate_BadEnumValue(t *testing.T) {
	s := testSchema(t)
	_, err := Translate([]constraint.Constraint{
		mustConstraint(t, "status_atual", constraint.Eq, "SUSPENSA"),
	}, s)
	if !errors.Is(err, domain.ErrTranslation) {
		t.Fatalf("expected ErrTranslation, got %v", err)
	}
	if !strings.Contains(err.Error(), "not allowed for enum") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTranslate_NonIntegerValue(t *testing.T) {
	s := testSchema(t)
	_, err := Translate([]constraint.Constraint{
		mustConstraint(t, "data_status_ano", constraint.Gte, "dois mil e dez"),
	}, s)
	if !errors.Is(err, domain.ErrTranslation) {
		t.Fatalf("expected ErrTranslation, got %v", err)
	}
	if !strings.Contains(err.Error(), "requires an integer") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTranslate_OneInvalidFailsAll(t *testing.T) {
	// Translation is all-or-nothing: callers decide whether to strip and
	// retry, a partially applied filter is never produced silently.
	s := testSchema(t)
	_, err := Translate([]constraint.Constraint{
		mustConstraint(t, "status_atual", constraint.Eq, "VIGENTE"),
		mustConstraint(t, "relator", constraint.Eq, "fulano"),
	}, s)
	if !errors.Is(err, domain.ErrTranslation) {
		t.Fatalf("expected ErrTranslation, got %v", err)
	}
}

func TestTranslate_Empty(t *testing.T) {
	s := testSchema(t)
	expr, err := Translate(nil, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expr.IsEmpty() {
		t.Error("expected empty expression")
	}
}
