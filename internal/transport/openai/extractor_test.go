package openai

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain/schema"
	"github.com/veredito/juris/internal/domain/search/constraint"
)

func testExtractor() *Extractor {
	return &Extractor{logger: zap.NewNop()}
}

func TestParse_FullPlan(t *testing.T) {
	ext, err := testExtractor().parse(`{
		"semantic_text": "sumulas sobre licitacao",
		"constraints": [
			{"attribute": "status_atual", "operator": "eq", "value": "VIGENTE"},
			{"attribute": "data_status_ano", "operator": "gte", "value": 2010}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ext.SemanticText != "sumulas sobre licitacao" {
		t.Errorf("unexpected semantic text %q", ext.SemanticText)
	}
	if len(ext.Constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(ext.Constraints))
	}
	if ext.Constraints[0].Attribute() != "status_atual" || ext.Constraints[0].Operator() != constraint.Eq {
		t.Errorf("first constraint mismatch: %v", ext.Constraints[0])
	}
	// Numeric JSON values are accepted and carried as strings.
	if ext.Constraints[1].Value() != "2010" {
		t.Errorf("expected numeric value as string, got %q", ext.Constraints[1].Value())
	}
}

func TestParse_SkipsMalformedConstraints(t *testing.T) {
	ext, err := testExtractor().parse(`{
		"semantic_text": "texto",
		"constraints": [
			{"attribute": "", "operator": "eq", "value": "x"},
			{"attribute": "a", "operator": "between", "value": "x"},
			{"attribute": "status_atual", "operator": "eq", "value": "VIGENTE"}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ext.Constraints) != 1 {
		t.Fatalf("expected only the valid constraint, got %d", len(ext.Constraints))
	}
	if ext.Constraints[0].Attribute() != "status_atual" {
		t.Errorf("unexpected surviving constraint: %v", ext.Constraints[0])
	}
}

func TestParse_CodeFences(t *testing.T) {
	ext, err := testExtractor().parse("```json\n{\"semantic_text\": \"texto\", \"constraints\": []}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ext.SemanticText != "texto" {
		t.Errorf("unexpected semantic text %q", ext.SemanticText)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := testExtractor().parse("not json at all")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse extraction response") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_EmptyConstraints(t *testing.T) {
	ext, err := testExtractor().parse(`{"semantic_text": "so busca semantica", "constraints": []}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ext.Constraints) != 0 {
		t.Errorf("expected no constraints, got %v", ext.Constraints)
	}
}

func TestDescribeAttributes(t *testing.T) {
	mk := func(name string, typ schema.Type, desc string, values []string) schema.Attribute {
		a, err := schema.NewAttribute(name, typ, desc, values, "")
		if err != nil {
			t.Fatalf("NewAttribute: %v", err)
		}
		return a
	}
	s, err := schema.New([]schema.Attribute{
		mk("num_sumula", schema.String, "Ruling number.", nil),
		mk("status_atual", schema.Enum, "Current status.", []string{"VIGENTE", "REVOGADA"}),
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}

	out := describeAttributes(s)
	if !strings.Contains(out, "- num_sumula (string): Ruling number.") {
		t.Errorf("missing string attribute line:\n%s", out)
	}
	if !strings.Contains(out, "Allowed values: VIGENTE, REVOGADA.") {
		t.Errorf("missing enum values:\n%s", out)
	}
}

func TestRawToString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"VIGENTE"`, "VIGENTE"},
		{`2014`, "2014"},
		{`"2014"`, "2014"},
	}
	for _, tt := range tests {
		if got := rawToString([]byte(tt.raw)); got != tt.want {
			t.Errorf("rawToString(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
