package passage

import (
	"reflect"
	"testing"

	"github.com/veredito/juris/internal/db"
	"github.com/veredito/juris/internal/domain/document"
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
		mk("status_atual", schema.Enum, []string{"VIGENTE"}, ""),
		mk("data_status_ano", schema.Integer, nil, "data_status"),
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func TestRecordToFields(t *testing.T) {
	rec, err := document.New("sumula-70_0", "conteudo",
		map[string]string{"status_atual": "VIGENTE", "data_status": "07/04/14"},
		map[string]int64{"data_status_ano": 2014},
		nil,
	)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}

	fields := recordToFields(rec, []float32{0.5})

	if fields["text"] != "conteudo" {
		t.Errorf("unexpected text %q", fields["text"])
	}
	if fields["vector"] != db.VectorToBytes([]float32{0.5}) {
		t.Error("vector blob mismatch")
	}
	if fields["status_atual"] != "VIGENTE" || fields["data_status"] != "07/04/14" {
		t.Errorf("tag fields mismatch: %v", fields)
	}
	// Numerics are stored as decimal strings for the NUMERIC index.
	if fields["data_status_ano"] != "2014" {
		t.Errorf("expected decimal string year, got %q", fields["data_status_ano"])
	}
}

func TestFieldsToRecord_SplitsBySchema(t *testing.T) {
	s := testSchema(t)
	rec := fieldsToRecord("sumula-70_0", map[string]string{
		"text":            "conteudo",
		"vector":          "\x00\x00\x00\x00",
		"status_atual":    "VIGENTE",
		"data_status":     "07/04/14",
		"data_status_ano": "2014",
	}, s)

	if rec.ID() != "sumula-70_0" || rec.Text() != "conteudo" {
		t.Errorf("identity mismatch: %q %q", rec.ID(), rec.Text())
	}
	wantTags := map[string]string{
		"status_atual": "VIGENTE",
		"data_status":  "07/04/14",
	}
	if !reflect.DeepEqual(rec.Tags(), wantTags) {
		t.Errorf("tags mismatch: %v", rec.Tags())
	}
	if rec.Numerics()["data_status_ano"] != 2014 {
		t.Errorf("numerics mismatch: %v", rec.Numerics())
	}
}

func TestEntryToPassage(t *testing.T) {
	s := testSchema(t)
	p := entryToPassage(db.SearchEntry{
		Key:   "passage:sumula-70_0",
		Score: 0.87,
		Fields: map[string]string{
			"text":            "conteudo",
			"status_atual":    "VIGENTE",
			"data_status_ano": "2014",
		},
	}, "passage:", s)

	if p.ID() != "sumula-70_0" {
		t.Errorf("expected key prefix stripped, got %q", p.ID())
	}
	if p.Score() != 0.87 {
		t.Errorf("score mismatch: %f", p.Score())
	}
	if p.Text() != "conteudo" {
		t.Errorf("text mismatch: %q", p.Text())
	}
	if p.Tag("status_atual") != "VIGENTE" {
		t.Errorf("tag mismatch: %v", p.Tags())
	}
	if p.Numerics()["data_status_ano"] != 2014 {
		t.Errorf("numeric mismatch: %v", p.Numerics())
	}
}

func TestSearchReturnFields_IncludesYearSources(t *testing.T) {
	// The raw date is not a declared attribute, but hits must carry it back
	// so answers can cite it.
	got := searchReturnFields(testSchema(t))

	want := []string{"text", "__vector_score", "status_atual", "data_status_ano", "data_status"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("return fields mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestEntryToPassage_KeepsRawDate(t *testing.T) {
	s := testSchema(t)
	p := entryToPassage(db.SearchEntry{
		Key:   "passage:sumula-70_0",
		Score: 0.5,
		Fields: map[string]string{
			"text":            "conteudo",
			"data_status":     "07/04/14",
			"data_status_ano": "2014",
		},
	}, "passage:", s)

	if p.Tag("data_status") != "07/04/14" {
		t.Errorf("raw date must survive the search round-trip, got %q", p.Tag("data_status"))
	}
	if p.Numerics()["data_status_ano"] != 2014 {
		t.Errorf("derived year mismatch: %v", p.Numerics())
	}
}

func TestSplitField_UnparsableIntegerFallsBackToTag(t *testing.T) {
	s := testSchema(t)
	tags := make(map[string]string)
	numerics := make(map[string]int64)

	splitField("data_status_ano", "corrupted", s, tags, numerics)

	if len(numerics) != 0 {
		t.Error("unparsable value must not land in numerics")
	}
	if tags["data_status_ano"] != "corrupted" {
		t.Error("unparsable value should survive as an opaque tag")
	}
}
