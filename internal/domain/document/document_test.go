package document

import (
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		text    string
		wantErr string
	}{
		{name: "valid", id: "sumula-70_chunk-0", text: "conteudo"},
		{name: "empty id", id: "", text: "x", wantErr: "ID is required"},
		{name: "id with spaces", id: "sumula 70", text: "x", wantErr: "alphanumeric"},
		{name: "id with slash", id: "a/b", text: "x", wantErr: "alphanumeric"},
		{name: "id too long", id: strings.Repeat("a", 257), text: "x", wantErr: "too long"},
		{name: "empty text", id: "a", text: "", wantErr: "text is required"},
		{name: "text too large", id: "a", text: strings.Repeat("x", MaxTextSize+1), wantErr: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, tt.text, nil, nil, nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRecord_Flagged(t *testing.T) {
	clean, err := New("a", "text", nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clean.Flagged() {
		t.Error("record without dropped fields must not be flagged")
	}

	flagged, err := New("a", "text", nil, nil, []string{"data_status"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !flagged.Flagged() {
		t.Error("record with dropped fields must be flagged")
	}
}

func TestRecord_Immutable(t *testing.T) {
	tags := map[string]string{"status_atual": "VIGENTE"}
	nums := map[string]int64{"data_status_ano": 2014}
	rec, err := New("a", "text", tags, nums, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tags["status_atual"] = "REVOGADA"
	nums["data_status_ano"] = 1999

	if rec.Tags()["status_atual"] != "VIGENTE" {
		t.Error("record tags must be isolated from caller mutation")
	}
	if rec.Numerics()["data_status_ano"] != 2014 {
		t.Error("record numerics must be isolated from caller mutation")
	}
}

func TestRecord_MetadataDigestDeterministic(t *testing.T) {
	rec, err := New("a", "text",
		map[string]string{"b_tag": "x", "a_tag": "y"},
		map[string]int64{"c_num": 3},
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `a_tag="y";b_tag="x";c_num=3;`
	for i := 0; i < 5; i++ {
		if got := rec.MetadataDigest(); got != want {
			t.Fatalf("digest mismatch: got %s want %s", got, want)
		}
	}
}
