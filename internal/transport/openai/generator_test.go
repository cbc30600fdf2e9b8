package openai

import (
	"strings"
	"testing"

	"github.com/veredito/juris/internal/domain/search/result"
)

func TestFormatPassages(t *testing.T) {
	passages := []result.Passage{
		result.New("sumula-70_0", 0.91, "A multa aplicada...", map[string]string{
			"pdf_name":     "Sumula_70.pdf",
			"num_sumula":   "70",
			"chunk_type":   "CONTEUDO_PRINCIPAL",
			"status_atual": "VIGENTE",
			"data_status":  "07/04/14",
		}, nil),
		result.New("sumula-12_1", 0.74, "Precedentes...", map[string]string{
			"num_sumula": "12",
		}, nil),
	}

	out := formatPassages(passages)

	if !strings.Contains(out, "[Sumula_70.pdf | ruling 70 | CONTEUDO_PRINCIPAL]") {
		t.Errorf("missing metadata header:\n%s", out)
	}
	if !strings.Contains(out, "status: VIGENTE\ndate: 07/04/14") {
		t.Errorf("missing status line:\n%s", out)
	}
	if !strings.Contains(out, "A multa aplicada...") {
		t.Errorf("missing passage text:\n%s", out)
	}
	// Missing metadata renders as "?" rather than empty brackets.
	if !strings.Contains(out, "[? | ruling 12 | ?]") {
		t.Errorf("missing unknown placeholders:\n%s", out)
	}
	if !strings.Contains(out, "\n\n---\n\n") {
		t.Error("passages must be separated by rulers")
	}
}

func TestFormatPassages_Empty(t *testing.T) {
	if got := formatPassages(nil); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
