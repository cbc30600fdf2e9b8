package chi

import (
	"encoding/json"
	"net/http"

	"github.com/veredito/juris/internal/domain/document"
	"github.com/veredito/juris/internal/domain/run"
	"github.com/veredito/juris/internal/trace"
)

// Error response codes.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeInvalidFilter       = "invalid_filter"
	codeNormalizationFailed = "normalization_failed"
	codePlanningFailed      = "planning_failed"
	codeRetrievalFailed     = "retrieval_failed"
	codeGenerationFailed    = "generation_failed"
	codeRunFailed           = "run_failed"
	codeNotFound            = "not_found"
	codeProviderUnavailable = "provider_unavailable"
	codeNotReady            = "not_ready"
	codeInternal            = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
}

type queryRequest struct {
	Question string `json:"question"`
}

type ingestRequest struct {
	ID       string            `json:"id,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type queryResponse struct {
	RunID        string          `json:"run_id"`
	State        string          `json:"state"`
	Answer       string          `json:"answer"`
	SemanticText string          `json:"semantic_text"`
	Filter       string          `json:"filter"`
	Sources      []sourceDTO     `json:"sources"`
	Trace        []traceEventDTO `json:"trace"`
}

type sourceDTO struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Tags     map[string]string `json:"tags,omitempty"`
	Numerics map[string]int64  `json:"numerics,omitempty"`
}

type traceEventDTO struct {
	Step      string            `json:"step"`
	Phase     string            `json:"phase"`
	Outcome   string            `json:"outcome,omitempty"`
	ElapsedMS int64             `json:"elapsed_ms,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

type ingestResponse struct {
	ID            string            `json:"id"`
	Flagged       bool              `json:"flagged"`
	DroppedFields []string          `json:"dropped_fields,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
	Numerics      map[string]int64  `json:"numerics,omitempty"`
}

func runToResponse(r *run.Run) queryResponse {
	resp := queryResponse{
		RunID:  r.ID(),
		State:  string(r.State()),
		Answer: r.Answer(),
	}
	if req := r.Request(); req != nil {
		resp.SemanticText = req.SemanticText()
		resp.Filter = req.Filters().Render()
	}
	for i := range r.Passages() {
		p := &r.Passages()[i]
		resp.Sources = append(resp.Sources, sourceDTO{
			ID:       p.ID(),
			Score:    p.Score(),
			Tags:     p.Tags(),
			Numerics: p.Numerics(),
		})
	}
	for _, ev := range r.Events() {
		dto := traceEventDTO{
			Step:    ev.Step,
			Phase:   string(ev.Phase),
			Outcome: string(ev.Outcome),
			Attrs:   ev.Attrs,
		}
		if ev.Phase == trace.PhaseEnd {
			dto.ElapsedMS = ev.Metrics.Elapsed.Milliseconds()
		}
		resp.Trace = append(resp.Trace, dto)
	}
	return resp
}

func recordToResponse(rec document.Record) ingestResponse {
	return ingestResponse{
		ID:            rec.ID(),
		Flagged:       rec.Flagged(),
		DroppedFields: rec.Dropped(),
		Tags:          rec.Tags(),
		Numerics:      rec.Numerics(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
