// Package chi exposes the engine over HTTP: one query endpoint, one
// ingestion endpoint, plus health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/veredito/juris/internal/domain"
	logpkg "github.com/veredito/juris/internal/logger"
	"github.com/veredito/juris/internal/metrics"
	"github.com/veredito/juris/internal/usecase/health"
	"github.com/veredito/juris/internal/usecase/ingest"
	"github.com/veredito/juris/internal/usecase/orchestrate"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server wires the usecases to HTTP handlers.
type Server struct {
	orchestrator  *orchestrate.Service
	ingester      *ingest.Service
	health        *health.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	orchestrator *orchestrate.Service,
	ingester *ingest.Service,
	healthSvc *health.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		orchestrator: orchestrator,
		ingester:     ingester,
		health:       healthSvc,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		stepErrorHandler,
		sentinelHandler(domain.ErrTranslation, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(domain.ErrNormalization, http.StatusBadRequest, codeNormalizationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeProviderUnavailable),
	}
	return s
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/healthz", s.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", s.RunQuery)
		r.Post("/documents", s.IngestDocument)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
	})

	return r
}

// RunQuery handles POST /v1/query.
func (s *Server) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Question is required")
		return
	}

	run, err := s.orchestrator.Run(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, runToResponse(run))
}

// IngestDocument handles POST /v1/documents.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Text is required")
		return
	}

	rec, err := s.ingester.Ingest(r.Context(), ingest.RawDocument{
		ID:       req.ID,
		Text:     req.Text,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

// GetDocument handles GET /v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.ingester.Fetch(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ingester.Remove(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.health.Ready(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, codeNotReady, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, handle := range s.errorHandlers {
		if handle(w, err) {
			return
		}
	}
	logpkg.FromContext(r.Context()).Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "Internal error")
}

// stepErrorHandler maps orchestration step failures, preserving the step
// name and cause so a failed run is never mistaken for an empty answer.
func stepErrorHandler(w http.ResponseWriter, err error) bool {
	var stepErr *domain.StepError
	if !errors.As(err, &stepErr) {
		return false
	}

	code := codeRunFailed
	switch {
	case errors.Is(err, domain.ErrPlanning):
		code = codePlanningFailed
	case errors.Is(err, domain.ErrRetrieval):
		code = codeRetrievalFailed
	case errors.Is(err, domain.ErrGeneration):
		code = codeGenerationFailed
	}

	writeJSON(w, http.StatusBadGateway, errorResponse{
		Code:    code,
		Message: stepErr.Cause.Error(),
		Step:    stepErr.Step,
	})
	return true
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// requestLogMiddleware emits one canonical log line per request and carries a
// per-request logger (tagged with the request id) in the context.
func requestLogMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
