package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/domain/search/mode"
	"github.com/kailas-cloud/docfusion/internal/domain/search/request"
	"github.com/kailas-cloud/docfusion/internal/logger"
	healthuc "github.com/kailas-cloud/docfusion/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docfusion/internal/usecase/search"
)

// Searcher runs searches and document lookups.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (*searchuc.Response, error)
	Get(ctx context.Context, id string) (*searchuc.Detail, error)
	Stats(ctx context.Context) searchuc.Stats
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Info describes the running service on GET /.
type Info struct {
	Service     string
	Version     string
	Index       string
	FileService string
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the retrieval API.
type Server struct {
	search        Searcher
	health        HealthChecker
	info          Info
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, info Info, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		info:   info,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, codeSearchUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/stats", s.Stats)
	r.Post("/query", s.Query)
	r.Get("/document/{doc_id}", s.GetDocument)
	r.Get("/metrics", s.Metrics)
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Service:     s.info.Service,
		Version:     s.info.Version,
		Index:       s.info.Index,
		FileService: s.info.FileService,
		Status:      "running",
	})
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := request.New(body.Query, mode.Mode(body.Mode), body.TopK, body.UseAnswer)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	logger.FromContext(r.Context()).Info("Search request",
		zap.String("query", req.Query()),
		zap.String("mode", string(req.Mode())),
		zap.Int("top_k", req.TopK()),
	)

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponseFrom(resp))
}

// GetDocument handles GET /document/{doc_id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doc_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "doc_id is required")
		return
	}

	detail, err := s.search.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detailResponseFrom(detail))
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats := s.search.Stats(r.Context())
	counts := stats.Counts
	if counts == nil {
		counts = map[string]int{}
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalDocuments: stats.Total,
		IndexCounts:    counts,
	})
}

// HealthCheck handles GET /health. Only an unusable search index fails the
// probe; a degraded service still answers 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:    string(report.Status),
		Readiness: string(report.Readiness),
		Checks:    checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
