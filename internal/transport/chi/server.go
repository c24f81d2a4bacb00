package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/metrics"
	"github.com/kailas-cloud/careerdex/internal/usecase/bootstrap"
	healthuc "github.com/kailas-cloud/careerdex/internal/usecase/health"
	"github.com/kailas-cloud/careerdex/internal/usecase/tool"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 8 << 20

// Tools is the retrieval tool surface exposed over HTTP.
type Tools interface {
	SearchExperience(ctx context.Context, in tool.SearchInput) tool.SearchResponse
	IndexDocuments(ctx context.Context, in tool.IndexInput) tool.IndexResponse
	GetSimilarProjects(ctx context.Context, in tool.SimilarInput) tool.SimilarResponse
	AnalyzeSkills(ctx context.Context) tool.SkillsResponse
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// StatusReporter reports per-collection record counts.
type StatusReporter interface {
	Status(ctx context.Context) (bootstrap.Status, error)
}

// Options configures the router.
type Options struct {
	APIKeys      []string
	MaxBodyBytes int64
}

// Server serves the tool endpoints.
type Server struct {
	tools   Tools
	health  HealthChecker
	status  StatusReporter
	logger  *zap.Logger
	maxBody int64
}

// NewServer creates an HTTP API server.
func NewServer(tools Tools, health HealthChecker, status StatusReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{tools: tools, health: health, status: status, logger: logger, maxBody: DefaultMaxBodyBytes}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(opts Options) http.Handler {
	if opts.MaxBodyBytes > 0 {
		s.maxBody = opts.MaxBodyBytes
	}

	r := gochi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/collections", s.Collections)

	r.Route("/tool", func(r gochi.Router) {
		r.Post("/search_experience", s.SearchExperience)
		r.Post("/index_documents", s.IndexDocuments)
		r.Post("/get_similar_projects", s.GetSimilarProjects)
		r.Post("/analyze_skills", s.AnalyzeSkills)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// SearchExperience handles POST /tool/search_experience.
func (s *Server) SearchExperience(w http.ResponseWriter, r *http.Request) {
	var in tool.SearchInput
	if !s.decode(w, r, &in, false) {
		return
	}
	writeJSON(w, http.StatusOK, s.tools.SearchExperience(r.Context(), in))
}

// IndexDocuments handles POST /tool/index_documents.
func (s *Server) IndexDocuments(w http.ResponseWriter, r *http.Request) {
	var in tool.IndexInput
	if !s.decode(w, r, &in, false) {
		return
	}
	writeJSON(w, http.StatusOK, s.tools.IndexDocuments(r.Context(), in))
}

// GetSimilarProjects handles POST /tool/get_similar_projects.
func (s *Server) GetSimilarProjects(w http.ResponseWriter, r *http.Request) {
	var in tool.SimilarInput
	if !s.decode(w, r, &in, false) {
		return
	}
	writeJSON(w, http.StatusOK, s.tools.GetSimilarProjects(r.Context(), in))
}

// AnalyzeSkills handles POST /tool/analyze_skills. The body is ignored.
func (s *Server) AnalyzeSkills(w http.ResponseWriter, r *http.Request) {
	var ignored map[string]any
	if !s.decode(w, r, &ignored, true) {
		return
	}
	writeJSON(w, http.StatusOK, s.tools.AnalyzeSkills(r.Context()))
}

type healthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Service string                          `json:"service"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status:  report.Status,
		Service: report.Service,
		Checks:  report.Checks,
	})
}

type collectionsResponse struct {
	Status      string         `json:"status"`
	Collections map[string]int `json:"collections"`
	Populated   bool           `json:"populated"`
}

// Collections handles GET /collections.
func (s *Server) Collections(w http.ResponseWriter, r *http.Request) {
	st, err := s.status.Status(r.Context())
	if err != nil {
		s.logger.Error("Collection status failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to read collections: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, collectionsResponse{
		Status:      tool.StatusSuccess,
		Collections: st.Counts,
		Populated:   st.Populated,
	})
}

// decode reads a JSON body into dst. An empty body is accepted only when
// allowEmpty is set. It writes a 400 and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
	return false
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: tool.StatusError, Message: message})
}
