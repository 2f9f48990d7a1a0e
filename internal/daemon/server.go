package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/catalog"
	"github.com/felixgeelhaar/skillgap/internal/config"
	"github.com/felixgeelhaar/skillgap/internal/domain"
)

const maxRequestBytes = 1 << 20

// Server represents the skillgap daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	version string
	started time.Time

	// Services
	analysis  *analysis.Service
	refresher *catalog.Refresher // nil when the catalog is loaded once
	limiter   ratelimit.RateLimiter
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config    *config.LocalConfig
	Analysis  *analysis.Service
	Refresher *catalog.Refresher
	Version   string
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("server config is required")
	}
	if cfg.Analysis == nil {
		return nil, errors.New("analysis service is required")
	}

	s := &Server{
		cfg:       cfg.Config,
		router:    http.NewServeMux(),
		version:   cfg.Version,
		started:   time.Now(),
		analysis:  cfg.Analysis,
		refresher: cfg.Refresher,
	}

	if rl := cfg.Config.Daemon.RateLimit; rl.Enabled {
		burst := rl.Burst
		if burst <= 0 {
			burst = rl.RequestsPerMinute
		}
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rl.RequestsPerMinute,
			Burst:    burst,
			Interval: time.Minute,
		})
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)

	// Catalog
	s.router.HandleFunc("GET /v1/catalog", s.handleGetCatalog)
	s.router.HandleFunc("POST /v1/catalog/refresh", s.handleRefreshCatalog)
	s.router.HandleFunc("GET /v1/roles", s.handleListRoles)

	// Analyses & reports
	s.router.HandleFunc("POST /v1/analyses", s.handleCreateAnalysis)
	s.router.HandleFunc("GET /v1/reports", s.handleListReports)
	s.router.HandleFunc("GET /v1/reports/{id}", s.handleGetReport)
	s.router.HandleFunc("DELETE /v1/reports/{id}", s.handleDeleteReport)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting skillgap daemon",
		"addr", s.server.Addr,
		"version", s.version,
		"catalog_source", s.cfg.Catalog.Source,
		"storage", s.cfg.Storage.Driver,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "running",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"storage":        s.cfg.Storage.Driver,
		"queue_enabled":  s.cfg.Queue.Enabled,
	}

	if snap, err := s.analysis.Snapshot(); err == nil {
		resp["catalog"] = map[string]any{
			"source":    snap.Source,
			"revision":  snap.Revision,
			"skills":    snap.Graph.Len(),
			"relations": snap.Graph.RelationCount(),
			"roles":     len(snap.Roles()),
			"loaded_at": snap.LoadedAt.UTC().Format(time.RFC3339),
		}
	} else {
		resp["status"] = "degraded"
		resp["catalog"] = nil
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	// Return config without secrets
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"daemon": s.cfg.Daemon,
		"storage": map[string]any{
			"driver": s.cfg.Storage.Driver,
		},
		"catalog": map[string]any{
			"source":                   s.cfg.Catalog.Source,
			"refresh_interval_seconds": s.cfg.Catalog.RefreshIntervalSeconds,
		},
		"analysis": s.cfg.Analysis,
		"scoring":  s.analysis.Policy(),
	})
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	snap, err := s.analysis.Snapshot()
	if err != nil {
		s.serviceError(w, "catalog not loaded", err)
		return
	}

	warnings := make([]string, 0)
	for _, warning := range snap.Graph.Warnings() {
		warnings = append(warnings, warning.String())
	}

	resp := map[string]any{
		"source":   snap.Source,
		"revision": snap.Revision,
		"skills":   snap.Graph.Skills(),
		"roles":    snap.Roles(),
		"warnings": warnings,
	}
	if s.refresher != nil {
		resp["refresh"] = s.refresher.Status()
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "catalog refresh is not configured", nil)
		return
	}

	snap, err := s.refresher.Refresh(r.Context())
	if err != nil {
		if domain.IsValidation(err) {
			s.jsonError(w, http.StatusUnprocessableEntity, "catalog rejected", err)
			return
		}
		s.jsonError(w, http.StatusBadGateway, "catalog source unavailable", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"revision":  snap.Revision,
		"source":    snap.Source,
		"skills":    snap.Graph.Len(),
		"relations": snap.Graph.RelationCount(),
		"roles":     len(snap.Roles()),
	})
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.analysis.Roles()
	if err != nil {
		s.serviceError(w, "failed to list roles", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"roles": roles,
	})
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow(r.Context(), clientKey(r)) {
		s.jsonError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
		return
	}

	var req analysis.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	stored, err := s.analysis.Analyze(r.Context(), req)
	if err != nil {
		s.serviceError(w, "analysis failed", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, stored)
}

// reportSummary is the list view of a stored report
type reportSummary struct {
	ID              string    `json:"id"`
	Role            string    `json:"role,omitempty"`
	ReadinessScore  int       `json:"readiness_score"`
	GapCount        int       `json:"gap_count"`
	CatalogRevision uint64    `json:"catalog_revision"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.analysis.ListReports()
	if err != nil {
		s.serviceError(w, "failed to list reports", err)
		return
	}

	summaries := make([]reportSummary, 0, len(reports))
	for _, rep := range reports {
		summaries = append(summaries, reportSummary{
			ID:              rep.ID,
			Role:            rep.Role,
			ReadinessScore:  rep.Report.ReadinessScore,
			GapCount:        len(rep.Report.Gaps),
			CatalogRevision: rep.CatalogRevision,
			CreatedAt:       rep.CreatedAt,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"reports": summaries,
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	stored, err := s.analysis.GetReport(r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "report not found", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.analysis.DeleteReport(r.PathValue("id")); err != nil {
		s.serviceError(w, "failed to delete report", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// serviceError maps domain errors to HTTP status codes
func (s *Server) serviceError(w http.ResponseWriter, message string, err error) {
	switch {
	case domain.IsValidation(err):
		s.jsonError(w, http.StatusBadRequest, "invalid analysis input", err)
	case errors.Is(err, domain.ErrRoleNotFound):
		s.jsonError(w, http.StatusNotFound, "role not found", err)
	case errors.Is(err, domain.ErrReportNotFound):
		s.jsonError(w, http.StatusNotFound, "report not found", nil)
	case errors.Is(err, domain.ErrSnapshotUnavailable):
		s.jsonError(w, http.StatusServiceUnavailable, "catalog not loaded", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.jsonError(w, http.StatusServiceUnavailable, "request cancelled", err)
	default:
		slog.Error(message, "error", err)
		s.jsonError(w, http.StatusInternalServerError, message, nil)
	}
}

// clientKey identifies the caller for rate limiting
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
