// Package statusweb is the module's own operational surface: a small
// chi-routed dashboard and JSON endpoint over ProviderStatuses(), grounded
// on the teacher's cmd/server routes/handlers (dashboardHandler,
// listWebsitesHandler) but rewritten for provider status instead of
// website uptime. This is distinct from the end-client search HTTP API,
// which spec.md places out of scope.
package statusweb

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mediasearch/internal/core"
	"mediasearch/internal/feed"
	"mediasearch/internal/media"
)

// StatusSource is the narrow read-only view this package needs. The
// searchapi façade satisfies it, so statusweb never imports
// internal/providers or internal/search directly.
type StatusSource interface {
	ProviderStatuses() []media.ProviderStatus
	ParseFeed(content []byte, parentID string) (*feed.Result, error)
}

// Server wires the dashboard and JSON status endpoint over a StatusSource.
type Server struct {
	source StatusSource
	logger *core.Logger
	now    func() time.Time
}

// New builds a Server.
func New(source StatusSource, logger *core.Logger) *Server {
	return &Server{source: source, logger: logger.ForFeature("status-web"), now: time.Now}
}

// Routes returns the http.Handler chi mux for this surface.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)

	mux.Get("/", s.dashboardHandler)
	mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", s.healthcheckHandler)
		r.Get("/providers", s.providersHandler)
		r.Post("/feeds/{parentID}/parse", s.parseFeedHandler)
	})

	return mux
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	statuses := s.source.ProviderStatuses()
	component := dashboardPage(statuses, s.now())
	if err := component.Render(r.Context(), w); err != nil {
		s.logger.Warn("failed to render status dashboard", "error", err)
	}
}

func (s *Server) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) providersHandler(w http.ResponseWriter, r *http.Request) {
	statuses := s.source.ProviderStatuses()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"providers": statuses}); err != nil {
		s.logger.Warn("failed to encode provider statuses", "error", err)
	}
}

// parseFeedHandler exercises ParseFeed over the operational surface, so
// an operator can validate a candidate feed URL's document without going
// through the (out of scope) end-client search API.
func (s *Server) parseFeedHandler(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "parentID")

	body, err := io.ReadAll(io.LimitReader(r.Body, 5<<20))
	if err != nil {
		core.HandleError(w, core.NewValidationError("failed to read request body", err))
		return
	}

	result, err := s.source.ParseFeed(body, parentID)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Warn("failed to encode parsed feed", "error", err)
	}
}
