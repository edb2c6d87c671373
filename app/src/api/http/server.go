package httpapi

import (
	"net/http"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes stored runs over HTTP.
type Server struct {
	handler http.Handler
}

// NewServer constructs an HTTP server that forwards requests to the run service.
func NewServer(service domain.RunService, logger *infra.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(infra.HTTPMiddleware())

	registerRoutes(router, &handler{service: service, logger: logger})

	return &Server{handler: router}
}

// Router returns the configured HTTP handler for reuse in tests or external HTTP servers.
func (s *Server) Router() http.Handler {
	return s.handler
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
