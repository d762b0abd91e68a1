package gateway

import (
	"context"
	"net/http"

	"mosaic/internal/agent"
	"mosaic/internal/catalog"
	"mosaic/internal/discovery"
	"mosaic/internal/history"
	"mosaic/internal/tools"
)

type Server struct {
	router     *Router
	catalog    *catalog.Catalog
	controller *agent.Controller
	registry   *tools.Registry
	store      *history.Store
	cache      *discovery.Cached

	mux  *http.ServeMux
	http *http.Server
}

func NewServer(router *Router, cat *catalog.Catalog, controller *agent.Controller, registry *tools.Registry, store *history.Store, cache *discovery.Cached) *Server {
	s := &Server{
		router:     router,
		catalog:    cat,
		controller: controller,
		registry:   registry,
		store:      store,
		cache:      cache,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Both the Open WebUI style /api prefix and the plain /v1 prefix
	// serve the same handlers.
	s.mux.HandleFunc("GET /api/models", s.handleListModels)
	s.mux.HandleFunc("GET /v1/models", s.handleListModels)
	s.mux.HandleFunc("POST /api/chat/completions", s.handleChatCompletions)
	s.mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	s.mux.HandleFunc("POST /v1/models/refresh", s.handleRefreshModels)

	s.mux.HandleFunc("GET /v1/agent/modes", s.handleListModes)
	s.mux.HandleFunc("GET /v1/agent/models", s.handleBackendModels)
	s.mux.HandleFunc("GET /v1/agent/current-config", s.handleCurrentConfig)
	s.mux.HandleFunc("POST /v1/agent/configure", s.handleConfigure)
	s.mux.HandleFunc("GET /v1/agent/recommendations", s.handleRecommendations)

	s.mux.HandleFunc("GET /v1/tools", s.handleListTools)
	s.mux.HandleFunc("POST /v1/tools/reload", s.handleReloadTools)

	s.mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)

	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.mux}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
