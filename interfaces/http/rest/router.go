package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shajara/application/ports"
	"shajara/application/services"
	"shajara/infrastructure/config"
	"shajara/interfaces/http/rest/handlers"
	"shajara/interfaces/http/rest/middleware"
	ws "shajara/interfaces/websocket"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	session  *services.TreeSession
	cache    ports.StructureCache
	hub      *ws.Hub
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	session *services.TreeSession,
	cache ports.StructureCache,
	hub *ws.Hub,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		session:  session,
		cache:    cache,
		hub:      hub,
		registry: registry,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/healthz", rt.healthCheck)

	if rt.cfg.EnableMetrics && rt.registry != nil {
		router.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	// Realtime enrichment push
	router.Get("/ws", rt.hub.HandleConnect)

	router.Route("/api", func(r chi.Router) {
		treeHandler := handlers.NewTreeHandler(rt.session, rt.logger)
		r.Get("/tree", treeHandler.GetTree)
		r.Post("/viewport", treeHandler.UpdateViewport)
		r.Get("/search", treeHandler.Search)
		r.Post("/reload", treeHandler.Reload)

		nodeHandler := handlers.NewNodeHandler(rt.session, rt.logger)
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Patch("/{nodeID}", nodeHandler.UpdateNode)
		})

		adminHandler := handlers.NewAdminHandler(rt.cache, rt.session, rt.logger)
		r.Delete("/cache", adminHandler.InvalidateCache)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
