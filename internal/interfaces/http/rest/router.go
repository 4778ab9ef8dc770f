// Package rest exposes the graph operations, the sync engine and the user
// settings over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/adapter"
	"github.com/thedub2001/skull01/internal/application/graphops"
	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/config"
	_ "github.com/thedub2001/skull01/internal/docs"
	"github.com/thedub2001/skull01/internal/infrastructure/observability"
	"github.com/thedub2001/skull01/pkg/auth"
)

// Dependencies are the services the router serves. Metrics and Auth are
// optional.
type Dependencies struct {
	Adapter  *adapter.Adapter
	Engine   *reconcile.Engine
	GraphOps *graphops.Handler
	Settings *config.SettingsStore
	Metrics  *observability.Collector
	Auth     *auth.Validator
	Server   config.Server
	Logger   *zap.Logger
}

// Router creates and configures the HTTP router.
type Router struct {
	deps    Dependencies
	handler *Handler
	logger  *zap.Logger
}

func NewRouter(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")
	return &Router{
		deps:    deps,
		handler: NewHandler(deps.Adapter, deps.Engine, deps.GraphOps, deps.Settings, logger),
		logger:  logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(Logger(rt.logger))
	router.Use(chimiddleware.Recoverer)
	if rt.deps.Metrics != nil {
		router.Use(rt.deps.Metrics.Middleware)
	}

	origins := rt.deps.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.deps.Metrics != nil {
		router.Handle("/metrics", rt.deps.Metrics.Handler())
	}
	router.Get("/swagger/doc.json", rt.swaggerDoc)

	h := rt.handler
	router.Route("/api/v1", func(r chi.Router) {
		if rt.deps.Auth != nil {
			r.Use(Authenticate(rt.deps.Auth, rt.logger))
		}

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.ListDatasets)
			r.Post("/", h.CreateDataset)

			r.Route("/{datasetID}", func(r chi.Router) {
				r.Get("/", h.GetDataset)
				r.Get("/graph", h.GetGraphData)
				r.Get("/link-types", h.GetLinkTypes)

				r.Route("/nodes", func(r chi.Router) {
					r.Get("/", h.ListNodes)
					r.Post("/", h.CreateNode)
					r.Put("/{id}", h.UpdateNode)
					r.Delete("/{id}", h.DeleteNode)
					r.Post("/{id}/children", h.AddChildNode)
				})

				r.Route("/links", func(r chi.Router) {
					r.Get("/", h.ListLinks)
					r.Post("/", h.CreateLink)
					r.Put("/{id}", h.UpdateLink)
					r.Delete("/{id}", h.DeleteLink)
				})

				r.Route("/visual-links", func(r chi.Router) {
					r.Get("/", h.ListVisualLinks)
					r.Post("/", h.CreateVisualLink)
					r.Put("/{id}", h.UpdateVisualLink)
					r.Delete("/{id}", h.DeleteVisualLink)
				})

				r.Post("/sync/pull", h.Pull)
				r.Post("/sync/push", h.Push)
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) swaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		respondError(w, r, rt.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
