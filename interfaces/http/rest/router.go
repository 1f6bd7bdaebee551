package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ideatracker/interfaces/http/rest/handlers"
	"ideatracker/interfaces/http/rest/middleware"
	"ideatracker/interfaces/http/web"
	"ideatracker/pkg/auth"
	pkgerrors "ideatracker/pkg/errors"
	"ideatracker/pkg/observability"
)

// AuthProvider is what the JSON API needs from the auth provider.
type AuthProvider interface {
	handlers.SignInService
	middleware.TokenVerifier
}

// ReadinessCheck reports whether the backing store can be reached.
type ReadinessCheck func(ctx context.Context) error

// Limiters throttles authenticated API traffic.
type Limiters struct {
	IP   *auth.KeyedLimiter
	User *auth.KeyedLimiter
}

// Router creates and configures the HTTP router
type Router struct {
	ideas       handlers.IdeaService
	provider    AuthProvider
	pages       *web.Handler
	limiters    Limiters
	collector   *observability.Collector
	ready       ReadinessCheck
	corsOrigins []string
	errs        *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	ideas handlers.IdeaService,
	provider AuthProvider,
	pages *web.Handler,
	limiters Limiters,
	collector *observability.Collector,
	ready ReadinessCheck,
	corsOrigins []string,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		ideas:       ideas,
		provider:    provider,
		pages:       pages,
		limiters:    limiters,
		collector:   collector,
		ready:       ready,
		corsOrigins: corsOrigins,
		errs:        errs,
		logger:      logger,
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
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if len(rt.corsOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   rt.corsOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
				ExposedHeaders:   []string{"X-Request-ID", "Location"},
				AllowCredentials: false,
				MaxAge:           300,
			}))
		}

		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			rt.errs.HandleStatus(w, req, http.StatusNotFound, "no such endpoint")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
			rt.errs.HandleStatus(w, req, http.StatusMethodNotAllowed, "method not allowed")
		})

		authHandler := handlers.NewAuthHandler(rt.provider, rt.errs, rt.logger)
		r.Post("/auth/token", authHandler.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.provider, rt.limiters.IP, rt.limiters.User, rt.errs, rt.logger))

			ideaHandler := handlers.NewIdeaHandler(rt.ideas, rt.errs, rt.logger)
			r.Route("/ideas", func(r chi.Router) {
				r.Get("/", ideaHandler.ListIdeas)
				r.Post("/", ideaHandler.CreateIdea)
				r.Get("/{ideaID}", ideaHandler.GetIdea)
				r.Put("/{ideaID}", ideaHandler.UpdateIdea)
			})
		})
	})

	if rt.pages != nil {
		rt.pages.Routes(router)
	}

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready once the backing store answers
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.errs.Handle(w, req, pkgerrors.NewUnavailableError("store").
				WithCode("NOT_READY").
				WithDetails(map[string]interface{}{"error": err.Error()}).
				WithCause(err))
			return
		}
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
