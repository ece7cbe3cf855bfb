package rest

import (
	"context"
	"net/http"
	"time"

	"focuslink/application/services"
	"focuslink/interfaces/http/rest/handlers"
	"focuslink/interfaces/http/rest/middleware"
	"focuslink/pkg/auth"
	"focuslink/pkg/common"
	pkgerrors "focuslink/pkg/errors"
	"focuslink/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Services are the application services the API exposes
type Services struct {
	Goals       *services.GoalService
	Matches     *services.MatchService
	Connections *services.ConnectionService
	Groups      *services.GroupService
	Messages    *services.MessageService
	Nearby      *services.NearbyService
}

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Router creates and configures the HTTP router
type Router struct {
	services       Services
	validator      *auth.JWTValidator
	limiter        *auth.KeyedLimiter
	collector      *observability.Collector
	errs           *pkgerrors.ErrorHandler
	allowedOrigins []string
	ready          ReadinessCheck
	logger         *zap.Logger
}

// NewRouter creates a new router instance. collector and limiter may be nil.
func NewRouter(
	svc Services,
	validator *auth.JWTValidator,
	limiter *auth.KeyedLimiter,
	collector *observability.Collector,
	errs *pkgerrors.ErrorHandler,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errs == nil {
		errs = pkgerrors.NewErrorHandler(logger, false)
	}
	return &Router{
		services:       svc,
		validator:      validator,
		limiter:        limiter,
		collector:      collector,
		errs:           errs,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// WithReadinessCheck sets the check behind /ready
func (rt *Router) WithReadinessCheck(check ReadinessCheck) *Router {
	rt.ready = check
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}

	origins := rt.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	profileHandler := handlers.NewProfileHandler(rt.services.Goals, rt.errs, rt.logger)
	matchHandler := handlers.NewMatchHandler(rt.services.Matches, rt.errs, rt.logger)
	connectionHandler := handlers.NewConnectionHandler(rt.services.Connections, rt.errs, rt.logger)
	groupHandler := handlers.NewGroupHandler(rt.services.Groups, rt.errs, rt.logger)
	messageHandler := handlers.NewMessageHandler(rt.services.Messages, rt.errs, rt.logger)
	nearbyHandler := handlers.NewNearbyHandler(rt.services.Nearby, rt.errs, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.limiter, rt.errs))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)
			r.Put("/", profileHandler.UpdateProfile)
			r.Put("/location", profileHandler.UpdateLocation)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", profileHandler.CreateGoal)
			r.Delete("/spotlight", profileHandler.ClearSpotlight)
			r.Put("/{goalID}", profileHandler.UpdateGoal)
			r.Delete("/{goalID}", profileHandler.DeleteGoal)
			r.Post("/{goalID}/spotlight", profileHandler.SetSpotlight)
		})

		r.Get("/matches", matchHandler.ListMatches)
		r.Get("/matches/search", matchHandler.Search)
		r.Get("/keywords", matchHandler.Keywords)

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", connectionHandler.ListConnections)
			r.Post("/", connectionHandler.CreateConnection)
			r.Get("/status/{userID}", connectionHandler.GetStatus)
			r.Post("/{connID}/accept", connectionHandler.Accept)
			r.Post("/{connID}/decline", connectionHandler.Decline)
			r.Delete("/{connID}", connectionHandler.Remove)
			r.Get("/{connID}/messages", messageHandler.ListDirect)
			r.Post("/{connID}/messages", messageHandler.SendDirect)
			r.Post("/{connID}/read", messageHandler.MarkDirectRead)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.ListGroups)
			r.Post("/", groupHandler.CreateGroup)
			r.Get("/{groupID}", groupHandler.GetGroup)
			r.Put("/{groupID}", groupHandler.UpdateGroup)
			r.Post("/{groupID}/members", groupHandler.AddMembers)
			r.Delete("/{groupID}/members/{userID}", groupHandler.RemoveMember)
			r.Post("/{groupID}/leave", groupHandler.Leave)
			r.Get("/{groupID}/messages", messageHandler.ListGroup)
			r.Post("/{groupID}/messages", messageHandler.SendGroup)
			r.Post("/{groupID}/read", messageHandler.MarkGroupRead)
		})

		r.Route("/threads/{threadID}/messages", func(r chi.Router) {
			r.Post("/delete", messageHandler.DeleteMessages)
			r.Delete("/", messageHandler.ClearThread)
		})

		r.Get("/nearby", nearbyHandler.Nearby)
		r.Get("/nearby/same-goal", nearbyHandler.SameGoal)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
