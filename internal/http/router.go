package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type TokenManager interface {
	handlers.TokenService
	middlewares.TokenVerifier
}

type Sharing interface {
	handlers.SharingService
	middlewares.ListAuthorizer
}

// Deps are the constructed components the router wires into handlers.
type Deps struct {
	Accounts handlers.AccountService
	Tokens   TokenManager
	Lists    handlers.ListStore
	Items    handlers.ItemStore
	Sharing  Sharing
	Store    handlers.Pinger

	Prom    *observability.Prom
	Metrics *prometheus.Registry

	// AuthLimiter throttles register and login. Nil means an in-process
	// window of cfg.AuthRateLimit requests per minute.
	AuthLimiter middlewares.Limiter
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	handlers.MustRegisterValidators()

	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewRegistry()
	}
	if deps.Prom == nil {
		deps.Prom = observability.NewProm(deps.Metrics)
	}
	if deps.AuthLimiter == nil {
		limit := cfg.AuthRateLimit
		if limit <= 0 {
			limit = 20
		}
		deps.AuthLimiter = middlewares.NewRateLimiter(limit, time.Minute)
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(deps.Prom.GinHandleMiddleware())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.SecurityHeaders(!cfg.IsLocal()))
	r.Use(middlewares.MaxBodyBytes(maxBody))
	r.Use(middlewares.RequireJSON())

	// health, metrics and docs
	h := handlers.NewHealthHandler(deps.Store, log)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, log)
	requireAuth := authMW.RequireAuth()

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Tokens, deps.Prom, log)
	usersHandler := handlers.NewUsersHandler(deps.Accounts, deps.Items, deps.Sharing, log)
	todosHandler := handlers.NewTodosHandler(deps.Lists, deps.Sharing, log)
	itemsHandler := handlers.NewItemsHandler(deps.Items, log)

	limitAuth := middlewares.RateLimit(deps.AuthLimiter, middlewares.KeyByIP, deps.Prom.ObserveRateLimited, log)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", limitAuth, authHandler.Register)
	authGroup.POST("/login", limitAuth, authHandler.Login)
	authGroup.POST("/logout", requireAuth, authHandler.Logout)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	users := api.Group("/users", requireAuth)
	users.GET("/:id", usersHandler.Get)
	users.PUT("/:id", usersHandler.Update)
	users.POST("/:id/assign-item", usersHandler.AssignItem)

	canView := middlewares.RequireList(deps.Sharing, collab.Access.CanView, log)
	canEdit := middlewares.RequireList(deps.Sharing, collab.Access.CanEdit, log)
	canDelete := middlewares.RequireList(deps.Sharing, collab.Access.CanDelete, log)

	todos := api.Group("/todos", requireAuth)
	todos.GET("", todosHandler.List)
	todos.POST("", todosHandler.Create)
	todos.GET("/:listId", canView, todosHandler.Get)
	todos.PUT("/:listId", canEdit, todosHandler.Update)
	todos.DELETE("/:listId", canDelete, todosHandler.Delete)

	// share and collaborators authorize inside the registry
	todos.POST("/:listId/share", todosHandler.Share)
	todos.GET("/:listId/collaborators", todosHandler.Collaborators)

	todos.POST("/:listId/items", canEdit, itemsHandler.Create)
	todos.PUT("/:listId/items/:itemId", canEdit, itemsHandler.Update)
	todos.DELETE("/:listId/items/:itemId", canEdit, itemsHandler.Delete)
	todos.POST("/:listId/items/:itemId/assign", canEdit, itemsHandler.Assign)

	return r
}
