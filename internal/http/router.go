package http

import (
	"github.com/geocoder89/fieldops/internal/authz"
	"github.com/geocoder89/fieldops/internal/http/handlers"
	"github.com/geocoder89/fieldops/internal/http/middlewares"
	"github.com/geocoder89/fieldops/internal/observability"
	"github.com/geocoder89/fieldops/internal/repo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs; main owns their lifecycle.
type Deps struct {
	Env   string
	Store repo.Store

	Auth   handlers.AuthService
	Tokens middlewares.TokenVerifier

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// AuthLimiter throttles /login, /register and /change-password. Nil
	// disables throttling.
	AuthLimiter middlewares.Limiter

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	Tracing            bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if d.Tracing {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.CORSMiddleware(d.CORSAllowedOrigins))
	r.Use(middlewares.SecurityHeaders())
	if d.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	}
	r.Use(middlewares.RequireJSON())

	// health
	health := handlers.NewHealthHandler(d.Store.Ping)
	r.GET("/", health.Root)
	r.GET("/api", health.API)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(d.Auth, d.Prom)
	clientsHandler := handlers.NewClientsHandler(d.Store)
	logsHandler := handlers.NewServiceLogsHandler(d.Store)
	interactionsHandler := handlers.NewInteractionsHandler(d.Store)
	engineersHandler := handlers.NewEngineersHandler(d.Store)
	accountsHandler := handlers.NewAccountsHandler(d.Store)

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	requireAuth := authMW.RequireAuth()
	allow := middlewares.Allow

	// public
	public := r.Group("")
	if d.AuthLimiter != nil {
		throttle := middlewares.RateLimit(d.AuthLimiter, "auth", middlewares.KeyByIP)
		public.POST("/register", throttle, authHandler.Register)
		public.POST("/login", throttle, authHandler.Login)
	} else {
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
	}
	public.GET("/clients", clientsHandler.List)
	public.GET("/logs", logsHandler.List)
	public.GET("/interactions", interactionsHandler.ListAll)

	// authenticated
	private := r.Group("")
	private.Use(requireAuth)
	{
		private.POST("/clients", allow(authz.CreateClient), clientsHandler.Create)
		private.POST("/log", allow(authz.CreateServiceLog), logsHandler.Create)

		private.POST("/interaction", allow(authz.CreateInteraction), interactionsHandler.Create)
		private.PUT("/interaction/:id/status", allow(authz.UpdateInteractionStatus), interactionsHandler.UpdateStatus)
		private.PUT("/interaction/:id/reassign", allow(authz.ReassignInteraction), interactionsHandler.Reassign)
		private.GET("/interactions/:engineer_id", allow(authz.ViewEngineerInteractions), interactionsHandler.ListByEngineer)
		private.GET("/my-interactions", allow(authz.ViewOwnInteractions), interactionsHandler.ListMine)
		private.GET("/team-interactions", allow(authz.ViewTeamInteractions), interactionsHandler.ListTeam)

		private.GET("/team-engineers", allow(authz.ListTeamEngineers), engineersHandler.Team)
		private.GET("/engineers", allow(authz.ListEngineerStats), engineersHandler.Stats)

		private.GET("/profile", accountsHandler.GetProfile)
		private.PUT("/profile", accountsHandler.UpdateProfile)
		if d.AuthLimiter != nil {
			private.PUT("/change-password", middlewares.RateLimit(d.AuthLimiter, "password", middlewares.KeyByUserOrIP), authHandler.ChangePassword)
		} else {
			private.PUT("/change-password", authHandler.ChangePassword)
		}
		private.DELETE("/delete-account", accountsHandler.DeleteAccount)
	}

	admin := private.Group("/admin")
	admin.Use(allow(authz.DeleteUser))
	{
		admin.DELETE("/delete-user/:id", accountsHandler.AdminDeleteUser)
	}

	return r
}
