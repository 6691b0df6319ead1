package http

import (
	"log/slog"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/config"
	"github.com/KerenDoz/Event-Planner/internal/http/handlers"
	"github.com/KerenDoz/Event-Planner/internal/http/middlewares"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Config config.Config
	Log    *slog.Logger

	// Prom and Gatherer may be nil; /metrics is then not mounted.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	Tokens     middlewares.TokenVerifier
	Accounts   handlers.AccountService
	Categories handlers.CategoryService
	Locations  handlers.LocationService
	Events     handlers.EventService

	// readiness checks by name
	Checks map[string]handlers.Check
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(middlewares.RequestID())
	if cfg.OTelEndpoint != "" {
		r.Use(otelgin.Middleware(cfg.OTelServiceName))
	}
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.Recovery())
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.CSRFHeader, "If-None-Match"},
		ExposeHeaders:    []string{"ETag", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.CSRF(middlewares.CSRFOptions{
		AuthKey:        cfg.CSRFKey(),
		Secure:         cfg.IsProd(),
		TrustedOrigins: cfg.CORSAllowedOrigins,
	}))
	r.Use(handlers.Flashes(cfg.FlashKey(), cfg.IsProd()))

	// health + metrics

	health := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/csrf", handlers.CSRFToken)

	cookies := handlers.CookieConfig{Secure: cfg.IsProd()}
	authMW := middlewares.NewAuthMiddleware(deps.Tokens)
	requireAuth := authMW.RequireAuth()

	// account

	account := handlers.NewAccountHandler(deps.Accounts, cookies)

	acc := r.Group("/account")
	{
		acc.GET("/register", account.RegisterForm)
		acc.POST("/register", account.Register)
		acc.GET("/login", account.LoginForm)
		acc.POST("/login", account.Login)
		acc.POST("/refresh", account.Refresh)

		acc.POST("/logout", requireAuth, account.Logout)
		acc.GET("/manage", requireAuth, account.ManageForm)
		acc.POST("/manage", requireAuth, account.Manage)
		acc.GET("/changeusername", requireAuth, account.ChangeUsernameForm)
		acc.POST("/changeusername", requireAuth, account.ChangeUsername)
		acc.GET("/changeemail", requireAuth, account.ChangeEmailForm)
		acc.POST("/changeemail", requireAuth, account.ChangeEmail)
		acc.GET("/changepassword", requireAuth, account.ChangePasswordForm)
		acc.POST("/changepassword", requireAuth, account.ChangePassword)
	}

	// categories

	categories := handlers.NewCategoriesHandler(deps.Categories)

	cat := r.Group("/categories")
	{
		cat.GET("", categories.List)

		cat.GET("/create", requireAuth, categories.CreateForm)
		cat.POST("/create", requireAuth, categories.Create)
		cat.GET("/edit/:id", requireAuth, categories.EditForm)
		cat.POST("/edit/:id", requireAuth, categories.Edit)
		cat.GET("/delete/:id", requireAuth, categories.DeleteForm)
		cat.POST("/deleteconfirmed/:id", requireAuth, categories.DeleteConfirmed)
	}

	// locations

	locations := handlers.NewLocationsHandler(deps.Locations)

	loc := r.Group("/locations")
	{
		loc.GET("", locations.List)

		loc.GET("/create", requireAuth, locations.CreateForm)
		loc.POST("/create", requireAuth, locations.Create)
		loc.GET("/edit/:id", requireAuth, locations.EditForm)
		loc.POST("/edit/:id", requireAuth, locations.Edit)
		loc.GET("/delete/:id", requireAuth, locations.DeleteForm)
		loc.POST("/deleteconfirmed/:id", requireAuth, locations.DeleteConfirmed)
	}

	// events

	events := handlers.NewEventsHandler(deps.Events, deps.Categories, deps.Locations)

	ev := r.Group("/events")
	{
		ev.GET("", events.List)
		ev.GET("/details/:id", authMW.OptionalAuth(), events.Details)

		ev.GET("/create", requireAuth, events.CreateForm)
		ev.POST("/create", requireAuth, events.Create)
		ev.GET("/edit/:id", requireAuth, events.EditForm)
		ev.POST("/edit/:id", requireAuth, events.Edit)
		ev.GET("/delete/:id", requireAuth, events.DeleteForm)
		ev.POST("/deleteconfirmed/:id", requireAuth, events.DeleteConfirmed)
		ev.GET("/myevents", requireAuth, events.MyEvents)
	}

	return r
}
