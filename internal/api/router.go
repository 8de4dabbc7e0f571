package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/dataflow/console/docs"
	"github.com/dataflow/console/internal/api/handler"
	"github.com/dataflow/console/internal/api/middleware"
	"github.com/dataflow/console/internal/core/ports"
)

// Services is everything the console API drives.
type Services struct {
	Session  ports.SessionService
	Scrapes  ports.ScrapeService
	Catalog  ports.CatalogService
	Plans    ports.PlanService
	Accounts ports.AccountService
	// Checks are probed by /health/ready, keyed by dependency name.
	Checks map[string]handler.Checker
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	// HTTP metrics live on a per-router registry so several routers can
	// coexist in one process; /metrics serves them next to the defaults.
	httpMetrics := prometheus.NewRegistry()
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "dataflow",
		Subsystem:  "console",
		Registerer: httpMetrics,
	}))

	requireSession := middleware.RequireSession(svc.Session)
	requirePaid := middleware.RequirePlan(middleware.PaidPlans()...)

	// --- Health, metrics and docs (no session required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(svc.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{httpMetrics, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session ---
	sessionHandler := handler.NewSessionHandler(svc.Session)
	e.GET("/session", sessionHandler.Get)
	e.DELETE("/session", sessionHandler.SignOut)
	e.POST("/session/signin", sessionHandler.SignIn)
	e.POST("/session/signup", sessionHandler.SignUp)
	e.POST("/session/refresh", sessionHandler.Refresh, requireSession)

	// --- Catalog and reference ---
	catalogHandler := handler.NewCatalogHandler(svc.Catalog)
	e.GET("/datasets", catalogHandler.List)
	e.GET("/datasets/:id", catalogHandler.Get)
	e.POST("/datasets/:id/download", catalogHandler.Download, requireSession)
	e.GET("/endpoints", catalogHandler.Endpoints)

	// --- Billing ---
	billingHandler := handler.NewBillingHandler(svc.Plans, svc.Session)
	e.GET("/plans", billingHandler.Plans)
	e.POST("/plans/:id/subscribe", billingHandler.Subscribe, requireSession)

	// --- Account ---
	accountHandler := handler.NewAccountHandler(svc.Accounts)
	account := e.Group("/account", requireSession)
	account.GET("", accountHandler.Account)
	account.GET("/usage", accountHandler.Usage)
	account.POST("/api-key", accountHandler.RotateKey)

	// --- Scrapes ---
	scrapeHandler := handler.NewScrapeHandler(svc.Scrapes)
	scrapes := e.Group("/scrapes", requireSession)
	scrapes.POST("", scrapeHandler.Submit, requirePaid)
	scrapes.GET("", scrapeHandler.List)
	scrapes.GET("/:id", scrapeHandler.Get)
	scrapes.DELETE("/:id", scrapeHandler.Cancel)

	return e
}

// requestLogger logs one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
