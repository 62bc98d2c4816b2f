package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/blogstack/auth-service/internal/api/handler"
	"github.com/blogstack/auth-service/internal/api/middleware"
	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	AuthService ports.AuthService
	Guard       ports.Guard
	// OAuth serves the Google redirect flow; nil leaves those routes unregistered.
	OAuth     *handler.OAuthHandler
	Readiness *handler.HealthDependenciesHandler
	Logger    zerolog.Logger
	// Registry receives the HTTP request metrics; defaults to the global registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Logger))
	e.Use(metricsMiddleware(cfg.Registry))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	userHandler := handler.NewUserHandler(cfg.AuthService)
	requireAuth := middleware.Auth(cfg.Guard)

	// --- Auth routes ---
	g := e.Group("/api/auth")
	g.POST("/signup", authHandler.Signup)
	g.POST("/signin", authHandler.Signin)
	g.POST("/google", authHandler.Google)
	g.POST("/signout", authHandler.Signout)

	if cfg.OAuth != nil {
		g.GET("/google", cfg.OAuth.Start)
		g.GET("/google/callback", cfg.OAuth.Callback)
	}

	// --- Identity routes (session required) ---
	g.GET("/me", userHandler.Me, requireAuth)
	g.GET("/users", userHandler.List, requireAuth, middleware.RequireRole(cfg.Guard, domain.RoleAdmin))
	g.GET("/users/:id", userHandler.Get, requireAuth)
	g.PATCH("/users/:id", userHandler.Update, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readiness := cfg.Readiness
	if readiness == nil {
		readiness = handler.NewHealthDependenciesHandler(nil, nil)
	}

	e.GET("/health", healthHandler.Liveness)    // liveness  – is the process alive?
	e.GET("/health/ready", readiness.Readiness) // readiness – are dependencies up?

	// --- Operability ---
	e.GET("/metrics", metricsHandler(cfg.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
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

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	if reg == nil {
		return echoprometheus.NewMiddleware("http")
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: reg,
	})
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
