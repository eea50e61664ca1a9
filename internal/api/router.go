package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/Ayu-web-cpu/AI-Content-Explorer/docs"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/api/handler"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/api/middleware"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
)

// Dependencies is everything the HTTP layer needs. Services are built by the
// caller so the router stays free of storage concerns.
type Dependencies struct {
	Auth      ports.AuthService
	Content   ports.ContentService
	Dashboard ports.DashboardService
	Tokens    middleware.TokenVerifier

	// Checks feeds the readiness probe, keyed by dependency name.
	Checks map[string]handler.CheckFunc

	CORSOrigins []string
	Logger      zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "ace",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}))

	// --- Ops (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Checks)
	e.GET("/health", healthHandler.Liveness)         // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)

	authenticated := middleware.Authenticate(deps.Tokens)

	// --- Content routes (any signed-in user) ---
	contentHandler := handler.NewContentHandler(deps.Content)
	search := e.Group("/search", authenticated)
	search.GET("", contentHandler.Search)
	search.GET("/history", contentHandler.SearchHistory)
	search.DELETE("/history/:id", contentHandler.DeleteSearch)

	image := e.Group("/image", authenticated)
	image.POST("", contentHandler.GenerateImage)
	image.GET("/history", contentHandler.ImageHistory)
	image.DELETE("/history/:id", contentHandler.DeleteImage)

	// --- Dashboard routes (admins only) ---
	dashboardHandler := handler.NewDashboardHandler(deps.Dashboard)
	admin := e.Group("/dashboard/admin", authenticated, middleware.RequireAdmin())
	admin.GET("/users/all", dashboardHandler.ListAllItems)
	admin.GET("/:id", dashboardHandler.ListUserItems)
	admin.PUT("/:id", dashboardHandler.UpdateItem)

	return e
}

// requestLogger writes one zerolog line per request. Tokens and bodies are
// never logged.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
