package api

import (
	"log/slog"

	"voltbridge/internal/api/handlers"
	"voltbridge/internal/api/middleware"
	"voltbridge/internal/metrics"
	"voltbridge/internal/session"
	"voltbridge/internal/vendors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Registry      *vendors.Registry
	Codec         *session.Codec
	SecureCookies bool
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	PromGatherer  prometheus.Gatherer
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.Metrics(config.Metrics))
	router.Use(middleware.ContentType())

	// Health check and metrics (no session involved)
	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(config.PromGatherer, promhttp.HandlerOpts{})))

	// Every request gets its own cookie-backed token store
	stores := handlers.StoreFactory(func(c *gin.Context) session.Store {
		return session.NewCookieStore(c.Writer, c.Request, config.Codec, config.SecureCookies)
	})

	v1 := router.Group("/v1")
	{
		authHandler := handlers.NewAuthHandler(config.Registry, stores, config.Logger, config.Metrics)
		v1.POST("/logout", authHandler.Logout)
		v1.GET("/:vendor/status", authHandler.Status)
		v1.POST("/:vendor/exchange", authHandler.ExchangeCode)
		v1.POST("/:vendor/disconnect", authHandler.Disconnect)

		devicesHandler := handlers.NewDevicesHandler(config.Registry, stores, config.Logger, config.Metrics)
		v1.GET("/:vendor/devices", devicesHandler.List)
		v1.GET("/:vendor/devices/details", devicesHandler.ListDetails)
		v1.GET("/:vendor/devices/:id", devicesHandler.GetDetail)
		v1.POST("/:vendor/devices/:id/wake", devicesHandler.Wake)
		v1.POST("/:vendor/devices/:id/command/:name", devicesHandler.Command)
	}

	return router
}
