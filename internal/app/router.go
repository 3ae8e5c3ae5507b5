package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"medride/internal/handler"
	"medride/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler  *handler.BookingHandler
	AdminHandler    *handler.AdminHandler
	PaymentHandler  *handler.PaymentHandler
	ReportHandler   *handler.ReportHandler
	DriverHandler   *handler.DriverHandler
	UserHandler     *handler.UserHandler
	RealtimeHandler *handler.RealtimeHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	Logger          *zap.Logger
	AllowOrigins    []string
	UploadDir       string // served under /uploads when slips are kept on disk
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.New(corsConfig(deps.AllowOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}
	router.Use(middleware.ErrorReporter(deps.Logger))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if deps.UploadDir != "" {
		router.Static("/uploads", deps.UploadDir)
	}

	if deps.RealtimeHandler != nil {
		router.POST("/realtime/auth", deps.RealtimeHandler.Auth)
	}

	var idempotencyStore redis.Cmdable
	if deps.RedisClient != nil {
		idempotencyStore = deps.RedisClient
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.IdentityMiddleware())
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore, deps.Logger))
	{
		v1.GET("/statuses", deps.BookingHandler.Statuses)

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.Create)
			bookings.GET("", deps.BookingHandler.List)
			bookings.GET("/pool", deps.BookingHandler.Pool)
			bookings.GET("/:id", deps.BookingHandler.Get)
			bookings.GET("/:id/timeline", deps.BookingHandler.Timeline)
			bookings.POST("/:id/cancel", deps.BookingHandler.Cancel)
			bookings.POST("/:id/accept", deps.BookingHandler.Accept)
			bookings.POST("/:id/return", deps.BookingHandler.Return)
			bookings.POST("/:id/status", deps.BookingHandler.UpdateStatus)
			bookings.POST("/:id/slip", deps.PaymentHandler.UploadSlip)
			bookings.POST("/:id/reports", deps.ReportHandler.Create)
		}

		// Driver self-service routes.
		drivers := v1.Group("/drivers/me")
		{
			drivers.POST("/availability", deps.DriverHandler.SetAvailability)
			drivers.POST("/location", deps.DriverHandler.UpdateLocation)
		}

		// Admin routes.
		admin := v1.Group("/admin")
		{
			admin.POST("/bookings/:id/assign", deps.AdminHandler.Assign)
			admin.DELETE("/bookings/:id", deps.AdminHandler.Delete)
			admin.GET("/bookings/:id/nearby-drivers", deps.AdminHandler.NearbyDrivers)
			admin.POST("/bookings/:id/payment/verify", deps.PaymentHandler.Verify)
			admin.POST("/bookings/:id/payment/reject", deps.PaymentHandler.Reject)

			admin.GET("/reports", deps.ReportHandler.List)
			admin.POST("/reports/:id/reply", deps.ReportHandler.Reply)

			admin.GET("/drivers", deps.DriverHandler.GetAll)
			admin.POST("/drivers", deps.DriverHandler.Register)
			admin.PATCH("/drivers/:id", deps.DriverHandler.AdminUpdate)

			admin.GET("/users", deps.UserHandler.GetAll)
			admin.POST("/users", deps.UserHandler.Register)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key",
		middleware.HeaderUserID, middleware.HeaderDriverID, middleware.HeaderAdminID,
	}
	cfg.ExposeHeaders = []string{"Idempotent-Replayed"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
