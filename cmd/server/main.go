package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"medride/internal/app"
	"medride/internal/config"
	"medride/internal/handler"
	"medride/internal/maps"
	"medride/internal/notify"
	internalRedis "medride/internal/redis"
	"medride/internal/repository/postgres"
	"medride/internal/service"
	"medride/internal/storage"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// Wire dependencies.
	server, cleanup := wireServer(db, redisClient, nrApp, cfg, logger)
	defer cleanup()

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server together
// with a cleanup func for the outbound connections it opened.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) (*http.Server, func()) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	uow := postgres.NewUnitOfWork(db)
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	locationRepo := postgres.NewLocationRepository(db)
	logRepo := postgres.NewLogRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	// Outbound integrations. Each one is optional.
	var publishers []service.Publisher
	var pusherClient *notify.PusherPublisher
	if cfg.Pusher.Enabled() {
		pusherClient = notify.NewPusherPublisher(cfg.Pusher.AppID, cfg.Pusher.Key, cfg.Pusher.Secret, cfg.Pusher.Cluster)
		publishers = append(publishers, pusherClient)
	} else {
		logger.Warn("pusher not configured, realtime events disabled")
	}

	if cfg.AMQP.URL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Warn("event bus unavailable", zap.Error(err))
		} else {
			publishers = append(publishers, amqpPublisher)
			cleanups = append(cleanups, amqpPublisher.Close)
		}
	}

	var chat service.ChatSender
	if cfg.Line.ChannelToken != "" {
		lineSender, err := notify.NewLineSender(cfg.Line.ChannelToken)
		if err != nil {
			logger.Warn("line messaging unavailable", zap.Error(err))
		} else {
			chat = lineSender
		}
	}

	var routes service.RouteEstimator
	if cfg.Maps.APIKey != "" {
		estimator, err := maps.NewRouteEstimator(cfg.Maps.APIKey)
		if err != nil {
			logger.Warn("route estimates disabled", zap.Error(err))
		} else {
			routes = estimator
		}
	}

	var slips service.SlipStorage
	var uploadDir string
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3SlipStorage(cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.Endpoint)
		if err != nil {
			logger.Fatal("failed to initialize slip storage", zap.Error(err))
		}
		slips = s3Storage
	} else {
		localStorage, err := storage.NewLocalSlipStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			logger.Fatal("failed to initialize slip storage", zap.Error(err))
		}
		logger.Warn("S3 not configured, storing slips on local disk", zap.String("dir", localStorage.Dir()))
		slips = localStorage
		uploadDir = localStorage.Dir()
	}

	// Initialize services.
	contacts := service.NewRepositoryContacts(userRepo, driverRepo)
	notificationService := service.NewNotificationService(logger.Named("notify"), chat, contacts, publishers...)
	auditWriter := service.NewAuditWriter()
	pricing := service.Pricing{HourlyRate: cfg.Pricing.HourlyRate, DefaultHours: cfg.Pricing.DefaultHours}

	bookingService := service.NewBookingService(uow, bookingRepo, locationRepo, logRepo, cacheStore, routes, auditWriter, notificationService, pricing, logger.Named("booking"))
	assignmentService := service.NewAssignmentService(uow, lockStore, cacheStore, auditWriter, notificationService, logger.Named("assignment"))
	paymentService := service.NewPaymentService(uow, bookingRepo, slips, cacheStore, auditWriter, notificationService, logger.Named("payment"))
	reportService := service.NewReportService(uow, bookingRepo, reportRepo, auditWriter, notificationService, logger.Named("report"))
	driverService := service.NewDriverService(uow, driverRepo, bookingRepo, locationStore, notificationService, logger.Named("driver"))
	matchingService := service.NewMatchingService(locationStore, driverRepo, bookingRepo, locationRepo, logger.Named("matching"))

	// Initialize handlers.
	var realtimeHandler *handler.RealtimeHandler
	if pusherClient != nil {
		realtimeHandler = handler.NewRealtimeHandler(service.NewRealtimeAuthorizer(cfg.Auth.JWTSecret, pusherClient))
	}

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler:  handler.NewBookingHandler(bookingService, assignmentService),
		AdminHandler:    handler.NewAdminHandler(bookingService, assignmentService, matchingService),
		PaymentHandler:  handler.NewPaymentHandler(paymentService),
		ReportHandler:   handler.NewReportHandler(reportService),
		DriverHandler:   handler.NewDriverHandler(driverService, driverRepo),
		UserHandler:     handler.NewUserHandler(userRepo),
		RealtimeHandler: realtimeHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		Logger:          logger.Named("http"),
		AllowOrigins:    cfg.Server.AllowOrigins,
		UploadDir:       uploadDir,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, cleanup
}
