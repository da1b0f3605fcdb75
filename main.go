// File: salonbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salonbook/config"
	"salonbook/cron"
	"salonbook/database"
	recordsRepo "salonbook/database/repository/records"
	"salonbook/handlers"
	"salonbook/middleware"
	"salonbook/routes"
	"salonbook/services/backend"
	"salonbook/services/booking"
	"salonbook/services/catalog"
	"salonbook/services/payment"
	"salonbook/services/tasks"
	"salonbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.AppConfig.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET must be set")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	cacheClient := utils.GetCacheClient()

	// collaborators.
	backendClient := backend.NewClient(
		config.AppConfig.BackendBaseURL,
		logger.Named("backend"),
		backend.WithTimeout(config.AppConfig.BackendTimeout),
		backend.WithServiceToken(config.AppConfig.BackendServiceToken),
	)
	cachedCatalog := catalog.NewCachedCatalog(
		backendClient,
		utils.NewRedisCache(cacheClient),
		config.AppConfig.CatalogCacheTTL,
		logger.Named("catalog"),
	)
	checkout, err := payment.NewCheckoutProvider(
		config.AppConfig.PaymentProvider,
		config.AppConfig.StripeKey,
		config.AppConfig.PaymentCurrency,
		logger.Named("payment"),
	)
	if err != nil {
		logger.Fatal("main: invalid payment configuration", zap.Error(err))
	}

	// repositories.
	records, err := recordsRepo.NewMongoRecordRepo(database.Database())
	if err != nil {
		logger.Fatal("main: failed to prepare flow records", zap.Error(err))
	}

	// reminders.
	asynqClient := asynq.NewClient(cron.RedisOpt())
	defer asynqClient.Close()
	salonZone := config.Location()
	reminders := tasks.NewReminderScheduler(asynqClient, config.AppConfig.ReminderLead, salonZone, logger.Named("reminders"))
	worker := cron.InitReminderWorker(ctx, backendClient, logger.Named("reminder-worker"))

	// booking flows.
	flows := booking.NewRegistry(cachedCatalog, booking.Dependencies{
		Backend:   backendClient,
		Checkout:  checkout,
		Recorder:  records,
		Reminders: reminders,
		Logger:    logger.Named("booking"),
		Now:       func() time.Time { return time.Now().In(salonZone) },
	}, booking.WithFlowTTL(config.AppConfig.FlowTTL))
	flows.StartJanitor(ctx, time.Minute)

	utils.StartHealthMonitor(ctx, time.Minute, map[string]utils.HealthCheck{
		"redis": func(ctx context.Context) error { return cacheClient.Ping(ctx).Err() },
		"mongo": func(ctx context.Context) error { return database.MongoClient.Ping(ctx, nil) },
	})

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin, logger))

	handlerBundle := handlers.NewHandlerBundle(
		[]byte(config.AppConfig.JWTSecret),
		handlers.NewCatalogHandler(cachedCatalog, logger.Named("catalog-handler")),
		handlers.NewBookingHandler(flows, records, logger.Named("booking-handler")),
		handlers.NewHistoryHandler(records, logger.Named("history-handler")),
	)
	routes.RegisterRoutes(router, handlerBundle, config.AllowedOrigins(), logger)

	// Start the HTTP server.
	srv := &http.Server{
		Addr:              "0.0.0.0:" + config.AppConfig.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
