package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/najah-ai/learner-service/internal/cache"
	"github.com/najah-ai/learner-service/internal/config"
	"github.com/najah-ai/learner-service/internal/handlers"
	"github.com/najah-ai/learner-service/internal/repositories/postgres"
	"github.com/najah-ai/learner-service/internal/services"
	"github.com/najah-ai/learner-service/internal/utils"
	"github.com/najah-ai/learner-service/internal/validator"
	"github.com/najah-ai/learner-service/pkg"
	"github.com/najah-ai/learner-service/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("learner-service: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	var cacheService cache.CacheService = cache.NopCache{}
	if cfg.Redis.Enabled {
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable, trend reports will not be cached", "error", err)
		} else {
			defer client.Close()
			cacheService = cache.NewRedisCache(client, slogger)
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	metricsManager := metrics.NewManager()

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Cache:     cacheService,
		Publisher: publisher,
		Metrics:   metricsManager,
		Logger:    slogger,
		Validator: validator.New(),
		Config:    cfg,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.RequestID(),
		utils.LoggerMiddleware(logger),
		utils.ContextLogger(logger),
		metricsManager.Middleware(),
	)

	handlers.NewHandlerManager(serviceManager, metricsManager, repo, cfg.JWTSecret, logger).SetupRoutes(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", utils.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server shutdown failed")
		return err
	}

	logger.Info("Server stopped")
	return nil
}
