package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/skuwatch/metrics-service/config"
	"github.com/skuwatch/metrics-service/internal/database"
	"github.com/skuwatch/metrics-service/internal/handlers"
	"github.com/skuwatch/metrics-service/internal/middleware"
	"github.com/skuwatch/metrics-service/internal/sweepers"
	"github.com/skuwatch/metrics-service/internal/telemetry"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

// @title Metrics Service API
// @version 1.0
// @description Time-series metric queries, comparisons and exports for tracked Amazon products.
// @BasePath /
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting metrics service")

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	engine := trends.NewEngine(
		database.NewSnapshotStore(database.Pool()),
		trends.EngineConfig{
			CacheTTL:           cfg.Trends.CacheTTL,
			CompareConcurrency: cfg.Trends.CompareConcurrency,
		},
	)
	handlers.Setup(engine)

	retentionSweeper := sweepers.NewRetentionSweeper(
		database.Pool(), logger, cfg.Retention.SweepInterval, cfg.Retention.Window)
	go retentionSweeper.Start(ctx)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	// Public surface: per-IP limiting, no API key. Everything under
	// /metrics and /internal is service-to-service and globally limited.
	public := router.Group("/")
	public.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
	}))
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/prometheus", gin.WrapH(promhttp.Handler()))
		public.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	metrics := router.Group("/metrics")
	metrics.Use(middleware.InternalAuthMiddleware(cfg.Auth.InternalAPIKey))
	metrics.Use(middleware.ServiceRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize))
	{
		metrics.GET("/fields/available", handlers.ListAvailableFields)

		products := metrics.Group("/products")
		{
			products.GET("/:id/trends", handlers.GetTrends)
			products.GET("/:id/trends/export", handlers.ExportTrends)
			products.GET("/:id/summary", handlers.GetMetricsSummary)
		}

		metrics.POST("/compare", handlers.CompareProducts)
		metrics.POST("/category/trend", handlers.GetCategoryTrend)
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Auth.InternalAPIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.POST("/snapshots", handlers.IngestSnapshot)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	retentionSweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down telemetry")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "metrics-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
