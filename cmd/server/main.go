package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"laptopadvisor/internal/config"
	"laptopadvisor/internal/handler"
	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/logging"
	"laptopadvisor/internal/repository"
	"laptopadvisor/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Laptop Advisor starting")

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Optional persistence
	var store service.Store
	if cfg.PostgreSQL.Enabled {
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer repo.Close()

		if err := repo.EnsureSchema(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
		store = repo
		logger.Info().Msg("Connected to PostgreSQL database")
	} else {
		logger.Warn().Msg("PostgreSQL is disabled - catalogs, training runs and request logs will not be persisted")
	}

	svc := service.NewRecommendationService(cfg.Service(), store, logger)

	if err := loadCatalog(context.Background(), svc, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load catalog")
	}

	if cfg.Training.OnStart {
		go func() {
			if _, err := svc.Train(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Initial training failed; POST /api/v1/model/train to retry")
			}
		}()
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger), handler.Metrics())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := svc.Status()
		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"service":      "laptop-advisor",
			"state":        status.State,
			"catalog_size": status.CatalogSize,
			"version":      Version,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router, svc, handler.RouteOptions{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RecommendRPS:   cfg.RateLimit.RecommendRPS,
		RecommendBurst: cfg.RateLimit.RecommendBurst,
		TrainRPS:       cfg.RateLimit.TrainRPS,
		TrainBurst:     cfg.RateLimit.TrainBurst,
	}, logger)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	// Let pending log writes reach the store before it is closed
	svc.Wait()
	logger.Info().Msg("Server stopped")
}

// loadCatalog restores the stored catalog, then falls back to the configured
// file and finally to the built-in sample catalog
func loadCatalog(ctx context.Context, svc *service.RecommendationService, cfg *config.Config, logger zerolog.Logger) error {
	restored, err := svc.LoadFromStore(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not restore catalog from database")
	}
	if restored {
		logger.Info().Int64("catalog_version", svc.Catalog().Version).Msg("Catalog restored from database")
		return nil
	}

	fileErr := ingestFile(ctx, svc, cfg)
	if fileErr == nil {
		return nil
	}
	if !cfg.Catalog.SampleFallback {
		return fileErr
	}

	logger.Warn().Err(fileErr).Str("path", cfg.Catalog.Path).Msg("Using built-in sample catalog")
	_, err = svc.LoadLaptops(ctx, ingest.SampleCatalog())
	return err
}

func ingestFile(ctx context.Context, svc *service.RecommendationService, cfg *config.Config) error {
	f, err := os.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = svc.Ingest(ctx, f, cfg.CatalogFormat())
	return err
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
