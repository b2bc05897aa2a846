package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/foodlens/backend/config"
	httpDelivery "github.com/foodlens/backend/internal/delivery/http"
	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/infrastructure/cache"
	"github.com/foodlens/backend/internal/infrastructure/catalogfile"
	"github.com/foodlens/backend/internal/infrastructure/rekognition"
	"github.com/foodlens/backend/internal/infrastructure/storage"
	"github.com/foodlens/backend/internal/usecase"
)

const version = "1.0.0"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log.Level, cfg.Server.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting FoodLens backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Nutrition catalog; a missing or broken table leaves it empty
	catalog := usecase.NewNutritionCatalog(catalogfile.LoadOrEmpty(cfg.Catalog.Path, logger))
	if catalog.IsEmpty() {
		logger.Warn("Nutrition catalog is empty, every food will use the fallback estimate")
	}
	analyzer := usecase.NewFoodAnalyzer(catalog, logger)

	classifier, closeCache, err := buildClassifier(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize classifier", zap.Error(err))
	}
	defer closeCache()

	// Analysis history is optional
	var history domain.AnalysisRepository
	if cfg.Storage.Path != "" {
		store, err := storage.NewSQLiteStorage(cfg.Storage.Path)
		if err != nil {
			logger.Fatal("Failed to open history database", zap.String("path", cfg.Storage.Path), zap.Error(err))
		}
		defer store.Close()
		history = store
		logger.Info("Analysis history enabled", zap.String("path", cfg.Storage.Path))
	}

	service := usecase.NewFoodService(classifier, analyzer, logger)
	handler := httpDelivery.NewHandler(service, catalog, history, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// buildClassifier wires the configured classifier and its label cache.
// It returns a nil classifier when none is configured; image analysis then answers 503.
func buildClassifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.Classifier, func(), error) {
	noop := func() {}

	if cfg.Classifier.Provider != "rekognition" {
		logger.Info("No image classifier configured, only label analysis and lookups are available")
		return nil, noop, nil
	}

	base, err := rekognition.New(ctx, cfg.Classifier.Region, rekognition.Options{
		MaxLabels:         int32(cfg.Classifier.MaxLabels),
		MinConfidence:     float32(cfg.Classifier.MinConfidence),
		Timeout:           cfg.Classifier.Timeout,
		RequestsPerSecond: cfg.Classifier.RequestsPerSecond,
		Burst:             cfg.Classifier.Burst,
	}, logger)
	if err != nil {
		return nil, noop, err
	}
	logger.Info("Rekognition classifier configured",
		zap.String("region", cfg.Classifier.Region),
		zap.Int("maxLabels", cfg.Classifier.MaxLabels))

	switch cfg.Cache.Type {
	case "memory":
		memoryCache := cache.NewMemoryCache()
		logger.Info("Label cache enabled", zap.String("type", "memory"), zap.Duration("ttl", cfg.Cache.TTL))
		return usecase.NewCachingClassifier(base, memoryCache, cfg.Cache.TTL, logger), memoryCache.Close, nil
	case "lru":
		lruCache, err := cache.NewLRUCache(cfg.Cache.Size)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Label cache enabled",
			zap.String("type", "lru"),
			zap.Int("size", cfg.Cache.Size),
			zap.Duration("ttl", cfg.Cache.TTL))
		return usecase.NewCachingClassifier(base, lruCache, cfg.Cache.TTL, logger), noop, nil
	default:
		return base, noop, nil
	}
}
