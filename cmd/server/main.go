package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/supplymatch/backend/config"
	httpDelivery "github.com/supplymatch/backend/internal/delivery/http"
	"github.com/supplymatch/backend/internal/domain"
	"github.com/supplymatch/backend/internal/infrastructure/excel"
	"github.com/supplymatch/backend/internal/infrastructure/memory"
	"github.com/supplymatch/backend/internal/infrastructure/postgres"
	"github.com/supplymatch/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SupplyMatch Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Storage: %s", cfg.Storage.Type)

	// Initialize storage
	var repo domain.Repository
	var catalog excel.CatalogStore

	switch cfg.Storage.Type {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pgRepo, err := postgres.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		if err := pgRepo.Migrate(ctx); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}

		repo = pgRepo
		catalog = pgRepo
		log.Printf("Postgres schema up to date")
	default:
		memRepo := memory.NewRepository()
		repo = memRepo
		catalog = memRepo
		log.Printf("WARNING: in-memory storage selected - catalog is lost on restart")
	}

	// Initialize usecase layer
	scorer, err := usecase.NewSimilarityScorer(usecase.DefaultScorerConfig())
	if err != nil {
		log.Fatalf("Failed to build scorer: %v", err)
	}

	matcher := usecase.NewMatchService(repo, scorer, usecase.MatchConfig{
		ScanLimit:          cfg.Matching.ScanLimit,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
	comparison := usecase.NewComparisonService(matcher, repo, cfg.Matching.EnableDebugLogging)
	importer := excel.NewImporter(catalog, excel.DefaultColumnMap(), cfg.Matching.EnableDebugLogging)

	log.Printf("Matching: threshold=%.0f%%, maxResults=%d, scanLimit=%d, debug=%v",
		cfg.Matching.DefaultMinSimilarity,
		cfg.Matching.DefaultMaxResults,
		cfg.Matching.ScanLimit,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(matcher, comparison, repo, importer, httpDelivery.HandlerConfig{
		DefaultMinSimilarity: cfg.Matching.DefaultMinSimilarity,
		DefaultMaxResults:    cfg.Matching.DefaultMaxResults,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
