package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"cellstatus-platform/internal/config"
	"cellstatus-platform/internal/repository"
	"cellstatus-platform/internal/services"
	"cellstatus-platform/pkg/database"
	"cellstatus-platform/pkg/logging"
	"cellstatus-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	dataDir := flag.String("data-dir", "./measurements", "Directory containing measurement CSV files")
	batchSize := flag.Int("batch-size", 1000, "Number of records to process in each batch")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("cellstatus-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting measurement data ingestion", logging.Fields{
		"version":    "1.0.0",
		"data_dir":   *dataDir,
		"batch_size": *batchSize,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("cellstatus_ingester")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and service
	floorRepo := repository.NewFloorRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(floorRepo, logger, metricsCollector)

	// Run ingestion
	result, err := ingestionService.IngestDirectory(ctx, *dataDir, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Ingestion failed", logging.Fields{
			"data_dir": *dataDir,
		}, err)
	}

	fmt.Println("Ingestion completed:")
	fmt.Printf("  Files processed:    %d\n", result.TotalFiles)
	fmt.Printf("  Total records:      %d\n", result.TotalRecords)
	fmt.Printf("  Successful records: %d\n", result.SuccessfulRecords)
	fmt.Printf("  Failed records:     %d\n", result.FailedRecords)
	fmt.Printf("  Duration:           %s\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("  Errors:\n    %s\n", strings.Join(result.Errors, "\n    "))
		os.Exit(1)
	}
}
