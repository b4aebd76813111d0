package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/http/mapper"
	catalogpostgres "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/persistence/postgres"
	platformobservability "github.com/hcustod/inventory-management-system/internal/platform/observability"
	platformpostgres "github.com/hcustod/inventory-management-system/internal/platform/postgres"
)

// Prints the products whose stock is below their low-stock threshold as JSON.
// CATEGORY_IDS (comma separated) restricts the report to those categories.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts, err := platformobservability.OptionsFromEnv("inventory-low-stock-report")
	if err != nil {
		log.Fatalf("invalid observability settings: %v", err)
	}
	opts.TraceExporter = platformobservability.ExporterNone
	opts.Output = os.Stderr
	instruments, shutdown, err := platformobservability.Init(ctx, opts)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	logger := instruments.Logger

	categoryIDs, err := categoryIDsFromEnv()
	if err != nil {
		log.Fatalf("invalid CATEGORY_IDS: %v", err)
	}
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot build low-stock report")
	}

	products, err := catalogpostgres.NewProductRepository(db).LowStockReport(ctx, categoryIDs)
	if err != nil {
		log.Fatalf("failed to build low-stock report: %v", err)
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(mapper.FromProductProjectionList(products)); err != nil {
		log.Fatalf("failed to write report: %v", err)
	}
	logger.Info("low-stock report completed", slog.Int("products", len(products)), slog.Any("categoryIds", categoryIDs))
}

func categoryIDsFromEnv() ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(os.Getenv("CATEGORY_IDS"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q is not a category id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
