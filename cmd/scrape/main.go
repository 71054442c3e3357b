package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/shopping-price-tracker/internal/app"
	"github.com/maltedev/shopping-price-tracker/internal/config"
	"github.com/maltedev/shopping-price-tracker/internal/scraper"
	"github.com/maltedev/shopping-price-tracker/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var (
		url          = flag.String("url", "", "Google Shopping product URL (required)")
		category     = flag.String("category", "", "Category override (default: inferred from the product name)")
		brand        = flag.String("brand", "", "Brand override (default: inferred from the product name)")
		storeClicks  = flag.Int("store-clicks", cfg.Scraper.MaxStoreClicks, "Maximum 'more stores' activations")
		reviewClicks = flag.Int("review-clicks", cfg.Scraper.MaxReviewClicks, "Maximum 'more reviews' activations")
		store        = flag.String("store", app.StorePostgres, "Product store: postgres or memory")
		artifactsDir = flag.String("artifacts", cfg.Artifacts.Dir, "Directory for screenshots and HTML dumps")
		printRecord  = flag.Bool("print", false, "Print the stored record as JSON")
		logLevel     = flag.String("log-level", cfg.Logging.Level, "Log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg.Artifacts.Dir = *artifactsDir
	log := logger.New(*logLevel, cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	products, closeStore, err := app.OpenStore(ctx, cfg, *store, log)
	if err != nil {
		log.Error("failed to open product store", "store", *store, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	orchestrator := app.NewOrchestrator(cfg, products, app.Components{}, os.Stderr, log)

	product, err := orchestrator.Scrape(ctx, scraper.Request{
		URL:             *url,
		Category:        *category,
		Brand:           *brand,
		MaxStoreClicks:  *storeClicks,
		MaxReviewClicks: *reviewClicks,
	})
	if err != nil {
		log.Error("scrape failed", "url", *url, "error", err)
		closeStore()
		os.Exit(1)
	}

	log.Info("scrape completed",
		"id", product.ID,
		"name", product.Name,
		"category", product.Category,
		"brand", product.Brand,
		"stores", len(product.Stores),
		"reviews", len(product.Reviews),
		"lowest_price", product.LowestPrice,
		"highest_price", product.HighestPrice,
		"average_price", product.AveragePrice,
		"history_entries", len(product.PriceHistory))

	if *printRecord {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(product); err != nil {
			log.Error("failed to print record", "error", err)
			closeStore()
			os.Exit(1)
		}
	}
}
