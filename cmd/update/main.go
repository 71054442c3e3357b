package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/app"
	"github.com/maltedev/shopping-price-tracker/internal/config"
	"github.com/maltedev/shopping-price-tracker/internal/models"
	"github.com/maltedev/shopping-price-tracker/internal/ratelimit"
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
		limit        = flag.Int("limit", 0, "Maximum number of products to update (0 = all)")
		offset       = flag.Int("offset", 0, "Number of matching products to skip")
		category     = flag.String("category", "", "Only update products in this category")
		brand        = flag.String("brand", "", "Only update products of this brand")
		delay        = flag.Duration("delay", cfg.Update.Delay, "Delay between products")
		maxDelay     = flag.Duration("max-delay", cfg.Update.MaxDelay, "Upper bound for a jittered delay")
		adaptive     = flag.Bool("adaptive", false, "Back off after repeated failures")
		storeClicks  = flag.Int("store-clicks", cfg.Scraper.MaxStoreClicks, "Maximum 'more stores' activations")
		reviewClicks = flag.Int("review-clicks", cfg.Scraper.MaxReviewClicks, "Maximum 'more reviews' activations")
		store        = flag.String("store", app.StorePostgres, "Product store: postgres or memory")
		logLevel     = flag.String("log-level", cfg.Logging.Level, "Log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg.Update.Delay = *delay
	cfg.Update.MaxDelay = *maxDelay
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

	var limiter ratelimit.RateLimiter = ratelimit.NewSimpleRateLimiter(cfg.Update.Delay, cfg.Update.MaxDelay)
	if *adaptive {
		limiter = ratelimit.NewAdaptiveRateLimiter(cfg.Update.Delay, cfg.Update.MaxDelay)
	}

	orchestrator := app.NewOrchestrator(cfg, products, app.Components{}, os.Stderr, log)
	updater := scraper.NewUpdater(orchestrator, products, limiter, log)

	summary, err := updater.Run(ctx, scraper.UpdateOptions{
		Filter: models.Filter{
			Category: *category,
			Brand:    *brand,
			Limit:    *limit,
			Offset:   *offset,
		},
		MaxStoreClicks:  *storeClicks,
		MaxReviewClicks: *reviewClicks,
	})
	if err != nil {
		log.Error("update aborted", "error", err,
			"succeeded", summary.Succeeded,
			"failed", summary.Failed)
		closeStore()
		os.Exit(1)
	}

	for _, f := range summary.Failures {
		log.Warn("failed product", "id", f.ID, "url", f.URL, "error", f.Error)
	}
	log.Info("update summary",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", summary.Duration.Round(time.Second))
}
