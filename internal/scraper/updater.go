package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/models"
	"github.com/maltedev/shopping-price-tracker/internal/ratelimit"
)

// ProductScraper is the single-product pipeline as seen by the updater.
type ProductScraper interface {
	Scrape(ctx context.Context, req Request) (*models.Product, error)
}

type ProductLister interface {
	ListAll(ctx context.Context) ([]*models.Product, error)
}

type UpdateOptions struct {
	Filter          models.Filter
	MaxStoreClicks  int
	MaxReviewClicks int
}

type Failure struct {
	ID    string
	URL   string
	Error string
}

type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []Failure
	Duration  time.Duration
}

// feedback is implemented by limiters that adapt to outcomes.
type feedback interface {
	RecordSuccess()
	RecordError()
}

// Updater re-scrapes stored products one at a time. A failing product is
// logged and skipped; only listing errors and cancellation end the run.
type Updater struct {
	scraper ProductScraper
	store   ProductLister
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

func NewUpdater(s ProductScraper, store ProductLister, limiter ratelimit.RateLimiter, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		scraper: s,
		store:   store,
		limiter: limiter,
		logger:  logger.With("component", "updater"),
	}
}

func (u *Updater) Run(ctx context.Context, opts UpdateOptions) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	products, err := u.store.ListAll(ctx)
	if err != nil {
		return summary, err
	}

	selected := opts.Filter.Apply(products)
	summary.Total = len(selected)
	u.logger.Info("starting update", "stored", len(products), "selected", len(selected))

	for i, p := range selected {
		if err := u.limiter.Wait(ctx); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		log := u.logger.With("id", p.ID, "url", p.SourceURL, "position", i+1, "total", len(selected))
		log.Info("updating product")

		_, err := u.scraper.Scrape(ctx, Request{
			URL:             p.SourceURL,
			Category:        p.Category,
			Brand:           p.Brand,
			MaxStoreClicks:  opts.MaxStoreClicks,
			MaxReviewClicks: opts.MaxReviewClicks,
		})
		u.limiter.Done()

		if err != nil {
			if ctx.Err() != nil {
				summary.Duration = time.Since(start)
				return summary, ctx.Err()
			}

			log.Error("product update failed", "error", err)
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{ID: p.ID, URL: p.SourceURL, Error: err.Error()})
			if fb, ok := u.limiter.(feedback); ok {
				fb.RecordError()
			}
			continue
		}

		summary.Succeeded++
		if fb, ok := u.limiter.(feedback); ok {
			fb.RecordSuccess()
		}
	}

	summary.Duration = time.Since(start)
	u.logger.Info("update finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", summary.Duration.Round(time.Second))

	return summary, nil
}
