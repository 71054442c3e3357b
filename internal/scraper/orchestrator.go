package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/artifacts"
	"github.com/maltedev/shopping-price-tracker/internal/browser"
	"github.com/maltedev/shopping-price-tracker/internal/expander"
	"github.com/maltedev/shopping-price-tracker/internal/models"
	"github.com/maltedev/shopping-price-tracker/internal/parser"
	"github.com/maltedev/shopping-price-tracker/internal/session"
)

// Sessions hands out navigated pages and snapshots their cookies.
type Sessions interface {
	Open(ctx context.Context, url string) (*session.Handle, error)
	Persist(h *session.Handle) error
}

type Gate interface {
	CheckAndResolve(ctx context.Context, page browser.Page) (bool, error)
}

type Config struct {
	NavigationTimeout time.Duration
	ContentTimeout    time.Duration
	// ContentSelector marks that the offer list has rendered. It must not
	// match a challenge interstitial, or the recheck after a timeout never runs.
	ContentSelector string
	ClickDelay      time.Duration
	StoreThreshold  int
	ReviewThreshold int
}

func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 60 * time.Second,
		ContentTimeout:    30 * time.Second,
		ContentSelector:   ".sh-osd__offer-row, .sh-osd__offers",
		ClickDelay:        2 * time.Second,
		StoreThreshold:    3,
		ReviewThreshold:   2,
	}
}

type Request struct {
	URL             string
	Category        string
	Brand           string
	MaxStoreClicks  int
	MaxReviewClicks int
}

type Orchestrator struct {
	sessions Sessions
	gate     Gate
	expander *expander.Expander
	parser   *parser.ShoppingParser
	store    ProductStore
	recorder *artifacts.Recorder
	cfg      Config
	logger   *slog.Logger
}

func NewOrchestrator(
	sessions Sessions,
	gate Gate,
	exp *expander.Expander,
	p *parser.ShoppingParser,
	store ProductStore,
	recorder *artifacts.Recorder,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sessions: sessions,
		gate:     gate,
		expander: exp,
		parser:   p,
		store:    store,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Scrape runs the whole pipeline for one product URL and returns the stored
// record with its merged history.
func (o *Orchestrator) Scrape(ctx context.Context, req Request) (*models.Product, error) {
	target := strings.TrimSpace(req.URL)
	if target == "" {
		return nil, ErrMissingURL
	}

	log := o.logger.With("url", target)
	start := time.Now()

	handle, err := o.sessions.Open(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, session.ErrLaunch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	defer func() {
		if err := handle.Close(); err != nil {
			log.Warn("failed to close browser", "error", err)
		}
	}()

	page := handle.Page

	if !handle.Navigated || !sameTarget(page.URL(), target) {
		log.Info("navigating to target", "current", page.URL(), "state", handle.State)
		if err := page.Navigate(ctx, target, o.cfg.NavigationTimeout); err != nil {
			o.recorder.Capture(page, artifacts.KindError, "navigation")
			return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
		}
	}

	if _, err := o.gate.CheckAndResolve(ctx, page); err != nil {
		return nil, err
	}

	if err := o.waitForContent(ctx, page, log); err != nil {
		return nil, err
	}

	stores := o.expander.Expand(ctx, page, expander.StoresSection(o.cfg.StoreThreshold), req.MaxStoreClicks, o.cfg.ClickDelay)
	log.Info("stores expanded", "clicks", stores.Clicks, "reason", stores.Reason)

	reviewsSection := expander.ReviewsSection(o.cfg.ReviewThreshold)
	if o.hasSection(page, reviewsSection) {
		reviews := o.expander.Expand(ctx, page, reviewsSection, req.MaxReviewClicks, o.cfg.ClickDelay)
		log.Info("reviews expanded", "clicks", reviews.Clicks, "reason", reviews.Reason)
	} else {
		log.Info("no reviews section found")
	}

	if _, err := o.gate.CheckAndResolve(ctx, page); err != nil {
		return nil, err
	}

	html, err := page.Content()
	if err != nil {
		o.recorder.Capture(page, artifacts.KindError, "snapshot")
		return nil, fmt.Errorf("failed to snapshot page: %w", err)
	}

	product, err := o.parser.ParseHTML(html, target, parser.Options{
		Category: req.Category,
		Brand:    req.Brand,
	})
	if err != nil {
		o.recorder.Capture(page, artifacts.KindError, "parse")
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := o.store.Save(ctx, product)
	if err != nil {
		o.recorder.Capture(page, artifacts.KindError, "persistence")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := o.sessions.Persist(handle); err != nil {
		log.Warn("failed to persist session", "error", err)
	}

	log.Info("product scraped",
		"id", stored.ID,
		"stores", len(stored.Stores),
		"reviews", len(stored.Reviews),
		"history", len(stored.PriceHistory),
		"duration", time.Since(start).Round(time.Millisecond))

	return stored, nil
}

// waitForContent waits for the product markup. A timeout is often an
// undetected challenge, so the gate runs once before the single retry.
func (o *Orchestrator) waitForContent(ctx context.Context, page browser.Page, log *slog.Logger) error {
	err := page.WaitForSelector(o.cfg.ContentSelector, o.cfg.ContentTimeout)
	if err == nil {
		return nil
	}

	log.Warn("content wait timed out, re-checking for challenge", "error", err)
	if _, err := o.gate.CheckAndResolve(ctx, page); err != nil {
		return err
	}

	if err := page.WaitForSelector(o.cfg.ContentSelector, o.cfg.ContentTimeout); err != nil {
		o.recorder.Capture(page, artifacts.KindError, "content-timeout")
		return fmt.Errorf("%w: %w", ErrContentTimeout, err)
	}
	return nil
}

func (o *Orchestrator) hasSection(page browser.Page, section expander.Section) bool {
	if section.ContainerSelector != "" {
		if n, err := page.Count(section.ContainerSelector); err == nil && n > 0 {
			return true
		}
	}
	if n, err := page.Count(section.ItemSelector); err == nil && n > 0 {
		return true
	}
	el, _ := o.expander.Locate(page, section)
	return el != nil
}

// sameTarget tolerates query parameters and trailing slashes added by
// redirects.
func sameTarget(current, target string) bool {
	current = strings.TrimSuffix(current, "/")
	target = strings.TrimSuffix(target, "/")
	return current == target || strings.HasPrefix(current, target)
}
