// Package app wires the scrape pipeline from configuration for the
// command-line binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/artifacts"
	"github.com/maltedev/shopping-price-tracker/internal/browser"
	"github.com/maltedev/shopping-price-tracker/internal/captcha"
	"github.com/maltedev/shopping-price-tracker/internal/config"
	"github.com/maltedev/shopping-price-tracker/internal/database"
	"github.com/maltedev/shopping-price-tracker/internal/expander"
	"github.com/maltedev/shopping-price-tracker/internal/models"
	"github.com/maltedev/shopping-price-tracker/internal/parser"
	"github.com/maltedev/shopping-price-tracker/internal/scraper"
	"github.com/maltedev/shopping-price-tracker/internal/session"
	"github.com/maltedev/shopping-price-tracker/internal/storage"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Store is the product store used by the binaries.
type Store interface {
	scraper.ProductStore
	ListFiltered(ctx context.Context, f models.Filter) ([]*models.Product, error)
}

// OpenStore connects the named store. The returned func releases it.
func OpenStore(ctx context.Context, cfg *config.Config, kind string, logger *slog.Logger) (Store, func(), error) {
	switch kind {
	case StoreMemory:
		logger.Warn("using in-memory store, records are lost on exit")
		return database.NewMemoryStore(), func() {}, nil
	case StorePostgres, "":
		db, err := database.New(ctx, DatabaseConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo := database.NewProductRepository(db)
		repo.SetStream(cfg.Redis.Stream)
		logger.Info("connected to database", "host", cfg.Database.Host, "database", cfg.Database.DBName)
		return repo, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want %s or %s)", kind, StorePostgres, StoreMemory)
	}
}

func DatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.DBName,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    int32(cfg.Database.MaxConns),
		MinConns:    int32(cfg.Database.MinConns),
		MaxConnLife: 5 * time.Minute,
		MaxConnIdle: time.Minute,
	}
}

// Components lets tests and callers replace the browser and the human
// confirmation channel.
type Components struct {
	Launcher  browser.Launcher
	Confirmer captcha.Confirmer
	Sessions  storage.SessionStore
}

// NewOrchestrator builds the full scrape pipeline on top of store.
func NewOrchestrator(cfg *config.Config, store scraper.ProductStore, c Components, prompts io.Writer, logger *slog.Logger) *scraper.Orchestrator {
	recorder := artifacts.NewRecorder(cfg.Artifacts.Dir, logger)

	if c.Launcher == nil {
		c.Launcher = browser.NewLauncher(BrowserOptions(cfg), logger)
	}
	if c.Confirmer == nil {
		c.Confirmer = captcha.NewConsoleConfirmer(nil, prompts)
	}
	if c.Sessions == nil {
		c.Sessions = storage.NewFileSessionStore(cfg.Session.CookieFile, cfg.Session.MetadataFile)
	}

	gateCfg := captcha.DefaultConfig()
	gateCfg.PhraseThreshold = cfg.Scraper.PhraseThreshold
	gate := captcha.NewGate(gateCfg, c.Confirmer, recorder, logger)

	sessions := session.NewController(c.Launcher, gate, c.Sessions, recorder, session.Config{
		Domain:            cfg.Session.Domain,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		StaleAfter:        cfg.Session.StaleAfter,
		Humanize:          true,
	}, logger)

	exp := expander.New(expander.Options{
		SettleDelay:  cfg.Scraper.SettleDelay,
		ClickTimeout: expander.DefaultOptions().ClickTimeout,
	}, gate, logger)

	return scraper.NewOrchestrator(
		sessions,
		gate,
		exp,
		parser.NewShoppingParser(parser.DefaultSelectors(), nil),
		store,
		recorder,
		scraper.Config{
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			ContentTimeout:    cfg.Scraper.ContentTimeout,
			ContentSelector:   scraper.DefaultConfig().ContentSelector,
			ClickDelay:        cfg.Scraper.ClickDelay,
			StoreThreshold:    cfg.Scraper.StoreThreshold,
			ReviewThreshold:   cfg.Scraper.ReviewThreshold,
		},
		logger,
	)
}

func BrowserOptions(cfg *config.Config) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Timeout = cfg.Browser.NavigationTimeout
	opts.UserAgent = cfg.Browser.UserAgent
	opts.ViewportWidth = cfg.Browser.ViewportWidth
	opts.ViewportHeight = cfg.Browser.ViewportHeight
	opts.AcceptLanguage = cfg.Browser.AcceptLanguage
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.Locale = cfg.Browser.Locale
	opts.ProxyServer = cfg.Browser.ProxyServer
	return opts
}
