package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/shopping-price-tracker/internal/browser/browsertest"
	"github.com/maltedev/shopping-price-tracker/internal/captcha"
	"github.com/maltedev/shopping-price-tracker/internal/config"
	"github.com/maltedev/shopping-price-tracker/internal/database"
	"github.com/maltedev/shopping-price-tracker/internal/scraper"
	"github.com/maltedev/shopping-price-tracker/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Scraper.SettleDelay = 0
	cfg.Scraper.ClickDelay = 0
	return cfg
}

func TestOpenStore(t *testing.T) {
	cfg := testConfig(t)

	store, closeFn, err := OpenStore(context.Background(), cfg, StoreMemory, quietLogger())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &database.MemoryStore{}, store)

	_, _, err = OpenStore(context.Background(), cfg, "mongo", quietLogger())
	assert.ErrorContains(t, err, "unknown store")
}

func TestBrowserOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.Locale = "en-US"
	cfg.Browser.ProxyServer = "http://proxy:3128"

	opts := BrowserOptions(cfg)
	assert.Equal(t, "en-US", opts.Locale)
	assert.Equal(t, "http://proxy:3128", opts.ProxyServer)
	assert.Equal(t, cfg.Browser.NavigationTimeout, opts.Timeout)
}

func TestDatabaseConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.DBName = "tracker"
	cfg.Database.MaxConns = 4

	db := DatabaseConfig(cfg)
	assert.Equal(t, "tracker", db.Database)
	assert.Equal(t, int32(4), db.MaxConns)
	assert.Contains(t, db.DSN(), "/tracker?sslmode=disable")
}

func TestNewOrchestratorEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	store := database.NewMemoryStore()

	launcher := &browsertest.Launcher{
		Factory: func(headless bool) (*browsertest.Instance, error) {
			page := browsertest.NewPage("about:blank")
			page.HTML = `<html><body><h1>Apple MacBook Air M3</h1>
<div class="sh-osd__offer-row"><span class="sh-osd__title">MacBook Air M3</span><span class="sh-osd__seller-link">Store A</span><span class="sh-osd__total-price">4,299 SAR</span></div>
</body></html>`
			return browsertest.NewInstance(headless, page), nil
		},
	}

	o := NewOrchestrator(cfg, store, Components{
		Launcher: launcher,
		Confirmer: captcha.ConfirmerFunc(func(context.Context, string) error {
			t.Fatal("no challenge expected")
			return nil
		}),
		Sessions: storage.NewMemorySessionStore(nil),
	}, io.Discard, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	product, err := o.Scrape(ctx, scraper.Request{URL: "https://www.google.com/shopping/product/42", MaxStoreClicks: 1})
	require.NoError(t, err)
	assert.Equal(t, "laptops", product.Category)
	assert.Equal(t, "Apple", product.Brand)
	assert.Equal(t, 4299.0, *product.LowestPrice)
	assert.Equal(t, []bool{true}, launcher.Launches)
}
