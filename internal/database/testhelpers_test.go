package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maltedev/shopping-price-tracker/internal/models"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupTestDB connects to the database named by the DB_* variables. It
// skips unless INTEGRATION_TEST=true.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	port, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, Config{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     port,
		User:     envOr("DB_USER", "postgres"),
		Password: envOr("DB_PASSWORD", "postgres"),
		Database: envOr("DB_NAME", "shopping_tracker_test"),
	})
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx))

	_, err = db.Exec(ctx, "TRUNCATE shopping_products, outbox_event")
	require.NoError(t, err)

	return db
}

func float(v float64) *float64 { return &v }

func sampleProduct(name string, prices ...float64) *models.Product {
	p := &models.Product{
		Name:      name,
		Category:  "phones",
		Brand:     "Samsung",
		SourceURL: "https://www.google.com/shopping/product/" + name,
		Photos:    []string{},
		Reviews:   []models.Review{},
	}
	for i, v := range prices {
		p.Stores = append(p.Stores, models.StoreOffer{
			Name:         "Store " + strconv.Itoa(i+1),
			CurrentPrice: models.NewPrice(v),
		})
	}
	if len(prices) > 0 {
		lo, hi, sum := prices[0], prices[0], 0.0
		for _, v := range prices {
			lo = min(lo, v)
			hi = max(hi, v)
			sum += v
		}
		p.LowestPrice = float(lo)
		p.HighestPrice = float(hi)
		p.AveragePrice = float(sum / float64(len(prices)))
	}
	return p
}
