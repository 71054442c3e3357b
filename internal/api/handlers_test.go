package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/shopping-price-tracker/internal/database"
	"github.com/maltedev/shopping-price-tracker/internal/models"
)

func float(v float64) *float64 { return &v }

func seededStore(t *testing.T) *database.MemoryStore {
	t.Helper()
	store := database.NewMemoryStore()
	ctx := context.Background()

	products := []struct{ name, category, brand string }{
		{"Galaxy S24", "phones", "Samsung"},
		{"iPhone 15", "phones", "Apple"},
		{"MacBook Air", "laptops", "Apple"},
		{"سماعة سوني", "headphones", "Sony"},
	}
	for _, p := range products {
		_, err := store.Save(ctx, &models.Product{
			Name:         p.name,
			Category:     p.category,
			Brand:        p.brand,
			SourceURL:    "https://www.google.com/shopping/product/" + url.PathEscape(p.name),
			Stores:       []models.StoreOffer{{Name: "Store", CurrentPrice: models.NewPrice(100)}},
			LowestPrice:  float(100),
			HighestPrice: float(100),
			AveragePrice: float(100),
		})
		require.NoError(t, err)
	}
	return store
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListProducts(t *testing.T) {
	router := NewRouter(NewHandlers(seededStore(t), nil, nil), RouterOptions{})

	tests := []struct {
		name     string
		target   string
		status   int
		expected int
	}{
		{"all", "/api/v1/products", http.StatusOK, 4},
		{"category", "/api/v1/products?category=phones", http.StatusOK, 2},
		{"brand case-insensitive", "/api/v1/products?brand=apple", http.StatusOK, 2},
		{"limit", "/api/v1/products?limit=1", http.StatusOK, 1},
		{"offset past end", "/api/v1/products?offset=10", http.StatusOK, 0},
		{"bad limit", "/api/v1/products?limit=abc", http.StatusBadRequest, 0},
		{"zero limit", "/api/v1/products?limit=0", http.StatusBadRequest, 0},
		{"negative offset", "/api/v1/products?offset=-1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, tt.target)
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}

			var resp ListProductsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected, resp.Count)
			assert.Len(t, resp.Products, tt.expected)
		})
	}
}

func TestGetProductAndHistory(t *testing.T) {
	store := seededStore(t)
	router := NewRouter(NewHandlers(store, nil, nil), RouterOptions{})

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)

	for _, p := range all {
		rec := serve(t, router, "/api/v1/products/"+url.PathEscape(p.ID))
		require.Equal(t, http.StatusOK, rec.Code, p.ID)

		var got models.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, p.Name, got.Name)

		rec = serve(t, router, "/api/v1/products/"+url.PathEscape(p.ID)+"/price-history")
		require.Equal(t, http.StatusOK, rec.Code)

		var history PriceHistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
		assert.Equal(t, p.ID, history.ID)
		assert.Len(t, history.History, 1)
	}
}

func TestGetProductNotFound(t *testing.T) {
	router := NewRouter(NewHandlers(database.NewMemoryStore(), nil, nil), RouterOptions{})

	rec := serve(t, router, "/api/v1/products/missing-00000000")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"product not found"}`, rec.Body.String())

	rec = serve(t, router, "/api/v1/products/missing-00000000/price-history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingReader struct{}

func (failingReader) FindByIdentifier(context.Context, string) (*models.Product, error) {
	return nil, errors.New("db down")
}

func (failingReader) ListFiltered(context.Context, models.Filter) ([]*models.Product, error) {
	return nil, errors.New("db down")
}

func TestStoreErrors(t *testing.T) {
	router := NewRouter(NewHandlers(failingReader{}, nil, nil), RouterOptions{})

	assert.Equal(t, http.StatusInternalServerError, serve(t, router, "/api/v1/products").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(t, router, "/api/v1/products/x").Code)
}

type stubStats struct{ pending, dead int64 }

func (s stubStats) PendingCount(context.Context) (int64, error)    { return s.pending, nil }
func (s stubStats) DeadLetterCount(context.Context) (int64, error) { return s.dead, nil }

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		stats  OutboxStats
		code   int
		status string
	}{
		{"no relay", nil, http.StatusOK, "ok"},
		{"healthy", stubStats{pending: 3}, http.StatusOK, "ok"},
		{"backlog", stubStats{pending: 5000}, http.StatusOK, "warning"},
		{"dead letters", stubStats{dead: 500}, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewHandlers(database.NewMemoryStore(), tt.stats, nil), RouterOptions{})
			rec := serve(t, router, "/health")
			require.Equal(t, tt.code, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(NewHandlers(database.NewMemoryStore(), nil, nil), RouterOptions{AllowedOrigins: []string{"https://dashboard.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
