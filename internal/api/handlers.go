package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maltedev/shopping-price-tracker/internal/models"
)

// ProductReader is the read side of the product store.
type ProductReader interface {
	FindByIdentifier(ctx context.Context, id string) (*models.Product, error)
	ListFiltered(ctx context.Context, f models.Filter) ([]*models.Product, error)
}

// OutboxStats reports relay backlog for the health check.
type OutboxStats interface {
	PendingCount(ctx context.Context) (int64, error)
	DeadLetterCount(ctx context.Context) (int64, error)
}

const (
	defaultLimit = 50
	maxLimit     = 500

	pendingWarning  = 1000
	deadLetterError = 100
)

type Handlers struct {
	products ProductReader
	outbox   OutboxStats
	logger   *slog.Logger
}

// NewHandlers builds the handlers. outbox may be nil when no relay runs.
func NewHandlers(products ProductReader, outbox OutboxStats, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		products: products,
		outbox:   outbox,
		logger:   logger.With("component", "api"),
	}
}

type ProductSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Brand        string   `json:"brand"`
	SourceURL    string   `json:"source_url"`
	StoreCount   int      `json:"store_count"`
	LowestPrice  *float64 `json:"lowest_price"`
	HighestPrice *float64 `json:"highest_price"`
	AveragePrice *float64 `json:"average_price"`
	UpdatedAt    string   `json:"updated_at"`
}

type ListProductsResponse struct {
	Products []ProductSummary `json:"products"`
	Count    int              `json:"count"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type PriceHistoryResponse struct {
	ID      string                     `json:"id"`
	Name    string                     `json:"name"`
	History []models.PriceHistoryEntry `json:"history"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "ok"}
	status := http.StatusOK

	if h.outbox != nil {
		pending, err := h.outbox.PendingCount(r.Context())
		if err != nil {
			h.logger.Warn("failed to count pending events", "error", err)
		}
		deadLetter, err := h.outbox.DeadLetterCount(r.Context())
		if err != nil {
			h.logger.Warn("failed to count dead letter events", "error", err)
		}

		health["outbox"] = map[string]any{
			"pending":     pending,
			"dead_letter": deadLetter,
		}

		if pending > pendingWarning {
			health["status"] = "warning"
			health["message"] = "High number of pending outbox events"
		}
		if deadLetter > deadLetterError {
			health["status"] = "error"
			health["message"] = "High number of dead letter events"
			status = http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, status, health)
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := intParam(q.Get("limit"), defaultLimit)
	if !ok || limit < 1 {
		h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, maxLimit)

	offset, ok := intParam(q.Get("offset"), 0)
	if !ok || offset < 0 {
		h.respondError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	products, err := h.products.ListFiltered(r.Context(), models.Filter{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	resp := ListProductsResponse{
		Products: make([]ProductSummary, 0, len(products)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, p := range products {
		resp.Products = append(resp.Products, summarize(p))
	}
	resp.Count = len(resp.Products)

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}

	history := product.PriceHistory
	if history == nil {
		history = []models.PriceHistoryEntry{}
	}
	h.respondJSON(w, http.StatusOK, PriceHistoryResponse{
		ID:      product.ID,
		Name:    product.Name,
		History: history,
	})
}

func (h *Handlers) loadProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	// Identifiers keep Arabic letters, so the segment may arrive escaped.
	id, err := url.PathUnescape(chi.URLParam(r, "productID"))
	if err != nil || id == "" {
		h.respondError(w, http.StatusBadRequest, "product ID is required")
		return nil, false
	}

	product, err := h.products.FindByIdentifier(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load product", "id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load product")
		return nil, false
	}
	if product == nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return nil, false
	}
	return product, true
}

func summarize(p *models.Product) ProductSummary {
	return ProductSummary{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Brand:        p.Brand,
		SourceURL:    p.SourceURL,
		StoreCount:   len(p.Stores),
		LowestPrice:  p.LowestPrice,
		HighestPrice: p.HighestPrice,
		AveragePrice: p.AveragePrice,
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func intParam(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
