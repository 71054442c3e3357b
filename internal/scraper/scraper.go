package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/shopping-price-tracker/internal/models"
)

var (
	ErrMissingURL     = errors.New("product URL is required")
	ErrNavigation     = errors.New("navigation failed")
	ErrContentTimeout = errors.New("product content did not appear")
	ErrPersistence    = errors.New("failed to persist product")
)

// ProductStore is the persistence contract of the pipeline.
type ProductStore interface {
	// FindByIdentifier returns nil, nil when no record exists.
	FindByIdentifier(ctx context.Context, id string) (*models.Product, error)
	// Save inserts the record or replaces its mutable fields and appends one
	// price history entry.
	Save(ctx context.Context, product *models.Product) (*models.Product, error)
	// ListAll returns every record, most recently updated first.
	ListAll(ctx context.Context) ([]*models.Product, error)
}
