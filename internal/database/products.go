package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maltedev/shopping-price-tracker/internal/models"
)

var ErrInvalidProduct = errors.New("product failed validation")

func validationError(p *models.Product) error {
	if problems := p.Validate(); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, "; "))
	}
	return nil
}

// ProductRepository stores each product as a JSONB document keyed by its
// identifier, with the filterable fields mirrored into columns.
type ProductRepository struct {
	db     *DB
	outbox *OutboxRepository
	stream string
	now    func() time.Time
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{
		db:     db,
		outbox: NewOutboxRepository(db),
		stream: DefaultStream,
		now:    time.Now,
	}
}

// SetStream changes the Redis stream queued events are addressed to.
func (r *ProductRepository) SetStream(stream string) {
	if stream != "" {
		r.stream = stream
	}
}

func (r *ProductRepository) FindByIdentifier(ctx context.Context, id string) (*models.Product, error) {
	var doc []byte
	err := r.db.pool.QueryRow(ctx,
		"SELECT document FROM shopping_products WHERE id = $1", id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product %s: %w", id, err)
	}
	return decodeProduct(doc)
}

// Save merges the record into the stored one under a row lock, writes it
// back and queues a PRICE_HISTORY_APPENDED event in the same transaction.
func (r *ProductRepository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	id := models.ProductID(product.Name, product.SourceURL)

	var saved *models.Product
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		existing, err := r.lockExisting(ctx, tx, id)
		if err != nil {
			return err
		}

		merged := models.Merge(existing, product, r.now().UTC())
		if err := validationError(merged); err != nil {
			return err
		}

		doc, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to marshal product: %w", err)
		}

		query := `
			INSERT INTO shopping_products (id, category, brand, source_url, document, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				category = EXCLUDED.category,
				brand = EXCLUDED.brand,
				source_url = EXCLUDED.source_url,
				document = EXCLUDED.document,
				updated_at = EXCLUDED.updated_at`

		_, err = tx.Exec(ctx, query,
			merged.ID, merged.Category, merged.Brand, merged.SourceURL, doc,
			merged.CreatedAt, merged.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert product: %w", err)
		}

		event, err := NewPriceHistoryEvent(merged)
		if err != nil {
			return err
		}
		event.TargetStream = r.stream
		if err := r.outbox.InsertWithTx(ctx, tx, event); err != nil {
			return err
		}

		saved = merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *ProductRepository) lockExisting(ctx context.Context, tx pgx.Tx, id string) (*models.Product, error) {
	var doc []byte
	err := tx.QueryRow(ctx,
		"SELECT document FROM shopping_products WHERE id = $1 FOR UPDATE", id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product %s: %w", id, err)
	}
	return decodeProduct(doc)
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]*models.Product, error) {
	return r.ListFiltered(ctx, models.Filter{})
}

// ListFiltered pushes the filter down to SQL. Category and brand match
// case-insensitively, as models.Filter does.
func (r *ProductRepository) ListFiltered(ctx context.Context, f models.Filter) ([]*models.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if f.Brand != "" {
		args = append(args, f.Brand)
		where = append(where, fmt.Sprintf("lower(brand) = lower($%d)", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT document FROM shopping_products")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY updated_at DESC, id ASC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

func decodeProduct(doc []byte) (*models.Product, error) {
	p := &models.Product{}
	if err := json.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("failed to decode product document: %w", err)
	}
	return p, nil
}
