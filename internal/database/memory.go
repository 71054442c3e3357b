package database

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/models"
)

// MemoryStore keeps documents in process, with the same merge and
// validation rules as ProductRepository. Records are stored as JSON so
// callers never share memory with the store.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	events []*OutboxEvent
	now    func() time.Time
	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string][]byte),
		now:  time.Now,
	}
}

// SetClock replaces the time source used for merge timestamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) FindByIdentifier(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return decodeProduct(doc)
}

func (s *MemoryStore) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return nil, s.SaveErr
	}

	var existing *models.Product
	if doc, ok := s.docs[models.ProductID(product.Name, product.SourceURL)]; ok {
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		existing = p
	}

	merged := models.Merge(existing, product, s.now().UTC())
	if err := validationError(merged); err != nil {
		return nil, err
	}

	doc, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}

	event, err := NewPriceHistoryEvent(merged)
	if err != nil {
		return nil, err
	}
	event.Status = OutboxStatusPending
	event.CreatedAt = merged.UpdatedAt

	s.docs[merged.ID] = doc
	s.events = append(s.events, event)

	return decodeProduct(doc)
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]*models.Product, error) {
	return s.ListFiltered(ctx, models.Filter{})
}

func (s *MemoryStore) ListFiltered(_ context.Context, f models.Filter) ([]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]*models.Product, 0, len(s.docs))
	for _, doc := range s.docs {
		p, err := decodeProduct(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b *models.Product) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return f.Apply(products), nil
}

// Events returns the outbox events queued by Save, oldest first.
func (s *MemoryStore) Events() []*OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}
