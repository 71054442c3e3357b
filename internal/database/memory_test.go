package database

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/shopping-price-tracker/internal/models"
)

func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func TestMemoryStore_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	missing, err := store.FindByIdentifier(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := store.Save(ctx, sampleProduct("GalaxyS24", 100, 200))
	require.NoError(t, err)
	assert.Equal(t, models.ProductID("GalaxyS24", "https://www.google.com/shopping/product/GalaxyS24"), first.ID)
	require.Len(t, first.PriceHistory, 1)
	assert.Equal(t, 100.0, *first.PriceHistory[0].LowestPrice)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	second, err := store.Save(ctx, sampleProduct("GalaxyS24", 90))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.PriceHistory, 2)
	assert.Equal(t, first.PriceHistory[0], second.PriceHistory[0])
	assert.Equal(t, 90.0, *second.PriceHistory[1].LowestPrice)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Len(t, second.Stores, 1)

	found, err := store.FindByIdentifier(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, second, found)
}

func TestMemoryStore_HistoryGrowsByOnePerSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 1; i <= 5; i++ {
		saved, err := store.Save(ctx, sampleProduct("Pixel9", float64(100*i)))
		require.NoError(t, err)
		assert.Len(t, saved.PriceHistory, i)
	}

	events := store.Events()
	require.Len(t, events, 5)

	var payload PriceHistoryPayload
	require.NoError(t, json.Unmarshal(events[4].Payload, &payload))
	assert.Equal(t, 5, payload.HistorySize)
	assert.False(t, payload.FirstCapture)
	assert.Equal(t, 500.0, *payload.Entry.LowestPrice)
}

func TestMemoryStore_ReturnedRecordIsDetached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	saved, err := store.Save(ctx, sampleProduct("iPhone15", 3000))
	require.NoError(t, err)
	saved.Name = "mutated"
	saved.PriceHistory = nil

	found, err := store.FindByIdentifier(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "iPhone15", found.Name)
	assert.Len(t, found.PriceHistory, 1)
}

func TestMemoryStore_RejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := sampleProduct("", 10)
	_, err := store.Save(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, store.Events())
}

func TestMemoryStore_SaveErr(t *testing.T) {
	store := NewMemoryStore()
	store.SaveErr = errors.New("disk full")

	_, err := store.Save(context.Background(), sampleProduct("Mate60", 10))
	assert.EqualError(t, err, "disk full")
}

func TestMemoryStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	for _, name := range []string{"A", "B", "C"} {
		_, err := store.Save(ctx, sampleProduct(name, 10))
		require.NoError(t, err)
	}
	apple := sampleProduct("D", 10)
	apple.Brand = "Apple"
	_, err := store.Save(ctx, apple)
	require.NoError(t, err)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, p := range all {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"D", "C", "B", "A"}, names)

	filtered, err := store.ListFiltered(ctx, models.Filter{Brand: "samsung", Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "B", filtered[0].Name)
}
