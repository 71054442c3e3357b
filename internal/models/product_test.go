package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestProductID(t *testing.T) {
	tests := []struct {
		name      string
		product   string
		url       string
		wantStart string
	}{
		{"Latin name", "Samsung Galaxy S23", "https://www.google.com/shopping/product/1", "SamsungGalaxyS23-"},
		{"Arabic name", "سامسونج جالكسي S23", "https://www.google.com/shopping/product/1", "سامسونججالكسيS23-"},
		{"Punctuation stripped", "iPhone 15 Pro (256GB) - Black!", "https://x", "iPhone15Pro256GBBlack-"},
		{"Empty name", "", "https://x", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ProductID(tt.product, tt.url)
			assert.Equal(t, tt.wantStart, id[:len(tt.wantStart)])
			assert.Len(t, id, len(tt.wantStart)+8)
		})
	}
}

func TestProductIDIsStable(t *testing.T) {
	a := ProductID("MacBook Air M4", "https://www.google.com/shopping/product/42")
	b := ProductID("MacBook Air M4", "https://www.google.com/shopping/product/42")
	c := ProductID("MacBook Air M4", "https://www.google.com/shopping/product/43")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	// md5("abc") = 900150983cd24fb0d6963f7d28e17f72
	assert.Equal(t, "X-90015098", ProductID("X", "abc"))
}

func TestMerge(t *testing.T) {
	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	scraped := &Product{
		Name:         "Samsung Galaxy S23",
		SourceURL:    "https://example.test/p/1",
		Stores:       []StoreOffer{{Name: "A", CurrentPrice: NewPrice(100)}},
		LowestPrice:  floatPtr(100),
		HighestPrice: floatPtr(100),
		AveragePrice: floatPtr(100),
	}

	created := Merge(nil, scraped, first)
	assert.Equal(t, ProductID(scraped.Name, scraped.SourceURL), created.ID)
	assert.Equal(t, first, created.CreatedAt)
	assert.Equal(t, first, created.UpdatedAt)
	require.Len(t, created.PriceHistory, 1)
	assert.Equal(t, DefaultCurrency, created.PriceHistory[0].Currency)

	rescraped := &Product{
		Name:         "Samsung Galaxy S23",
		SourceURL:    "https://example.test/p/1",
		Stores:       []StoreOffer{{Name: "B", CurrentPrice: NewPrice(80)}},
		LowestPrice:  floatPtr(80),
		HighestPrice: floatPtr(80),
		AveragePrice: floatPtr(80),
	}

	updated := Merge(created, rescraped, second)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, first, updated.CreatedAt)
	assert.Equal(t, second, updated.UpdatedAt)
	require.Len(t, updated.PriceHistory, 2)
	assert.Equal(t, 100.0, *updated.PriceHistory[0].LowestPrice)
	assert.Equal(t, 80.0, *updated.PriceHistory[1].LowestPrice)
	require.Len(t, updated.Stores, 1)
	assert.Equal(t, "B", updated.Stores[0].Name)

	// the earlier record's history must not be aliased by the merge
	assert.Len(t, created.PriceHistory, 1)
}

func TestPriceUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
		hasError bool
	}{
		{"Number", `{"current_price": 1299.5}`, floatPtr(1299.5), false},
		{"String with commas", `{"current_price": "1,299.50"}`, floatPtr(1299.5), false},
		{"Null", `{"current_price": null}`, nil, false},
		{"Garbage", `{"current_price": "n/a"}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var offer StoreOffer
			err := json.Unmarshal([]byte(tt.input), &offer)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			v, ok := offer.CurrentPrice.Float()
			if tt.expected == nil {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, *tt.expected, v)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Product {
		return &Product{
			Name:         "Pixel 9",
			SourceURL:    "https://example.test/p/9",
			Category:     "phones",
			Brand:        "Google",
			LowestPrice:  floatPtr(10),
			HighestPrice: floatPtr(30),
			AveragePrice: floatPtr(20),
		}
	}

	assert.Empty(t, valid().Validate())

	p := valid()
	p.Name = ""
	assert.Contains(t, p.Validate(), "name is required")

	p = valid()
	p.Photos = []string{"a", "b", "c", "d", "e"}
	assert.Len(t, p.Validate(), 1)

	p = valid()
	p.AveragePrice = floatPtr(40)
	assert.Contains(t, p.Validate(), "price statistics must satisfy lowest <= average <= highest")

	p = valid()
	p.HighestPrice = nil
	assert.Contains(t, p.Validate(), "price statistics must be all set or all null")

	p = valid()
	p.Reviews = []Review{{Text: "no name"}}
	assert.Len(t, p.Validate(), 1)
}
