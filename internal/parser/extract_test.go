package parser

import (
	"testing"

	"github.com/maltedev/shopping-price-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestNormalizeNumerals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"Arabic-Indic digits", "٠١٢٣٤٥٦٧٨٩", "0123456789", true},
		{"Separators", "١٬٢٣٤٫٥", "1,234.5", true},
		{"Mixed text passes through", "السعر ٩٩ ر.س", "السعر 99 ر.س", true},
		{"Western digits unchanged", "1,299.00 SAR", "1,299.00 SAR", true},
		{"Extended Arabic-Indic digits are not mapped", "۴۵۶", "۴۵۶", true},
		{"Empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeNumerals(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeNumeralsPreservesGlyphCount(t *testing.T) {
	input := "٣٫١٤٬٢"
	got, ok := NormalizeNumerals(input)
	require.True(t, ok)
	assert.Equal(t, len([]rune(input)), len([]rune(got)))
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"Arabic-Indic", "١٢٣", floatPtr(123)},
		{"Thousands and currency", "1,234.5 ر.س", floatPtr(1234.5)},
		{"Arabic separators", "٢٬٤٩٩٫٠٠ ر.س.", floatPtr(2499)},
		{"Currency prefix", "SAR 3,999", floatPtr(3999)},
		{"Empty", "", nil},
		{"No digits", "no digits", nil},
		{"Punctuation only", "...", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractNumber(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.expected, *got)
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"Comma decimal", "4,5", floatPtr(4.5)},
		{"Rounded", "4.678", floatPtr(4.7)},
		{"Arabic digits", "٤٫٣", floatPtr(4.3)},
		{"Trailing text", "4.6 out of 5", floatPtr(4.6)},
		{"Garbage", "abc", nil},
		{"Empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRating(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.expected, *got)
		})
	}
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.7, RoundRating(4.678))
	assert.Equal(t, 5.0, RoundRating(4.96))
	assert.Equal(t, 3.0, RoundRating(3))
}

func TestAggregatePrices(t *testing.T) {
	t.Run("Mixed offers", func(t *testing.T) {
		stats := AggregatePrices([]models.StoreOffer{
			{CurrentPrice: models.NewPrice(100)},
			{CurrentPrice: models.NewPrice(200)},
			{CurrentPrice: nil},
		})

		require.NotNil(t, stats.Lowest)
		assert.Equal(t, 100.0, *stats.Lowest)
		assert.Equal(t, 200.0, *stats.Highest)
		assert.Equal(t, 150.0, *stats.Average)
	})

	t.Run("No offers", func(t *testing.T) {
		stats := AggregatePrices(nil)
		assert.Nil(t, stats.Lowest)
		assert.Nil(t, stats.Highest)
		assert.Nil(t, stats.Average)
	})

	t.Run("No valid price", func(t *testing.T) {
		stats := AggregatePrices([]models.StoreOffer{{Name: "A"}})
		assert.Nil(t, stats.Average)
	})

	t.Run("Average rounded to two decimals", func(t *testing.T) {
		stats := AggregatePrices([]models.StoreOffer{
			{CurrentPrice: models.NewPrice(10)},
			{CurrentPrice: models.NewPrice(10)},
			{CurrentPrice: models.NewPrice(10.01)},
		})
		assert.Equal(t, 10.0, *stats.Average)
		assert.LessOrEqual(t, *stats.Lowest, *stats.Average)
		assert.LessOrEqual(t, *stats.Average, *stats.Highest)
	})
}
