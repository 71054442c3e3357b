package classifier

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrand(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		product  string
		expected string
	}{
		{"Samsung by name", "Samsung Galaxy S23", "Samsung"},
		{"Samsung by series", "Galaxy Z Flip5 256GB", "Samsung"},
		{"Apple by product line", "iPhone 15 Pro Max", "Apple"},
		{"Apple laptop", "MacBook Air M4", "Apple"},
		{"Arabic Samsung", "جوال سامسونج جالكسي اس 23", "Samsung"},
		{"Arabic Huawei", "هواوي ميت 60 برو", "Huawei"},
		{"Xiaomi sub-brand", "Redmi Note 13", "Xiaomi"},
		{"Cable does not match Apple", "كابل شحن سريع", "Unknown"},
		{"Unmatched", "Generic USB-C Cable", "Unknown"},
		{"Empty", "", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Brand(tt.product))
		})
	}
}

func TestCategory(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		product  string
		expected string
	}{
		{"MacBook is a laptop", "MacBook Air M4", "laptops"},
		{"Galaxy Tab is a tablet, not a phone", "Samsung Galaxy Tab S9", "tablets"},
		{"iPad", "Apple iPad Pro 11", "tablets"},
		{"Phone", "Samsung Galaxy S23", "phones"},
		{"Watch before phone", "Samsung Galaxy Watch 6", "watches"},
		{"Buds before phone", "Samsung Galaxy Buds2 Pro", "headphones"},
		{"Watch with model number", "Samsung Galaxy Watch6 Classic", "watches"},
		{"Console with model number", "Sony PlayStation5 Slim", "gaming"},
		{"Console", "Nintendo Switch OLED", "gaming"},
		{"TV", "LG 65 inch OLED TV", "tvs"},
		{"Arabic laptop", "لابتوب لينوفو ثينك باد", "laptops"},
		{"Arabic phone", "جوال ايفون 15", "phones"},
		{"Arabic watch", "ساعة ذكية", "watches"},
		{"Word boundary", "Phoneix Desk Lamp", "other"},
		{"Letters after keyword", "Bandana Cotton Scarf", "other"},
		{"Unmatched", "Stainless Steel Water Bottle", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Category(tt.product))
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Label: "first", Patterns: []*regexp.Regexp{regexp.MustCompile("alpha")}},
		{Label: "second", Patterns: []*regexp.Regexp{regexp.MustCompile("alpha beta")}},
	}
	c := NewWithRules(nil, rules, rules)

	assert.Equal(t, "first", c.Category("Alpha Beta"))
	assert.Equal(t, "first", c.Brand("ALPHA BETA"))
	assert.Equal(t, "other", c.Category("gamma"))
}
