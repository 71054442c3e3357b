package models

import "strings"

// Filter selects stored products by category/brand with paging. Zero
// values match everything; Limit <= 0 means no limit.
type Filter struct {
	Category string
	Brand    string
	Limit    int
	Offset   int
}

func (f Filter) Matches(p *Product) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(f.Brand, p.Brand) {
		return false
	}
	return true
}

// Apply filters products and then applies offset and limit, keeping order.
func (f Filter) Apply(products []*Product) []*Product {
	matched := make([]*Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			matched = append(matched, p)
		}
	}

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []*Product{}
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched
}
