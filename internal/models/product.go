package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxPhotos is the number of distinct product images kept per record.
	MaxPhotos = 4
	// MaxReviews caps the review list of a single scrape.
	MaxReviews = 5000
	// DefaultCurrency is the currency every price on the tracked page family is quoted in.
	DefaultCurrency = "SAR"

	UnknownBrand  = "Unknown"
	OtherCategory = "other"
)

// Product is the stored aggregate for one Google Shopping product page.
type Product struct {
	ID                 string              `json:"id"`
	Category           string              `json:"category"`
	Brand              string              `json:"brand"`
	Name               string              `json:"name"`
	ProductType        string              `json:"product_type"`
	Photos             []string            `json:"photos"`
	Stores             []StoreOffer        `json:"stores"`
	Reviews            []Review            `json:"reviews"`
	RatingDistribution RatingDistribution  `json:"rating_distribution"`
	SourceURL          string              `json:"source_url"`
	LowestPrice        *float64            `json:"lowest_price"`
	HighestPrice       *float64            `json:"highest_price"`
	AveragePrice       *float64            `json:"average_price"`
	PriceHistory       []PriceHistoryEntry `json:"price_history"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// StoreOffer is one store's listing of the product on a single scrape.
type StoreOffer struct {
	Name          string   `json:"name"`
	CurrentPrice  *Price   `json:"current_price"`
	OriginalPrice *Price   `json:"original_price"`
	Rating        *float64 `json:"rating"`
	FreeDelivery  bool     `json:"free_delivery"`
	ProductTitle  string   `json:"product_title"`
	ProductURL    string   `json:"product_url"`
}

type Review struct {
	ReviewerName string   `json:"reviewer_name"`
	Rating       *float64 `json:"rating"`
	Text         string   `json:"text"`
	Source       string   `json:"source"`
}

// RatingDistribution holds the overall rating and the per-star breakdown keyed 1..5.
type RatingDistribution struct {
	AverageRating *float64              `json:"average_rating"`
	TotalReviews  *int                  `json:"total_reviews"`
	Stars         map[int]StarBreakdown `json:"stars"`
}

type StarBreakdown struct {
	Percentage  *float64 `json:"percentage"`
	ReviewCount *int     `json:"review_count"`
}

// PriceHistoryEntry is an append-only sample of the derived price statistics.
type PriceHistoryEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	LowestPrice  *float64  `json:"lowest_price"`
	HighestPrice *float64  `json:"highest_price"`
	AveragePrice *float64  `json:"average_price"`
	Currency     string    `json:"currency"`
}

// Price is a store price. Older documents stored prices as strings with
// thousands separators, so it decodes from either form.
type Price float64

func NewPrice(v float64) *Price {
	p := Price(v)
	return &p
}

func (p *Price) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", string(data), err)
	}
	*p = Price(v)
	return nil
}

// Float returns the price as float64 and whether it was set.
func (p *Price) Float() (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}

// Validate checks the record against the document schema. It returns
// one message per violation.
func (p *Product) Validate() []string {
	var errors []string

	if p.Name == "" {
		errors = append(errors, "name is required")
	}

	if p.SourceURL == "" {
		errors = append(errors, "source_url is required")
	}

	if p.Category == "" {
		errors = append(errors, "category is required")
	}

	if p.Brand == "" {
		errors = append(errors, "brand is required")
	}

	if len(p.Photos) > MaxPhotos {
		errors = append(errors, fmt.Sprintf("at most %d photos allowed, got %d", MaxPhotos, len(p.Photos)))
	}

	if len(p.Reviews) > MaxReviews {
		errors = append(errors, fmt.Sprintf("at most %d reviews allowed, got %d", MaxReviews, len(p.Reviews)))
	}

	for i, s := range p.Stores {
		if s.Rating != nil && (*s.Rating < 0 || *s.Rating > 5) {
			errors = append(errors, fmt.Sprintf("stores[%d].rating out of range: %v", i, *s.Rating))
		}
	}

	for i, r := range p.Reviews {
		if r.ReviewerName == "" {
			errors = append(errors, fmt.Sprintf("reviews[%d].reviewer_name is required", i))
		}
	}

	for star := range p.RatingDistribution.Stars {
		if star < 1 || star > 5 {
			errors = append(errors, fmt.Sprintf("rating_distribution star key out of range: %d", star))
		}
	}

	if p.LowestPrice != nil && p.AveragePrice != nil && p.HighestPrice != nil {
		if *p.LowestPrice > *p.AveragePrice || *p.AveragePrice > *p.HighestPrice {
			errors = append(errors, "price statistics must satisfy lowest <= average <= highest")
		}
	} else if p.LowestPrice != nil || p.AveragePrice != nil || p.HighestPrice != nil {
		errors = append(errors, "price statistics must be all set or all null")
	}

	return errors
}
