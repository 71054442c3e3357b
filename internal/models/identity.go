package models

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"time"
)

var nonIdentifierChars = regexp.MustCompile(`[^a-zA-Z0-9\x{0600}-\x{06FF}]+`)

// ProductID derives the upsert key for a product: the name reduced to
// Latin/Arabic letters and digits, plus the first 8 hex chars of the MD5
// of the raw source URL.
func ProductID(name, sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return nonIdentifierChars.ReplaceAllString(name, "") + "-" + hex.EncodeToString(sum[:])[:8]
}

// Merge applies a freshly scraped record on top of the stored one.
// Mutable fields are replaced wholesale and exactly one history entry is
// appended; previous history entries are carried over untouched.
func Merge(existing, incoming *Product, now time.Time) *Product {
	merged := *incoming
	merged.ID = ProductID(incoming.Name, incoming.SourceURL)
	merged.UpdatedAt = now

	if existing == nil {
		merged.CreatedAt = now
		merged.PriceHistory = nil
	} else {
		merged.CreatedAt = existing.CreatedAt
		merged.PriceHistory = make([]PriceHistoryEntry, len(existing.PriceHistory), len(existing.PriceHistory)+1)
		copy(merged.PriceHistory, existing.PriceHistory)
	}

	merged.PriceHistory = append(merged.PriceHistory, PriceHistoryEntry{
		Timestamp:    now,
		LowestPrice:  incoming.LowestPrice,
		HighestPrice: incoming.HighestPrice,
		AveragePrice: incoming.AveragePrice,
		Currency:     DefaultCurrency,
	})

	return &merged
}
