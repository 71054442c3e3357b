package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/maltedev/shopping-price-tracker/internal/models"
	"github.com/shopspring/decimal"
)

var (
	numberRunPattern   = regexp.MustCompile(`[\d,.]+`)
	floatPrefixPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
)

// PriceStats are the derived price statistics over a set of offers.
type PriceStats struct {
	Lowest  *float64
	Highest *float64
	Average *float64
}

// ExtractNumber pulls a number out of free text such as "1,234.5 ر.س".
// All digit/comma/period runs are concatenated, thousands separators are
// dropped and the leading float is parsed. Returns nil when no digit is found.
func ExtractNumber(text string) *float64 {
	normalized, ok := NormalizeNumerals(text)
	if !ok {
		return nil
	}

	runs := numberRunPattern.FindAllString(normalized, -1)
	if len(runs) == 0 {
		return nil
	}

	joined := strings.ReplaceAll(strings.Join(runs, ""), ",", "")
	return parseFloatPrefix(joined)
}

// ParseRating parses a rating string, treating a comma as the decimal
// point, and rounds it to one decimal.
func ParseRating(text string) *float64 {
	normalized, ok := NormalizeNumerals(strings.TrimSpace(text))
	if !ok {
		return nil
	}

	v := parseFloatPrefix(strings.ReplaceAll(normalized, ",", "."))
	if v == nil {
		return nil
	}

	rounded := RoundRating(*v)
	return &rounded
}

// RoundRating rounds a numeric rating to one decimal place.
func RoundRating(v float64) float64 {
	return round(v, 1)
}

// leadingNumber returns the first number in the text, e.g. 4 for
// "Rated 4 out of 5".
func leadingNumber(text string) *float64 {
	normalized, ok := NormalizeNumerals(text)
	if !ok {
		return nil
	}

	match := numberRunPattern.FindString(strings.ReplaceAll(normalized, ",", "."))
	if match == "" {
		return nil
	}
	return parseFloatPrefix(match)
}

// AggregatePrices computes lowest/highest/average over the offers that carry
// a current price. The average is rounded to 2 decimals. All three are nil
// when no offer has a price.
func AggregatePrices(offers []models.StoreOffer) PriceStats {
	var prices []float64
	for _, o := range offers {
		if v, ok := o.CurrentPrice.Float(); ok {
			prices = append(prices, v)
		}
	}

	if len(prices) == 0 {
		return PriceStats{}
	}

	lowest, highest, sum := prices[0], prices[0], 0.0
	for _, p := range prices {
		if p < lowest {
			lowest = p
		}
		if p > highest {
			highest = p
		}
		sum += p
	}

	average := round(sum/float64(len(prices)), 2)
	if average < lowest {
		average = lowest
	}
	if average > highest {
		average = highest
	}

	return PriceStats{
		Lowest:  &lowest,
		Highest: &highest,
		Average: &average,
	}
}

// parseFloatPrefix parses the longest leading float in s, so trailing
// punctuation like "1234.5." still yields 1234.5.
func parseFloatPrefix(s string) *float64 {
	match := floatPrefixPattern.FindString(strings.TrimSpace(s))
	if match == "" {
		return nil
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
