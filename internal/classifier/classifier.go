package classifier

import (
	"regexp"
	"strings"

	"github.com/maltedev/shopping-price-tracker/internal/models"
)

// Rule maps a label to the patterns that select it. Patterns are matched
// against the lowercased product name.
type Rule struct {
	Label    string
	Patterns []*regexp.Regexp
}

// Classifier evaluates ordered rule tables, first match wins.
type Classifier struct {
	priorityCategories []Rule
	categories         []Rule
	brands             []Rule
}

func New() *Classifier {
	return &Classifier{
		priorityCategories: PriorityCategoryRules(),
		categories:         CategoryRules(),
		brands:             BrandRules(),
	}
}

// NewWithRules builds a classifier over custom tables.
func NewWithRules(priority, categories, brands []Rule) *Classifier {
	return &Classifier{
		priorityCategories: priority,
		categories:         categories,
		brands:             brands,
	}
}

// Brand returns the first matching brand label, or "Unknown".
func (c *Classifier) Brand(name string) string {
	if label, ok := match(c.brands, name); ok {
		return label
	}
	return models.UnknownBrand
}

// Category returns the first matching category label, or "other". The
// priority table runs first so that e.g. "MacBook" is never a phone.
func (c *Classifier) Category(name string) string {
	if label, ok := match(c.priorityCategories, name); ok {
		return label
	}
	if label, ok := match(c.categories, name); ok {
		return label
	}
	return models.OtherCategory
}

func match(rules []Rule, name string) (string, bool) {
	lowered := strings.ToLower(name)
	if lowered == "" {
		return "", false
	}

	for _, rule := range rules {
		for _, pattern := range rule.Patterns {
			if pattern.MatchString(lowered) {
				return rule.Label, true
			}
		}
	}
	return "", false
}

// word matches an English keyword on word boundaries. A model number glued
// to the keyword ("Buds2", "Watch6") still counts as the keyword.
func word(keywords ...string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\d*\b`)
}

// literal matches Arabic script as a plain substring; \b does not apply to it.
func literal(keywords ...string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}
