package parser

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/shopping-price-tracker/internal/classifier"
	"github.com/maltedev/shopping-price-tracker/internal/models"
)

const distributionRows = 5

// Options carries caller overrides. Empty values fall back to the classifier.
type Options struct {
	Category string
	Brand    string
}

type ShoppingParser struct {
	selectors  Selectors
	classifier *classifier.Classifier
}

func NewShoppingParser(selectors Selectors, c *classifier.Classifier) *ShoppingParser {
	if c == nil {
		c = classifier.New()
	}
	return &ShoppingParser{
		selectors:  selectors,
		classifier: c,
	}
}

// ParseHTML parses a raw DOM snapshot.
func (p *ShoppingParser) ParseHTML(html, sourceURL string, opts Options) (*models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return p.Parse(doc, sourceURL, opts), nil
}

// Parse builds the product record from a document. Missing markup never
// fails; it only leaves the corresponding field empty. ID, timestamps and
// history are left for the persistence layer.
func (p *ShoppingParser) Parse(doc *goquery.Document, sourceURL string, opts Options) *models.Product {
	containers := doc.Find(p.selectors.StoreContainer)

	product := &models.Product{
		Name:        p.extractName(doc, containers),
		ProductType: cleanText(doc.Find(p.selectors.ProductType).First().Text()),
		Photos:      p.extractImages(doc, sourceURL),
		SourceURL:   sourceURL,
		Stores:      []models.StoreOffer{},
		Reviews:     p.extractReviews(doc),
	}

	containers.Each(func(_ int, s *goquery.Selection) {
		product.Stores = append(product.Stores, p.extractOffer(s, sourceURL))
	})

	product.RatingDistribution = p.extractDistribution(doc)

	product.Category = opts.Category
	if product.Category == "" {
		product.Category = p.classifier.Category(product.Name)
	}
	product.Brand = opts.Brand
	if product.Brand == "" {
		product.Brand = p.classifier.Brand(product.Name)
	}

	stats := AggregatePrices(product.Stores)
	product.LowestPrice = stats.Lowest
	product.HighestPrice = stats.Highest
	product.AveragePrice = stats.Average

	return product
}

// The title is repeated in every offer block; the first one is used.
func (p *ShoppingParser) extractName(doc *goquery.Document, containers *goquery.Selection) string {
	if name := cleanText(containers.First().Find(p.selectors.Title).First().Text()); name != "" {
		return name
	}
	return cleanText(doc.Find(p.selectors.PageTitle).First().Text())
}

func (p *ShoppingParser) extractImages(doc *goquery.Document, sourceURL string) []string {
	images := []string{}
	seen := make(map[string]bool)

	doc.Find(p.selectors.Image).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if src == "" {
			src, _ = s.Attr("data-src")
		}
		src = resolveURL(sourceURL, strings.TrimSpace(src))
		if src == "" || seen[src] {
			return true
		}

		seen[src] = true
		images = append(images, src)
		return len(images) < models.MaxPhotos
	})

	return images
}

func (p *ShoppingParser) extractOffer(s *goquery.Selection, sourceURL string) models.StoreOffer {
	offer := models.StoreOffer{
		Name:         cleanText(s.Find(p.selectors.StoreName).First().Text()),
		ProductTitle: cleanText(s.Find(p.selectors.Title).First().Text()),
	}

	// first candidate present wins, even if its text holds no number
	for _, candidate := range p.selectors.CurrentPrice {
		if found := s.Find(candidate); found.Length() > 0 {
			offer.CurrentPrice = toPrice(ExtractNumber(found.First().Text()))
			break
		}
	}

	offer.OriginalPrice = offer.CurrentPrice
	for _, candidate := range p.selectors.OriginalPrice {
		if text := cleanText(s.Find(candidate).First().Text()); text != "" {
			offer.OriginalPrice = toPrice(ExtractNumber(text))
			break
		}
	}

	if text := cleanText(s.Find(p.selectors.StoreRating).First().Text()); text != "" {
		offer.Rating = ParseRating(text)
	}

	offer.FreeDelivery = p.isFreeDelivery(s.Find(p.selectors.Delivery).Text())

	if href, ok := s.Find(p.selectors.ProductLink).First().Attr("href"); ok {
		offer.ProductURL = resolveURL(sourceURL, strings.TrimSpace(href))
	}

	return offer
}

func (p *ShoppingParser) isFreeDelivery(text string) bool {
	lowered := strings.ToLower(text)
	if lowered == "" {
		return false
	}

	for _, keyword := range p.selectors.FreeDeliveryKeywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func (p *ShoppingParser) extractReviews(doc *goquery.Document) []models.Review {
	reviews := []models.Review{}

	doc.Find(p.selectors.ReviewContainer).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := cleanText(s.Find(p.selectors.ReviewerName).First().Text())
		if name == "" {
			return true
		}

		review := models.Review{
			ReviewerName: name,
			Text:         cleanText(s.Find(p.selectors.ReviewFullText).First().Text()),
			Source:       p.stripSourcePrefix(cleanText(s.Find(p.selectors.ReviewSource).First().Text())),
		}
		if review.Text == "" {
			review.Text = cleanText(s.Find(p.selectors.ReviewShortText).First().Text())
		}

		if label, ok := s.Find(p.selectors.ReviewRating).First().Attr("aria-label"); ok {
			if v := leadingNumber(label); v != nil {
				rounded := RoundRating(*v)
				review.Rating = &rounded
			}
		}

		reviews = append(reviews, review)
		return len(reviews) < models.MaxReviews
	})

	return reviews
}

func (p *ShoppingParser) stripSourcePrefix(source string) string {
	for _, prefix := range p.selectors.ReviewSourcePrefixes {
		if strings.HasPrefix(source, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(source, prefix))
		}
	}
	return source
}

func (p *ShoppingParser) extractDistribution(doc *goquery.Document) models.RatingDistribution {
	dist := models.RatingDistribution{
		Stars: make(map[int]models.StarBreakdown),
	}

	if text := cleanText(doc.Find(p.selectors.AverageRating).First().Text()); text != "" {
		dist.AverageRating = ParseRating(text)
	}
	dist.TotalReviews = toInt(ExtractNumber(doc.Find(p.selectors.TotalReviews).First().Text()))

	rows := doc.Find(p.selectors.DistributionRow)
	for i := 0; i < distributionRows && i < rows.Length(); i++ {
		row := rows.Eq(i)

		star := distributionRows - i
		if v := leadingNumber(row.Find(p.selectors.RowStar).First().Text()); v != nil && *v >= 1 && *v <= 5 {
			star = int(*v)
		}

		bar := row.Find(p.selectors.RowPercentage).First()
		percentText, ok := bar.Attr("aria-label")
		if !ok {
			percentText = bar.Text()
		}

		dist.Stars[star] = models.StarBreakdown{
			Percentage:  leadingNumber(percentText),
			ReviewCount: toInt(ExtractNumber(row.Find(p.selectors.RowCount).First().Text())),
		}
	}

	return dist
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func toPrice(v *float64) *models.Price {
	if v == nil {
		return nil
	}
	return models.NewPrice(*v)
}

func toInt(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func resolveURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
