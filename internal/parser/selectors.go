package parser

// Selectors is the markup contract for the product page. It is data, not
// logic: when the page layout drifts only these values change.
type Selectors struct {
	PageTitle   string
	ProductType string
	Image       string

	StoreContainer string
	Title          string
	StoreName      string
	// CurrentPrice and OriginalPrice are tried in order.
	CurrentPrice  []string
	OriginalPrice []string
	StoreRating   string
	Delivery      string
	ProductLink   string

	ReviewContainer string
	ReviewerName    string
	// ReviewRating carries the rating in its aria-label, e.g. "Rated 4 out of 5".
	ReviewRating    string
	ReviewFullText  string
	ReviewShortText string
	ReviewSource    string

	AverageRating   string
	TotalReviews    string
	DistributionRow string
	RowStar         string
	RowPercentage   string
	RowCount        string

	FreeDeliveryKeywords []string
	ReviewSourcePrefixes []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		PageTitle:   "h1.sh-t__title, h1",
		ProductType: ".sh-pr__product-type",
		Image:       ".sh-div__image img, .main-image img",

		StoreContainer: ".sh-osd__offer-row",
		Title:          ".sh-osd__title",
		StoreName:      ".sh-osd__seller-link, .kPMwsc",
		CurrentPrice: []string{
			".sh-osd__total-price",
			".g9WBQb",
			".sh-osd__price span[aria-hidden='true']",
			".sh-osd__price",
		},
		OriginalPrice: []string{
			".sh-osd__original-price",
			".Hlkkfe",
			"s",
		},
		StoreRating: ".sh-osd__seller-rating",
		Delivery:    ".sh-osd__delivery, .sh-osd__shipping",
		ProductLink: "a.sh-osd__offer-link, a[href]",

		ReviewContainer: ".sh-rv__review",
		ReviewerName:    ".sh-rv__reviewer",
		ReviewRating:    "[aria-label]",
		ReviewFullText:  ".sh-rv__full-text",
		ReviewShortText: ".sh-rv__short-text",
		ReviewSource:    ".sh-rv__source",

		AverageRating:   ".sh-rt__average",
		TotalReviews:    ".sh-rt__total",
		DistributionRow: ".sh-rt__row",
		RowStar:         ".sh-rt__star",
		RowPercentage:   ".sh-rt__bar",
		RowCount:        ".sh-rt__count",

		FreeDeliveryKeywords: []string{
			"free delivery",
			"free shipping",
			"توصيل مجاني",
			"شحن مجاني",
			"التوصيل مجاني",
		},
		ReviewSourcePrefixes: []string{
			"Reviewed on ",
			"Review from ",
			"تمت المراجعة في ",
			"تمت مراجعته على ",
			"مراجعة من ",
		},
	}
}
