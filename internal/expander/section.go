package expander

// Section describes one expandable list on the page.
type Section struct {
	Name string
	// ContainerSelector marks the presence of the section at all.
	ContainerSelector  string
	Selector           string
	AlternateSelectors []string
	// Phrases are the localized labels of the "show more" control, in
	// priority order.
	Phrases      []string
	ItemSelector string
	// SufficiencyThreshold: with more visible items than this, a missing
	// control means the list is already complete enough.
	SufficiencyThreshold int
}

func StoresSection(threshold int) Section {
	return Section{
		Name:              "stores",
		ContainerSelector: ".sh-osd__offers",
		Selector:          ".sh-osd__more-offers button",
		AlternateSelectors: []string{
			"[jsname='more-offers']",
			".sh-osd__more-offers [role='button']",
			"button[aria-label*='stores']",
		},
		Phrases: []string{
			"More stores",
			"Show more stores",
			"عرض المزيد من المتاجر",
			"المزيد من المتاجر",
			"Plus de magasins",
		},
		ItemSelector:         ".sh-osd__offer-row",
		SufficiencyThreshold: threshold,
	}
}

func ReviewsSection(threshold int) Section {
	return Section{
		Name:              "reviews",
		ContainerSelector: ".sh-rv__reviews",
		Selector:          ".sh-rv__more button",
		AlternateSelectors: []string{
			"[jsname='more-reviews']",
			".sh-rv__more [role='button']",
			"button[aria-label*='reviews']",
		},
		Phrases: []string{
			"More reviews",
			"Show more reviews",
			"عرض المزيد من المراجعات",
			"المزيد من المراجعات",
			"Plus d'avis",
		},
		ItemSelector:         ".sh-rv__review",
		SufficiencyThreshold: threshold,
	}
}
