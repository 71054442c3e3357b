package classifier

import "regexp"

// PriorityCategoryRules are checked before the general table because their
// names overlap with phone patterns ("MacBook", "Galaxy Tab", "iPad").
func PriorityCategoryRules() []Rule {
	return []Rule{
		{Label: "laptops", Patterns: []*regexp.Regexp{
			word("macbook", "laptop", "notebook", "chromebook", "thinkpad", "ideapad", "zenbook", "vivobook", "xps", "surface laptop", "pavilion", "inspiron", "rog strix", "legion"),
			literal("لابتوب", "لاب توب", "حاسوب محمول", "كمبيوتر محمول", "ماك بوك"),
		}},
		{Label: "tablets", Patterns: []*regexp.Regexp{
			word("ipad", "tablet", "galaxy tab", "matepad", "surface pro", "kindle", "redmi pad", "xiaomi pad"),
			literal("تابلت", "آيباد", "ايباد", "جهاز لوحي"),
		}},
	}
}

// CategoryRules is the general category table.
func CategoryRules() []Rule {
	return []Rule{
		{Label: "watches", Patterns: []*regexp.Regexp{
			word("watch", "smartwatch", "smart watch", "band", "fitbit"),
			literal("ساعة", "ساعه"),
		}},
		{Label: "headphones", Patterns: []*regexp.Regexp{
			word("airpods", "headphones", "headphone", "earbuds", "earphones", "headset", "buds"),
			literal("سماعة", "سماعات"),
		}},
		{Label: "phones", Patterns: []*regexp.Regexp{
			word("iphone", "galaxy", "smartphone", "phone", "pixel", "redmi", "oneplus", "honor", "nova", "oppo", "vivo", "realme"),
			literal("جوال", "هاتف", "ايفون", "آيفون", "جالكسي", "موبايل"),
		}},
		{Label: "tvs", Patterns: []*regexp.Regexp{
			word("tv", "television", "qled", "smart tv"),
			literal("تلفزيون", "شاشة تلفاز", "تلفاز"),
		}},
		{Label: "gaming", Patterns: []*regexp.Regexp{
			word("playstation", "ps5", "ps4", "xbox", "nintendo", "switch", "console"),
			literal("بلايستيشن", "بلاي ستيشن", "اكس بوكس", "جهاز ألعاب"),
		}},
		{Label: "cameras", Patterns: []*regexp.Regexp{
			word("camera", "dslr", "mirrorless", "gopro", "eos", "lumix"),
			literal("كاميرا"),
		}},
	}
}

// BrandRules is the brand table.
func BrandRules() []Rule {
	return []Rule{
		{Label: "Apple", Patterns: []*regexp.Regexp{
			word("apple", "iphone", "ipad", "macbook", "airpods", "imac"),
			literal("أبل", "آبل", "ايفون", "آيفون", "ايباد", "آيباد"),
		}},
		{Label: "Samsung", Patterns: []*regexp.Regexp{
			word("samsung", "galaxy"),
			literal("سامسونج", "سامسونغ", "جالكسي", "جالاكسي"),
		}},
		{Label: "Huawei", Patterns: []*regexp.Regexp{
			word("huawei", "matepad", "matebook"),
			literal("هواوي"),
		}},
		{Label: "Xiaomi", Patterns: []*regexp.Regexp{
			word("xiaomi", "redmi", "poco"),
			literal("شاومي", "شياومي", "ريدمي"),
		}},
		{Label: "Google", Patterns: []*regexp.Regexp{
			word("google", "pixel"),
			literal("جوجل", "بيكسل"),
		}},
		{Label: "Sony", Patterns: []*regexp.Regexp{
			word("sony", "playstation", "ps5", "ps4"),
			literal("سوني", "بلايستيشن"),
		}},
		{Label: "LG", Patterns: []*regexp.Regexp{
			word("lg"),
			literal("ال جي"),
		}},
		{Label: "Lenovo", Patterns: []*regexp.Regexp{
			word("lenovo", "thinkpad", "ideapad", "legion"),
			literal("لينوفو"),
		}},
		{Label: "HP", Patterns: []*regexp.Regexp{
			word("hp", "pavilion", "omen"),
			literal("اتش بي"),
		}},
		{Label: "Dell", Patterns: []*regexp.Regexp{
			word("dell", "inspiron", "xps", "alienware"),
			literal("لابتوب ديل", "حاسوب ديل"),
		}},
		{Label: "Asus", Patterns: []*regexp.Regexp{
			word("asus", "zenbook", "vivobook", "rog"),
			literal("اسوس", "أسوس"),
		}},
		{Label: "Microsoft", Patterns: []*regexp.Regexp{
			word("microsoft", "surface", "xbox"),
			literal("مايكروسوفت"),
		}},
		{Label: "Nintendo", Patterns: []*regexp.Regexp{
			word("nintendo"),
			literal("نينتندو"),
		}},
		{Label: "OnePlus", Patterns: []*regexp.Regexp{
			word("oneplus"),
			literal("ون بلس"),
		}},
		{Label: "Oppo", Patterns: []*regexp.Regexp{
			word("oppo"),
			literal("اوبو"),
		}},
		{Label: "Honor", Patterns: []*regexp.Regexp{
			word("honor"),
			literal("هونر", "أونر"),
		}},
		{Label: "Canon", Patterns: []*regexp.Regexp{
			word("canon", "eos"),
			literal("كانون"),
		}},
		{Label: "Nikon", Patterns: []*regexp.Regexp{
			word("nikon"),
			literal("نيكون"),
		}},
	}
}
