package extract

import "regexp"

// RuleSet holds the ordered selector lists and patterns used to pull business
// fields out of a rendered detail page. Rule order encodes a confidence
// ranking: the most specific, current markup comes first and looser legacy
// markup last. The set is loaded once and shared read-only across all
// concurrent extractions.
type RuleSet struct {
	// Name selectors are tried against element text; NameAria selectors fall
	// back to the aria-label attribute of the result link itself.
	Name     []string
	NameAria []string

	// RatingAria selectors point at the annotation element whose aria-label
	// carries the rating summary, e.g. "4.6 stars 180 Reviews". RatingText
	// selectors are legacy containers holding the same summary as text.
	RatingAria []string
	RatingText []string

	Address []string
	Website []string

	// PhonePatterns are tried in order against the page's full text. The
	// canonical international form comes first.
	PhonePatterns []*regexp.Regexp

	Email *regexp.Regexp

	SocialURL       *regexp.Regexp
	SocialPlatforms []*regexp.Regexp

	// Denylist of generic UI words; candidate text containing any of these is
	// never data, regardless of which field's rule list produced it.
	Denylist []string
}

var (
	reVerboseRating = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+stars\s+(\d+(?:,\d+)*)\s+[Rr]eviews`)
	reTerseCapture  = regexp.MustCompile(`(\d+(?:\.\d+)?)\D*?(\d+)`)
	reTerseRating   = regexp.MustCompile(`^\d+(?:\.\d+)?\(\d+(?:,\d+)*\)$`)
	reValidAddress  = regexp.MustCompile(`\d|(?i:\b(?:st|ave|blvd|rd|lane|dr|street|avenue|road)\b)`)
)

// DefaultRules returns the rule set for the current Google Maps markup.
// Treat this as configuration data: markup drift is fixed here, not in the
// resolver or extractor logic.
func DefaultRules() *RuleSet {
	return &RuleSet{
		Name: []string{
			".qBF1Pd.fontHeadlineSmall",
			".DUwDvf",
			".fontHeadlineSmall",
		},
		NameAria: []string{
			"a.hfpxzc",
		},
		RatingAria: []string{
			`span[role="img"]`,
		},
		RatingText: []string{
			".e4rVHe.fontBodyMedium",
			".ZkP5Je+span.e4rVHe",
			".AJB7ye .e4rVHe",
			".rsqaWe",
		},
		Address: []string{
			".W4Efsd span:nth-of-type(2)",
			".Io6YTe.fontBodyMedium",
			".section-info-text > span:first-child",
		},
		Website: []string{
			`a[data-item-id="authority"]`,
			".etWJQ a[href]",
			`a[jslog*="action:pane.website"]`,
			`[data-section-id="apn"]`,
			".bIAO7b > a",
		},
		PhonePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\+\d{1,2}\s\d{3}-\d{3}-\d{4}`),
			regexp.MustCompile(`\(\d{3}\)\s\d{3}-\d{4}`),
			regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`),
		},
		Email:     regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		SocialURL: regexp.MustCompile(`https?://[^\s"'>]+`),
		SocialPlatforms: []*regexp.Regexp{
			regexp.MustCompile(`(?i)facebook\.com|fb\.com`),
			regexp.MustCompile(`(?i)instagram\.com|instagr\.am`),
			regexp.MustCompile(`(?i)twitter\.com|x\.com`),
			regexp.MustCompile(`(?i)linkedin\.com`),
			regexp.MustCompile(`(?i)youtube\.com|youtu\.be`),
			regexp.MustCompile(`(?i)tiktok\.com`),
			regexp.MustCompile(`(?i)pinterest\.com`),
			regexp.MustCompile(`(?i)reddit\.com`),
			regexp.MustCompile(`(?i)whatsapp\.com`),
		},
		Denylist: []string{"photos", "write", "add", "videos", "menu", "share", "edit", "more", "visit"},
	}
}

// IsRatingString reports whether text is the terse rating form, e.g. "4.0(30)".
// Such strings are never valid values for unrelated fields.
func IsRatingString(text string) bool {
	return reTerseRating.MatchString(text)
}

// IsValidAddress reports whether text plausibly is a street address: it must
// contain a numeric token or a known street-type abbreviation.
func IsValidAddress(text string) bool {
	return reValidAddress.MatchString(text)
}
