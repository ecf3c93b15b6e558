package extract

import (
	"sort"
	"strconv"
	"strings"

	"mapscraper/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns rendered detail-page HTML into a BusinessRecord. It holds
// no mutable state: the same HTML always yields the same record, and one
// Extractor is shared across all concurrent fetches.
type Extractor struct {
	rules *RuleSet
}

func NewExtractor(rules *RuleSet) *Extractor {
	return &Extractor{rules: rules}
}

// Extract resolves every field independently against its own rule list.
// Absence of a field is a valid outcome, not an error; the only error path is
// HTML that cannot be parsed at all. SourceURL, ScrapedAt and query identity
// are the caller's responsibility.
func (e *Extractor) Extract(html string) (*domain.BusinessRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	doc.Find("script, style").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})
	fullText := strings.Join(strings.Fields(doc.Text()), " ")

	rec := &domain.BusinessRecord{}

	rec.Name = e.rules.firstText(doc, e.rules.Name, true)
	if rec.Name == "" {
		rec.Name = strings.TrimSpace(e.rules.firstAttr(doc, e.rules.NameAria, "aria-label"))
	}

	ratingBlock := e.rules.firstAttr(doc, e.rules.RatingAria, "aria-label")
	if ratingBlock == "" {
		ratingBlock = e.rules.firstText(doc, e.rules.RatingText, false)
	}

	// Result cards place the terse rating "4.0(30)" in a container that is
	// visually adjacent to the address. A candidate that parses as a rating
	// string feeds the rating instead, and the business is reported
	// addressless.
	address := e.rules.firstText(doc, e.rules.Address, false)
	if address != "" && IsRatingString(address) {
		if ratingBlock == "" {
			ratingBlock = address
		}
		address = ""
	} else if address != "" && (e.rules.denied(address) || !IsValidAddress(address)) {
		address = ""
	}
	rec.Address = address

	rec.Rating, rec.ReviewCount = ParseRatingAndReviews(ratingBlock)
	rec.Phone = e.extractPhone(fullText)
	rec.Website = e.extractWebsite(doc)
	rec.Email = e.rules.Email.FindString(fullText)
	rec.SocialLinks = e.extractSocialLinks(fullText)

	return rec, nil
}

// ParseRatingAndReviews parses a rating annotation block. Two forms are
// recognized, in priority order: the verbose "4.8 stars 36 Reviews" and the
// terse "4.8(36)". Anything else yields both fields absent.
func ParseRatingAndReviews(block string) (*float64, *int) {
	if block == "" {
		return nil, nil
	}
	m := reVerboseRating.FindStringSubmatch(block)
	if m == nil {
		m = reTerseCapture.FindStringSubmatch(block)
	}
	if m == nil {
		return nil, nil
	}
	rating, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, nil
	}
	count, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return &rating, nil
	}
	return &rating, &count
}

func (e *Extractor) extractPhone(fullText string) string {
	for _, pattern := range e.rules.PhonePatterns {
		if match := pattern.FindString(fullText); match != "" {
			return match
		}
	}
	return ""
}

// extractWebsite returns the first rule hit whose link target is an absolute
// http(s) URL. tel: and mailto: anchors never qualify.
func (e *Extractor) extractWebsite(doc *goquery.Document) string {
	for _, sel := range e.rules.Website {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, ok := s.Attr("href")
			if !ok {
				return true
			}
			href = strings.TrimSpace(href)
			if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
				return true
			}
			found = href
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (e *Extractor) extractSocialLinks(fullText string) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, raw := range e.rules.SocialURL.FindAllString(fullText, -1) {
		for _, platform := range e.rules.SocialPlatforms {
			if platform.MatchString(raw) {
				if _, dup := seen[raw]; !dup {
					seen[raw] = struct{}{}
					links = append(links, raw)
				}
				break
			}
		}
	}
	sort.Strings(links)
	return links
}
