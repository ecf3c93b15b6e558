package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// firstText walks selectors in priority order and returns the normalized text
// of the first valid match, or "" when nothing matches. Within one selector,
// elements are visited in document order. With filterInvalid set, candidates
// on the generic-UI denylist and terse rating strings are skipped; they are
// chrome, not data. Changing selector order changes which candidate wins.
func (r *RuleSet) firstText(doc *goquery.Document, selectors []string, filterInvalid bool) string {
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			name := goquery.NodeName(s)
			if name == "script" || name == "style" {
				return true
			}
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return true
			}
			if filterInvalid {
				if r.denied(text) || IsRatingString(text) {
					return true
				}
			}
			found = text
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// firstAttr is the attribute-flavored resolver: it returns the first
// non-empty value of attr across the selector cascade.
func (r *RuleSet) firstAttr(doc *goquery.Document, selectors []string, attr string) string {
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			val, ok := s.Attr(attr)
			if !ok {
				return true
			}
			val = strings.TrimSpace(val)
			if val == "" {
				return true
			}
			found = val
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (r *RuleSet) denied(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range r.Denylist {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
