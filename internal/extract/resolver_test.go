package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestResolverIsOrderSensitive(t *testing.T) {
	rules := DefaultRules()
	doc := parseDoc(t, `<div>
<span class="modern">Modern Value</span>
<span class="legacy">Legacy Value</span>
</div>`)

	// The resolver returns the first rule-list match, not the best match:
	// reordering the rules changes which candidate wins.
	assert.Equal(t, "Modern Value", rules.firstText(doc, []string{".modern", ".legacy"}, true))
	assert.Equal(t, "Legacy Value", rules.firstText(doc, []string{".legacy", ".modern"}, true))
}

func TestResolverFallsThroughEmptyRules(t *testing.T) {
	rules := DefaultRules()
	doc := parseDoc(t, `<div><span class="legacy">Legacy Value</span></div>`)

	assert.Equal(t, "Legacy Value", rules.firstText(doc, []string{".missing", ".legacy"}, true))
	assert.Empty(t, rules.firstText(doc, []string{".missing", ".also-missing"}, true))
}

func TestResolverSkipsDenylistedText(t *testing.T) {
	rules := DefaultRules()
	doc := parseDoc(t, `<div>
<span class="field">Share</span>
<span class="field">Real Business Name</span>
</div>`)

	assert.Equal(t, "Real Business Name", rules.firstText(doc, []string{".field"}, true))

	// With filtering disabled the UI chrome wins on document order.
	assert.Equal(t, "Share", rules.firstText(doc, []string{".field"}, false))
}

func TestResolverSkipsRatingStrings(t *testing.T) {
	rules := DefaultRules()
	doc := parseDoc(t, `<div>
<span class="field">4.0(30)</span>
<span class="field">42 Oak Ave</span>
</div>`)

	assert.Equal(t, "42 Oak Ave", rules.firstText(doc, []string{".field"}, true))
}

func TestFirstAttr(t *testing.T) {
	rules := DefaultRules()
	doc := parseDoc(t, `<div>
<a class="card" href="/one"></a>
<a class="card" aria-label="The Label" href="/two"></a>
</div>`)

	assert.Equal(t, "The Label", rules.firstAttr(doc, []string{".card"}, "aria-label"))
	assert.Equal(t, "/one", rules.firstAttr(doc, []string{".card"}, "href"))
	assert.Empty(t, rules.firstAttr(doc, []string{".card"}, "data-missing"))
}
