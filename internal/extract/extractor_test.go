package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailPageHTML = `<html><body>
<h1 class="DUwDvf">Blue Bottle Coffee</h1>
<span role="img" aria-label="4.8 stars 36 Reviews"></span>
<div class="W4Efsd"><span>Coffee shop</span><span>123 Main St</span></div>
<a data-item-id="authority" href="https://bluebottle.example.com">Open site</a>
<div>Call us at (555) 123-4567 or write to info@bluebottle.example.com</div>
<div>https://facebook.com/bluebottle https://instagram.com/bluebottle</div>
<script>var tracking = "ops@tracker.internal.invalid";</script>
</body></html>`

func TestExtractFullRecord(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	rec, err := ex.Extract(detailPageHTML)
	require.NoError(t, err)

	assert.Equal(t, "Blue Bottle Coffee", rec.Name)
	require.NotNil(t, rec.Rating)
	assert.InDelta(t, 4.8, *rec.Rating, 0.001)
	require.NotNil(t, rec.ReviewCount)
	assert.Equal(t, 36, *rec.ReviewCount)
	assert.Equal(t, "123 Main St", rec.Address)
	assert.Equal(t, "(555) 123-4567", rec.Phone)
	assert.Equal(t, "https://bluebottle.example.com", rec.Website)
	assert.Equal(t, "info@bluebottle.example.com", rec.Email)
	assert.Equal(t, []string{
		"https://facebook.com/bluebottle",
		"https://instagram.com/bluebottle",
	}, rec.SocialLinks)
}

func TestExtractIsIdempotent(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	first, err := ex.Extract(detailPageHTML)
	require.NoError(t, err)
	second, err := ex.Extract(detailPageHTML)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractNamelessRecordIsNotViable(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	rec, err := ex.Extract(`<html><body>
<span role="img" aria-label="4.2 stars 12 Reviews"></span>
<div class="W4Efsd"><span>Bakery</span><span>42 Oak Ave</span></div>
</body></html>`)
	require.NoError(t, err)

	assert.Empty(t, rec.Name)
	assert.False(t, rec.Viable())
}

func TestExtractNameFromLinkAriaLabel(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	rec, err := ex.Extract(`<html><body>
<a class="hfpxzc" aria-label="Corner Bakery" href="/maps/place/corner-bakery"></a>
</body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Corner Bakery", rec.Name)
}

func TestExtractAddressThatLooksLikeRating(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	// The address container holds the terse rating form; the record is
	// reported addressless and the rating is recovered from it.
	rec, err := ex.Extract(`<html><body>
<h1 class="DUwDvf">Mario's Pizza</h1>
<div class="W4Efsd"><span>Pizza</span><span>4.0(30)</span></div>
</body></html>`)
	require.NoError(t, err)

	assert.Empty(t, rec.Address)
	require.NotNil(t, rec.Rating)
	assert.InDelta(t, 4.0, *rec.Rating, 0.001)
	require.NotNil(t, rec.ReviewCount)
	assert.Equal(t, 30, *rec.ReviewCount)
}

func TestExtractWebsiteSkipsNonHTTPSchemes(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	rec, err := ex.Extract(`<html><body>
<h1 class="DUwDvf">Dry Cleaners</h1>
<a data-item-id="authority" href="tel:+15551234567">Call</a>
<div class="etWJQ"><a href="https://cleaners.example.com">site</a></div>
</body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "https://cleaners.example.com", rec.Website)
}

func TestParseRatingAndReviews(t *testing.T) {
	tests := []struct {
		name       string
		block      string
		wantRating float64
		wantCount  int
		wantAbsent bool
	}{
		{name: "verbose form", block: "4.8 stars 36 Reviews", wantRating: 4.8, wantCount: 36},
		{name: "verbose lowercase", block: "4.6 stars 180 reviews", wantRating: 4.6, wantCount: 180},
		{name: "verbose with comma count", block: "4.9 stars 1,204 Reviews", wantRating: 4.9, wantCount: 1204},
		{name: "terse form", block: "4.8(36)", wantRating: 4.8, wantCount: 36},
		{name: "no digits", block: "No reviews yet", wantAbsent: true},
		{name: "empty", block: "", wantAbsent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating, count := ParseRatingAndReviews(tt.block)
			if tt.wantAbsent {
				assert.Nil(t, rating)
				assert.Nil(t, count)
				return
			}
			require.NotNil(t, rating)
			assert.InDelta(t, tt.wantRating, *rating, 0.001)
			require.NotNil(t, count)
			assert.Equal(t, tt.wantCount, *count)
		})
	}
}

func TestAddressValidation(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"123 Main St", true},
		{"Fifth Ave", true},
		{"Somewhere nice", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidAddress(tt.text), "IsValidAddress(%q)", tt.text)
	}
}

func TestIsRatingString(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"4.0(30)", true},
		{"5(1)", true},
		{"4.9(1,204)", true},
		{"123 Main St", false},
		{"4.0 stars", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRatingString(tt.text), "IsRatingString(%q)", tt.text)
	}
}
