package crawler

import (
	"context"
	"testing"
	"time"

	"mapscraper/internal/domain"
	"mapscraper/internal/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

// One registry-backed metrics value per test binary.
var testMetrics = monitoring.NewMetrics()

type fakePage struct {
	counts  []int
	idx     int
	scrolls int
	links   []string
	found   bool
}

func (p *fakePage) WaitForResults(ctx context.Context) (bool, error) {
	return p.found, nil
}

func (p *fakePage) Count(ctx context.Context) (int, error) {
	c := p.counts[p.idx]
	if p.idx < len(p.counts)-1 {
		p.idx++
	}
	return c, nil
}

func (p *fakePage) Scroll(ctx context.Context) error {
	p.scrolls++
	return nil
}

func (p *fakePage) Links(ctx context.Context) ([]string, error) {
	return p.links, nil
}

func newTestCrawler(stableChecks int) *Crawler {
	return NewCrawler(time.Millisecond, stableChecks, testMetrics, zap.NewNop())
}

func TestScrollLoopStopsWhenCountIsStable(t *testing.T) {
	page := &fakePage{
		counts: []int{5, 5},
		found:  true,
		links: []string{
			"/maps/place/a", "/maps/place/b", "/maps/place/c",
			"/maps/place/d", "/maps/place/e",
		},
	}

	links, err := newTestCrawler(1).collectLinks(context.Background(), page)
	require.NoError(t, err)

	assert.Zero(t, page.scrolls, "stable count on first check means no scrolling")
	assert.Len(t, links, 5)
}

func TestScrollLoopScrollsWhileGrowing(t *testing.T) {
	page := &fakePage{
		counts: []int{5, 9, 9},
		found:  true,
		links:  []string{"/maps/place/a"},
	}

	_, err := newTestCrawler(1).collectLinks(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, 1, page.scrolls)
}

func TestScrollLoopHonorsStableChecksTunable(t *testing.T) {
	// With two required stable checks a single flat measurement is not
	// enough to terminate.
	page := &fakePage{
		counts: []int{5, 5, 9, 9, 9},
		found:  true,
	}

	_, err := newTestCrawler(2).collectLinks(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, 1, page.scrolls)
}

func TestNoResultMarkersIsEmptySuccess(t *testing.T) {
	page := &fakePage{found: false}

	links, err := newTestCrawler(1).collectLinks(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestNormalizeLinks(t *testing.T) {
	links := normalizeLinks([]string{
		"/maps/place/blue-bottle",
		"https://www.google.com/maps/place/corner-bakery",
		"/maps/place/blue-bottle",
		"https://www.google.com/maps/search/ignored",
		"",
	})

	assert.Equal(t, []string{
		"https://www.google.com/maps/place/blue-bottle",
		"https://www.google.com/maps/place/corner-bakery",
	}, links)
}

func TestBuildSearchURL(t *testing.T) {
	u := BuildSearchURL(domain.Query{
		Industry:  "coffee shops",
		Latitude:  40.7128,
		Longitude: -74.006,
		ZoomLevel: 14,
	})

	assert.Equal(t, "https://www.google.com/maps/search/coffee+shops/@40.7128,-74.006,14z?hl=en", u)
}
