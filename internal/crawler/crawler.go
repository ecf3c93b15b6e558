package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"mapscraper/internal/browser"
	"mapscraper/internal/domain"
	"mapscraper/internal/monitoring"

	"go.uber.org/zap"
)

const (
	searchBaseURL = "https://www.google.com/maps/search/"
	resultMarker  = ".Nv2PK"
)

const countScript = `document.querySelectorAll('div.Nv2PK').length`

const scrollScript = `(function () {
  const feed = document.querySelector('div[role="feed"]');
  if (feed) {
    feed.scrollBy(0, feed.offsetHeight);
  } else {
    window.scrollBy(0, window.innerHeight);
  }
})();`

const linksScript = `Array.from(document.querySelectorAll('div.Nv2PK a.hfpxzc'))
  .map(a => a.getAttribute('href') || '')
  .filter(h => h.length > 0)`

// resultsPage is the slice of browser behavior the scroll loop needs. The
// crawler tests substitute a scripted page here.
type resultsPage interface {
	WaitForResults(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
	Scroll(ctx context.Context) error
	Links(ctx context.Context) ([]string, error)
}

// Crawler enumerates the detail links for one search query by driving the
// map-search page: navigate, scroll until the result count stabilizes,
// collect and deduplicate links.
type Crawler struct {
	scrollDelay  time.Duration
	stableChecks int
	metrics      *monitoring.Metrics
	logger       *zap.Logger
}

func NewCrawler(scrollDelay time.Duration, stableChecks int, m *monitoring.Metrics, l *zap.Logger) *Crawler {
	if stableChecks < 1 {
		stableChecks = 1
	}
	return &Crawler{
		scrollDelay:  scrollDelay,
		stableChecks: stableChecks,
		metrics:      m,
		logger:       l,
	}
}

// Crawl returns the deduplicated detail links for q. The session stays open
// for the caller's detail fetches; the caller closes it. An area/industry
// with no results is an empty, successful crawl.
func (c *Crawler) Crawl(ctx context.Context, sess *browser.Session, q domain.Query) ([]string, error) {
	searchURL := BuildSearchURL(q)
	c.logger.Info("navigating to search page",
		zap.String("query_id", q.ID),
		zap.String("url", searchURL))

	if err := sess.Navigate(ctx, searchURL); err != nil {
		return nil, err
	}

	page := &mapsPage{sess: sess}
	links, err := c.collectLinks(ctx, page)
	if err != nil {
		return nil, err
	}

	c.metrics.LinksDiscovered.Add(float64(len(links)))
	c.logger.Info("search results collected",
		zap.String("query_id", q.ID),
		zap.Int("links", len(links)))
	return links, nil
}

// collectLinks runs the scroll-until-stable loop. Termination is the count
// failing to grow across stableChecks consecutive measurements, not a fixed
// iteration budget.
func (c *Crawler) collectLinks(ctx context.Context, page resultsPage) ([]string, error) {
	found, err := page.WaitForResults(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	prev, err := page.Count(ctx)
	if err != nil {
		return nil, err
	}

	stable := 0
	for {
		if err := c.pause(ctx); err != nil {
			break
		}
		cur, err := page.Count(ctx)
		if err != nil {
			return nil, err
		}
		if cur <= prev {
			stable++
			if stable >= c.stableChecks {
				break
			}
			continue
		}
		stable = 0
		prev = cur
		if err := page.Scroll(ctx); err != nil {
			return nil, err
		}
	}

	raw, err := page.Links(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeLinks(raw), nil
}

func (c *Crawler) pause(ctx context.Context) error {
	if c.scrollDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.scrollDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BuildSearchURL templates the map-search URL from industry, coordinates and
// zoom.
func BuildSearchURL(q domain.Query) string {
	return fmt.Sprintf("%s%s/@%v,%v,%dz?hl=en",
		searchBaseURL, url.QueryEscape(q.Industry), q.Latitude, q.Longitude, q.ZoomLevel)
}

// normalizeLinks keeps detail-page links only, resolves relative paths
// against the site root and deduplicates by exact URL, preserving discovery
// order.
func normalizeLinks(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var links []string
	for _, link := range raw {
		if !strings.Contains(link, "/maps/place/") {
			continue
		}
		if strings.HasPrefix(link, "/") {
			link = "https://www.google.com" + link
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// mapsPage adapts a browser session to the resultsPage operations.
type mapsPage struct {
	sess *browser.Session
}

func (p *mapsPage) WaitForResults(ctx context.Context) (bool, error) {
	if err := p.sess.WaitVisible(ctx, resultMarker); err != nil {
		// No marker inside the wait budget: legitimately empty area or a
		// render failure, both yield an empty successful result.
		return false, nil
	}
	return true, nil
}

func (p *mapsPage) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.sess.Evaluate(ctx, countScript, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *mapsPage) Scroll(ctx context.Context) error {
	return p.sess.Evaluate(ctx, scrollScript, nil)
}

func (p *mapsPage) Links(ctx context.Context) ([]string, error) {
	var links []string
	if err := p.sess.Evaluate(ctx, linksScript, &links); err != nil {
		return nil, err
	}
	return links, nil
}
