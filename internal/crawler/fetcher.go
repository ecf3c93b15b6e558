package crawler

import (
	"context"
	"sync"
	"time"

	"mapscraper/internal/browser"
	"mapscraper/internal/domain"
	"mapscraper/internal/extract"
	"mapscraper/internal/monitoring"
	"mapscraper/internal/storage"

	"go.uber.org/zap"
)

// Fetcher visits discovered detail links with a bounded fan-out, extracts a
// record per page and enriches it with the secondary email-resolution step.
// A single page's failure is logged and skipped; it never aborts sibling
// fetches or the parent query.
type Fetcher struct {
	extractor   *extract.Extractor
	emails      *extract.EmailResolver
	linkCache   *storage.RedisStore
	concurrency int
	dedupTTL    time.Duration
	metrics     *monitoring.Metrics
	logger      *zap.Logger
}

func NewFetcher(ex *extract.Extractor, er *extract.EmailResolver, cache *storage.RedisStore, concurrency int, dedupTTL time.Duration, m *monitoring.Metrics, l *zap.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Fetcher{
		extractor:   ex,
		emails:      er,
		linkCache:   cache,
		concurrency: concurrency,
		dedupTTL:    dedupTTL,
		metrics:     m,
		logger:      l,
	}
}

// FetchAll produces a BusinessRecord per link, unordered. Tabs are opened
// within the query's shared session; each page lives exactly one fetch.
func (f *Fetcher) FetchAll(ctx context.Context, sess *browser.Session, q domain.Query, links []string) []domain.BusinessRecord {
	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var records []domain.BusinessRecord

	for _, link := range links {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return records
		}

		wg.Add(1)
		go func(link string) {
			defer wg.Done()
			defer func() { <-sem }()

			if f.recentlyScraped(ctx, link) {
				f.logger.Debug("skipping recently scraped link", zap.String("url", link))
				return
			}

			rec := f.fetchOne(ctx, sess, q, link)
			if rec == nil {
				return
			}

			mu.Lock()
			records = append(records, *rec)
			mu.Unlock()

			f.metrics.RecordsScraped.Inc()
			f.markScraped(ctx, link)
		}(link)
	}

	wg.Wait()
	return records
}

func (f *Fetcher) fetchOne(ctx context.Context, sess *browser.Session, q domain.Query, link string) *domain.BusinessRecord {
	tab := sess.NewTab()
	defer tab.Close()

	if err := tab.Navigate(ctx, link); err != nil {
		f.logger.Warn("detail page navigation failed", zap.String("url", link), zap.Error(err))
		f.metrics.IncErrorsTotal("detail_nav_failed")
		return nil
	}

	html, err := tab.HTML(ctx)
	if err != nil {
		f.logger.Warn("detail page capture failed", zap.String("url", link), zap.Error(err))
		f.metrics.IncErrorsTotal("detail_capture_failed")
		return nil
	}

	rec, err := f.extractor.Extract(html)
	if err != nil {
		f.logger.Warn("detail page extraction failed", zap.String("url", link), zap.Error(err))
		f.metrics.IncErrorsTotal("extract_failed")
		return nil
	}
	if !rec.Viable() {
		f.logger.Debug("discarding nameless record", zap.String("url", link))
		return nil
	}

	rec.QueryID = q.ID
	rec.Industry = q.Industry
	rec.SourceURL = link
	rec.ScrapedAt = time.Now().UTC()

	if rec.Email == "" && rec.Website != "" {
		if email := f.emails.Resolve(ctx, rec.Website); email != "" {
			rec.Email = email
			f.metrics.EmailsResolved.Inc()
		}
	}
	return rec
}

func (f *Fetcher) recentlyScraped(ctx context.Context, link string) bool {
	if f.linkCache == nil {
		return false
	}
	hit, err := f.linkCache.IsRecentlyScraped(ctx, link)
	if err != nil {
		f.logger.Warn("link cache lookup failed", zap.Error(err))
		return false
	}
	return hit
}

func (f *Fetcher) markScraped(ctx context.Context, link string) {
	if f.linkCache == nil {
		return
	}
	if err := f.linkCache.MarkScraped(ctx, link, f.dedupTTL); err != nil {
		f.logger.Warn("link cache write failed", zap.Error(err))
	}
}
