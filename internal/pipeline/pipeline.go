package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"mapscraper/internal/browser"
	"mapscraper/internal/config"
	"mapscraper/internal/crawler"
	"mapscraper/internal/domain"
	"mapscraper/internal/jobs"
	"mapscraper/internal/monitoring"
	"mapscraper/internal/storage"
	"mapscraper/internal/submit"

	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is triggered while one is active.
var ErrRunInProgress = errors.New("a scrape run is already in progress")

// Pipeline composes the per-query flow: crawl the search page, fan out over
// detail links, extract and enrich records, feed the submitter. Failures are
// contained at the narrowest scope; one query can never terminate the run.
type Pipeline struct {
	cfg       *config.Config
	engine    *browser.Engine
	crawler   *crawler.Crawler
	fetcher   *crawler.Fetcher
	jobs      *jobs.Client
	submitter *submit.Submitter
	archive   *storage.PostgresStore
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	running   atomic.Bool
}

func New(cfg *config.Config, engine *browser.Engine, cr *crawler.Crawler, f *crawler.Fetcher, jc *jobs.Client, sub *submit.Submitter, archive *storage.PostgresStore, m *monitoring.Metrics, l *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		engine:    engine,
		crawler:   cr,
		fetcher:   f,
		jobs:      jc,
		submitter: sub,
		archive:   archive,
		metrics:   m,
		logger:    l,
	}
}

// RunOnce pulls the pending queries and processes them with bounded
// concurrency, then drains the submitter. Returns the number of queries
// processed.
func (p *Pipeline) RunOnce(ctx context.Context) (int, error) {
	if !p.running.CompareAndSwap(false, true) {
		return 0, ErrRunInProgress
	}
	defer p.running.Store(false)

	queries, err := p.jobs.FetchQueries(ctx)
	if err != nil {
		return 0, err
	}
	if len(queries) == 0 {
		p.logger.Info("no queries returned from job source")
		return 0, nil
	}

	concurrency := p.cfg.QueryConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, q := range queries {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			p.submitter.Drain(ctx)
			return 0, ctx.Err()
		}

		wg.Add(1)
		go func(q domain.Query) {
			defer wg.Done()
			defer func() { <-sem }()
			p.processQuery(ctx, q)
		}(q)
	}
	wg.Wait()

	p.submitter.Drain(ctx)
	return len(queries), nil
}

// processQuery runs one query end to end. A browser/session crash aborts
// only this query; its partial results are whatever was assembled before the
// failure.
func (p *Pipeline) processQuery(ctx context.Context, q domain.Query) {
	p.metrics.QueriesTotal.Inc()
	log := p.logger.With(zap.String("query_id", q.ID), zap.String("industry", q.Industry))

	sess := p.engine.NewSession()
	defer sess.Close()

	links, err := p.crawler.Crawl(ctx, sess, q)
	if err != nil {
		log.Error("query aborted during crawl", zap.Error(err))
		p.metrics.IncErrorsTotal("crawl_failed")
		return
	}
	if len(links) == 0 {
		log.Info("no businesses found for query")
		return
	}

	records := p.fetcher.FetchAll(ctx, sess, q, links)
	log.Info("query scraped",
		zap.Int("links", len(links)),
		zap.Int("records", len(records)))

	if len(records) == 0 {
		return
	}

	if p.archive != nil {
		if err := p.archive.SaveRecords(ctx, records); err != nil {
			log.Warn("record archive write failed", zap.Error(err))
			p.metrics.IncErrorsTotal("archive_failed")
		}
	}

	p.submitter.Add(ctx, records...)
}

// RunLoop polls the job source until ctx is cancelled. An empty or
// unreachable job source is never fatal here; the loop backs off and asks
// again.
func (p *Pipeline) RunLoop(ctx context.Context) {
	interval := time.Duration(p.cfg.PollIntervalSeconds) * time.Second
	for {
		processed, err := p.RunOnce(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			p.logger.Error("scrape run failed", zap.Error(err))
			p.metrics.IncErrorsTotal("run_failed")
		case processed > 0:
			p.logger.Info("scrape run finished", zap.Int("queries", processed))
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return
		}
	}
}
