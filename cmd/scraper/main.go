package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mapscraper/internal/api"
	"mapscraper/internal/browser"
	"mapscraper/internal/config"
	"mapscraper/internal/crawler"
	"mapscraper/internal/extract"
	"mapscraper/internal/jobs"
	"mapscraper/internal/monitoring"
	"mapscraper/internal/pipeline"
	"mapscraper/internal/proxy"
	"mapscraper/internal/storage"
	"mapscraper/internal/submit"

	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// Optional storage layer: both stores are skipped when unconfigured.
	var pgStore *storage.PostgresStore
	if cfg.PostgresURL != "" {
		pgStore, err = storage.NewPostgresStore(cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
	}
	var redisStore *storage.RedisStore
	if cfg.RedisAddr != "" {
		redisStore = storage.NewRedisStore(cfg.RedisAddr)
	}

	metrics := monitoring.NewMetrics()
	proxyManager := proxy.NewManager(nil)

	engine := browser.NewEngine(
		cfg.Headless,
		time.Duration(cfg.NavTimeoutSeconds)*time.Second,
		time.Duration(cfg.WaitTimeoutSeconds)*time.Second,
		proxyManager,
	)
	defer engine.Close()

	rules := extract.DefaultRules()
	extractor := extract.NewExtractor(rules)
	emailResolver := extract.NewEmailResolver(
		rules,
		engine,
		cfg.EmailConcurrency,
		time.Duration(cfg.EmailTimeoutSecs)*time.Second,
		logger,
	)

	searchCrawler := crawler.NewCrawler(
		time.Duration(cfg.ScrollDelayMs)*time.Millisecond,
		cfg.StableChecks,
		metrics,
		logger,
	)
	fetcher := crawler.NewFetcher(
		extractor,
		emailResolver,
		redisStore,
		cfg.DetailConcurrency,
		time.Duration(cfg.DedupTTLDays)*24*time.Hour,
		metrics,
		logger,
	)

	jobClient := jobs.NewClient(cfg.APIBaseURL, cfg.Country, cfg.MachineID, logger)

	var deadLetters submit.DeadLetterStore
	if pgStore != nil {
		deadLetters = pgStore
	}
	submitter := submit.NewSubmitter(
		jobClient,
		deadLetters,
		cfg.ChunkSize,
		cfg.SubmitMaxAttempts,
		time.Duration(cfg.SubmitBackoffSeconds)*time.Second,
		metrics,
		logger,
	)

	pipe := pipeline.New(cfg, engine, searchCrawler, fetcher, jobClient, submitter, pgStore, metrics, logger)

	runCtx, stopRuns := context.WithCancel(context.Background())
	go pipe.RunLoop(runCtx)

	server := api.NewServer(cfg, pipe, pgStore, redisStore, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("scraper started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	stopRuns()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("scraper exiting")
}
