package browser

import (
	"context"
	"fmt"
	"time"

	"mapscraper/internal/proxy"

	"github.com/chromedp/chromedp"
)

// Engine owns the shared headless Chrome allocator for a run. Each query
// obtains its own Session (a distinct cookie/storage jar); detail-page
// fetches within a query open Tabs that intentionally share that session to
// reuse connections.
type Engine struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	navTimeout  time.Duration
	waitTimeout time.Duration
}

func NewEngine(headless bool, navTimeout, waitTimeout time.Duration, proxies *proxy.Manager) *Engine {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(proxies.GetUserAgent()),
	)
	if p := proxies.GetProxy(); p != "" {
		opts = append(opts, chromedp.ProxyServer(p))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Engine{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		navTimeout:  navTimeout,
		waitTimeout: waitTimeout,
	}
}

func (e *Engine) Close() {
	e.allocCancel()
}

// Session is one isolated browser context. The creator is responsible for
// closing it; closing tears down every tab opened from it.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	navTimeout  time.Duration
	waitTimeout time.Duration
}

func (e *Engine) NewSession() *Session {
	ctx, cancel := chromedp.NewContext(e.allocCtx)
	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		navTimeout:  e.navTimeout,
		waitTimeout: e.waitTimeout,
	}
}

func (s *Session) Close() {
	s.cancel()
}

// NewTab opens a page within the session, sharing its cookies and cache.
func (s *Session) NewTab() *Session {
	ctx, cancel := chromedp.NewContext(s.ctx)
	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		navTimeout:  s.navTimeout,
		waitTimeout: s.waitTimeout,
	}
}

// Navigate loads url, bounded by the engine's navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	tctx, cancel := s.bound(ctx, s.navTimeout)
	defer cancel()
	if err := chromedp.Run(tctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitVisible blocks until sel is visible or the wait timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, sel string) error {
	tctx, cancel := s.bound(ctx, s.waitTimeout)
	defer cancel()
	return chromedp.Run(tctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// HTML returns the rendered document markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	tctx, cancel := s.bound(ctx, s.waitTimeout)
	defer cancel()
	var html string
	if err := chromedp.Run(tctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Evaluate runs expr in the page and stores the result into res (pass nil to
// discard it).
func (s *Session) Evaluate(ctx context.Context, expr string, res any) error {
	tctx, cancel := s.bound(ctx, s.waitTimeout)
	defer cancel()
	return chromedp.Run(tctx, chromedp.Evaluate(expr, res))
}

// RenderHTML loads url in a throwaway session and returns its rendered
// markup. Satisfies the email resolver's fallback-render capability.
func (e *Engine) RenderHTML(ctx context.Context, url string) (string, error) {
	sess := e.NewSession()
	defer sess.Close()

	tctx, cancel := context.WithTimeout(sess.ctx, e.navTimeout)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tctx.Done():
		}
	}()

	var html string
	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// bound derives a chromedp-compatible context that also honors the caller's
// cancellation.
func (s *Session) bound(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(parent, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}
