package extract

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	emailMaxResponseBytes = 5 * 1024 * 1024
	emailUserAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// PageRenderer produces browser-rendered HTML for pages whose contact details
// only exist after JavaScript runs. A nil renderer disables the fallback tier.
type PageRenderer interface {
	RenderHTML(ctx context.Context, url string) (string, error)
}

// EmailResolver hunts for an email address on a business's own website when
// the detail page exposed none. Tier one is a plain HTTP GET; on any failure
// there, tier two renders the page in the headless browser. Resolution
// carries its own, smaller concurrency bound because it adds a second
// external hop per record.
type EmailResolver struct {
	client   *http.Client
	renderer PageRenderer
	rules    *RuleSet
	sem      chan struct{}
	timeout  time.Duration
	logger   *zap.Logger
}

func NewEmailResolver(rules *RuleSet, renderer PageRenderer, concurrency int, timeout time.Duration, logger *zap.Logger) *EmailResolver {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &EmailResolver{
		client:   &http.Client{Timeout: timeout},
		renderer: renderer,
		rules:    rules,
		sem:      make(chan struct{}, concurrency),
		timeout:  timeout,
		logger:   logger,
	}
}

// Resolve returns the first email found on the website, or "" when none is
// found or any fetch tier fails. A missing email never aborts the record.
func (r *EmailResolver) Resolve(ctx context.Context, websiteURL string) string {
	if websiteURL == "" {
		return ""
	}

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return ""
	}
	defer func() { <-r.sem }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if email := r.fetchDirect(ctx, websiteURL); email != "" {
		return email
	}
	return r.fetchRendered(ctx, websiteURL)
}

func (r *EmailResolver) fetchDirect(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", emailUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("direct website fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, emailMaxResponseBytes))
	if err != nil {
		return ""
	}
	return r.rules.Email.FindString(string(body))
}

func (r *EmailResolver) fetchRendered(ctx context.Context, url string) string {
	if r.renderer == nil {
		return ""
	}
	html, err := r.renderer.RenderHTML(ctx, url)
	if err != nil {
		r.logger.Debug("rendered website fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return r.rules.Email.FindString(html)
}
