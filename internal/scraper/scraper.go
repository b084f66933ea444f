// Package scraper fetches web pages (statically or through a headless
// browser) and reduces them to citation-tagged text.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"citechat/internal/citations"
	"citechat/internal/metrics"
)

var (
	// ErrFetch indicates the plain HTTP fetch failed: network error,
	// timeout, or a non-success status.
	ErrFetch = errors.New("fetch failed")
	// ErrRender indicates headless rendering failed to complete navigation.
	ErrRender = errors.New("render failed")
)

// Result is the ephemeral product of one scrape: the extracted page text
// and the citation key derived from the URL. It is folded into a context
// bundle and discarded.
type Result struct {
	Content     string
	CitationKey string
}

// Config holds the dispatcher knobs.
type Config struct {
	Timeout      time.Duration // per-scrape deadline, fetch and render alike
	UserAgent    string
	MaxBodyBytes int64 // static fetch read cap
}

// Dispatcher routes a URL to a static fetch or a headless render based on
// the classifier verdict, then extracts the usable text.
type Dispatcher struct {
	cfg        Config
	client     *http.Client
	classifier Classifier
	renderer   Renderer
	logger     *zap.Logger
}

func NewDispatcher(cfg Config, classifier Classifier, renderer Renderer, logger *zap.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	return &Dispatcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		classifier: classifier,
		renderer:   renderer,
		logger:     logger,
	}
}

// Scrape fetches the URL and returns its extracted text plus citation key.
// One network round trip (or one full render) per call; callers invoking
// it for several URLs do so sequentially so key assignment order follows
// token order.
func (d *Dispatcher) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	key, err := citations.KeyFor(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	mode := "static"
	if d.classifier.NeedsRendering(rawURL) {
		mode = "rendered"
	}

	start := time.Now()
	var page string
	if mode == "rendered" {
		page, err = d.renderer.Render(ctx, rawURL)
	} else {
		page, err = d.fetch(ctx, rawURL)
	}
	metrics.ScrapeDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Scrapes.WithLabelValues(mode, "error").Inc()
		return nil, err
	}

	text, err := ExtractText(strings.NewReader(page))
	if err != nil {
		metrics.Scrapes.WithLabelValues(mode, "error").Inc()
		return nil, scrapeError(mode, rawURL, err)
	}

	metrics.Scrapes.WithLabelValues(mode, "ok").Inc()
	d.logger.Debug("scraped url",
		zap.String("url", rawURL),
		zap.String("mode", mode),
		zap.Int("chars", len(text)),
	)
	return &Result{Content: text, CitationKey: key}, nil
}

// scrapeError wraps a failure with the sentinel matching the scrape mode,
// keeping the error taxonomy honest: a bad page from the rendered path is
// a render failure, not a fetch failure.
func scrapeError(mode, url string, err error) error {
	sentinel := ErrFetch
	if mode == "rendered" {
		sentinel = ErrRender
	}
	return fmt.Errorf("%w: %s: %v", sentinel, url, err)
}

func (d *Dispatcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s: status %d", ErrFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	return string(body), nil
}
