// Package llm wraps the language-model backend behind a single synchronous
// Generate call. The core only depends on receiving the complete text
// reply; no streaming contract.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"citechat/internal/metrics"
)

// ErrUpstream indicates the model call failed after retries. Callers
// surface a generic error to users; the wrapped detail stays in logs.
var ErrUpstream = errors.New("model request failed")

// GenerationConfig carries the per-request sampling knobs.
type GenerationConfig struct {
	Temperature     float64
	MaxOutputTokens int
}

// Client is the language-model collaborator.
type Client interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// GeminiClient talks to the Gemini generateContent REST endpoint.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	maxRetries int
	logger     *zap.Logger
}

type Config struct {
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func NewGeminiClient(cfg Config, logger *zap.Logger) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig sampling  `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type sampling struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the first candidate's text.
// Transient failures are retried with exponential backoff.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: sampling{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrUpstream, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	start := time.Now()
	text, err := c.doWithRetry(ctx, url, body)
	metrics.LLMRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.LLMRequests.WithLabelValues("ok").Inc()
	return text, nil
}

func (c *GeminiClient) doWithRetry(ctx context.Context, url string, body []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			}
			c.logger.Debug("retrying model request", zap.Int("attempt", attempt))
		}

		text, err := c.doOnce(ctx, url, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *GeminiClient) doOnce(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidate list", ErrUpstream)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
