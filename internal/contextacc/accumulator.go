// Package contextacc folds citation-tagged context across a conversation:
// bundles carried by prior turns plus freshly scraped URLs from the
// current message.
package contextacc

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"citechat/internal/citations"
	"citechat/internal/models"
	"citechat/internal/scraper"
)

// Scraper is the slice of the dispatcher the accumulator needs.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.Result, error)
}

// Result separates context carried over from history from context produced
// this turn, so the caller can persist only the new bundle while prompting
// with both.
type Result struct {
	PriorContext   string
	PriorCitations map[string]string
	NewContext     string
	NewCitations   map[string]string
}

// FullContext is the prompt-ready concatenation, prior context first.
func (r *Result) FullContext() string {
	return r.PriorContext + r.NewContext
}

// MergedCitations is the union of prior and new citation maps. New entries
// overwrite prior ones on key collision, consistent with the fold.
func (r *Result) MergedCitations() map[string]string {
	merged := make(map[string]string, len(r.PriorCitations)+len(r.NewCitations))
	for k, v := range r.PriorCitations {
		merged[k] = v
	}
	for k, v := range r.NewCitations {
		merged[k] = v
	}
	return merged
}

type Accumulator struct {
	scraper Scraper
	logger  *zap.Logger
}

func New(s Scraper, logger *zap.Logger) *Accumulator {
	return &Accumulator{scraper: s, logger: logger}
}

// Accumulate scans history in chronological order, folding every context
// bundle it carries (text appended, citation maps merged last-write-wins),
// then scrapes any URL tokens found in the current message. URLs are
// processed sequentially in token order; a URL that fails to scrape is
// logged and skipped, never failing the turn. A URL appearing twice in one
// message resolves to the key assigned at its first occurrence and is
// scraped once.
func (a *Accumulator) Accumulate(ctx context.Context, history []models.Message, messageText string) *Result {
	res := &Result{
		PriorCitations: make(map[string]string),
		NewCitations:   make(map[string]string),
	}

	var prior strings.Builder
	for _, msg := range history {
		bundle := msg.ContextFromURLs
		if bundle == nil {
			continue
		}
		prior.WriteString(bundle.Content)
		prior.WriteString("\n")
		for key, src := range bundle.Citations {
			res.PriorCitations[key] = src
		}
	}
	res.PriorContext = prior.String()

	var fresh strings.Builder
	for _, token := range strings.Fields(messageText) {
		if !citations.IsScrapable(token) {
			continue
		}
		key, err := citations.KeyFor(token)
		if err != nil {
			continue
		}
		if _, done := res.NewCitations[key]; done {
			continue
		}
		sr, err := a.scraper.Scrape(ctx, token)
		if err != nil {
			a.logger.Warn("failed to scrape url, skipping",
				zap.String("url", token),
				zap.Error(err),
			)
			continue
		}
		fmt.Fprintf(&fresh, "\nContent from [%s]:\n%s\n", sr.CitationKey, sr.Content)
		res.NewCitations[sr.CitationKey] = token
	}
	res.NewContext = fresh.String()

	return res
}
