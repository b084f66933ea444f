// Package render converts model replies (Markdown with annotated citation
// links) into sanitized HTML for display.
package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"citechat/internal/citations"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New builds a GFM renderer with hard line breaks and a UGC sanitization
// policy extended to pass citation-scheme links through, so the display
// layer can recognize them and attach source tooltips.
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowURLSchemes("http", "https", "mailto", citations.Scheme)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				ghtml.WithHardWraps(),
			),
		),
		policy: policy,
	}
}

// ToHTML renders Markdown and sanitizes the result.
func (r *Renderer) ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}
