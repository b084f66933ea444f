package scraper

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose text never belongs in scraped context.
var skipTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
}

// ExtractText parses HTML and returns the whitespace-normalized text of the
// document body with script, style, nav, header, and footer subtrees
// removed. Head content (title, meta) is not part of the body and is
// excluded. No length cap is applied here; truncation is the caller's
// policy.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	var b strings.Builder
	collectText(root, &b)
	return strings.Join(strings.Fields(b.String()), " "), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
