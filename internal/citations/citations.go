// Package citations derives stable citation keys from source URLs and
// rewrites citation tokens in model output into annotated links.
package citations

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL indicates the input string is not an absolute URL.
var ErrInvalidURL = errors.New("invalid url")

// Scheme is the URL scheme used for annotated citation links so the
// rendering layer can tell them apart from ordinary hyperlinks.
const Scheme = "citation"

// KeyFor derives the citation key for a URL: host plus path, with scheme,
// query, and fragment stripped. Deterministic, no state. Two URLs that
// differ only in scheme, query, or fragment map to the same key.
func KeyFor(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.Host + u.Path, nil
}

// IsScrapable reports whether a message token is a URL the scraper can
// fetch. Tokens that fail to parse are ordinary words, not errors.
func IsScrapable(token string) bool {
	u, err := url.Parse(token)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Annotate replaces every literal [key] occurrence in the reply with a
// Markdown link whose target carries the source URL under the citation
// scheme, e.g. [wikipedia.org/Foo](citation:https://wikipedia.org/Foo).
// Bracketed tokens not present in the map pass through untouched; the
// model is free to hallucinate keys and the output must stay well formed.
func Annotate(reply string, citations map[string]string) string {
	for key, src := range citations {
		token := "[" + key + "]"
		if !strings.Contains(reply, token) {
			continue
		}
		reply = strings.ReplaceAll(reply, token, token+"("+Scheme+":"+src+")")
	}
	return reply
}
