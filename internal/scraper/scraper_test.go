package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citechat/internal/citations"
)

const samplePage = `<html>
<head><title>Sample</title><style>body { color: red }</style></head>
<body>
<header>Site header</header>
<nav>Home | About</nav>
<script>console.log("tracking")</script>
<p>Go is a compiled language.</p>
<p>It has goroutines.</p>
<footer>Copyright</footer>
</body>
</html>`

// fakeRenderer substitutes for headless Chrome in tests.
type fakeRenderer struct {
	html string
	err  error
	hits int
}

func (f *fakeRenderer) Render(_ context.Context, _ string) (string, error) {
	f.hits++
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

func newTestDispatcher(renderer Renderer) *Dispatcher {
	return NewDispatcher(Config{}, NewMarkerClassifier(), renderer, zap.NewNop())
}

func TestMarkerClassifier(t *testing.T) {
	c := NewMarkerClassifier()
	assert.True(t, c.NeedsRendering("https://example.com/dashboard/metrics"))
	assert.True(t, c.NeedsRendering("https://myapp.io/page"))
	assert.True(t, c.NeedsRendering("https://example.com/spa"))
	assert.False(t, c.NeedsRendering("https://example.com/article"))

	custom := NewMarkerClassifier("widget")
	assert.True(t, custom.NeedsRendering("https://example.com/widget/1"))
	assert.False(t, custom.NeedsRendering("https://example.com/dashboard"))
}

func TestExtractTextStripsNonContent(t *testing.T) {
	text, err := ExtractText(strings.NewReader(samplePage))
	require.NoError(t, err)
	assert.Contains(t, text, "Go is a compiled language.")
	assert.Contains(t, text, "It has goroutines.")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Site header")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "Sample", "head content is outside the body")
}

func TestExtractTextReadsBodyOnly(t *testing.T) {
	page := `<html><head><title>Page Title</title><meta name="description" content="blurb"></head>` +
		`<body><p>real content</p></body></html>`
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "real content", text)
}

func TestExtractTextWithoutBodyElementStillWorks(t *testing.T) {
	// html.Parse synthesizes a body for fragments; the fallback to the
	// document root covers parsers that do not.
	text, err := ExtractText(strings.NewReader("<p>bare fragment</p>"))
	require.NoError(t, err)
	assert.Equal(t, "bare fragment", text)
}

func TestScrapeStaticPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	d := newTestDispatcher(nil)
	res, err := d.Scrape(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Go is a compiled language.")
	assert.NotContains(t, res.Content, "tracking")

	wantKey, err := citations.KeyFor(srv.URL + "/article")
	require.NoError(t, err)
	assert.Equal(t, wantKey, res.CitationKey)
}

func TestScrapeErrorStatusIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newTestDispatcher(nil)
	_, err := d.Scrape(context.Background(), srv.URL+"/article")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestScrapeUnreachableHostIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	d := newTestDispatcher(nil)
	_, err := d.Scrape(context.Background(), srv.URL+"/article")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestScrapeInvalidURL(t *testing.T) {
	d := newTestDispatcher(nil)
	_, err := d.Scrape(context.Background(), "not a url")
	assert.ErrorIs(t, err, citations.ErrInvalidURL)
}

func TestScrapeRoutesMarkedURLsToRenderer(t *testing.T) {
	renderer := &fakeRenderer{html: samplePage}
	d := newTestDispatcher(renderer)

	res, err := d.Scrape(context.Background(), "https://example.com/dashboard/metrics")
	require.NoError(t, err)
	assert.Equal(t, 1, renderer.hits)
	assert.Contains(t, res.Content, "Go is a compiled language.")
	assert.Equal(t, "example.com/dashboard/metrics", res.CitationKey)
}

func TestScrapeErrorSentinelFollowsMode(t *testing.T) {
	cause := errors.New("bad markup")
	assert.ErrorIs(t, scrapeError("static", "https://a.org/x", cause), ErrFetch)
	assert.ErrorIs(t, scrapeError("rendered", "https://a.org/dashboard", cause), ErrRender)
	assert.NotErrorIs(t, scrapeError("rendered", "https://a.org/dashboard", cause), ErrFetch)
}

func TestScrapeRenderFailure(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("navigation timeout")}
	// wrap the renderer error the way ChromeRenderer does
	d := newTestDispatcher(RendererFunc(func(ctx context.Context, url string) (string, error) {
		_, err := renderer.Render(ctx, url)
		return "", errors.Join(ErrRender, err)
	}))

	_, err := d.Scrape(context.Background(), "https://example.com/dashboard")
	assert.ErrorIs(t, err, ErrRender)
}
