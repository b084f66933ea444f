package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Renderer produces the post-JavaScript HTML of a page. Split out as an
// interface so tests (and deployments without Chrome) can substitute a
// static renderer.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(ctx context.Context, url string) (string, error)

func (f RendererFunc) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// networkIdleWaiter tracks in-flight network requests and reports
// quiescence once none remain and no activity has been seen for the grace
// period. Marker-classified pages populate the DOM from post-load fetches,
// so reading the DOM before the network settles would capture the empty
// shell a static fetch would have seen.
type networkIdleWaiter struct {
	grace    time.Duration
	mu       sync.Mutex
	inflight map[string]struct{}
	last     time.Time
}

func newNetworkIdleWaiter(grace time.Duration) *networkIdleWaiter {
	return &networkIdleWaiter{
		grace:    grace,
		inflight: make(map[string]struct{}),
		last:     time.Now(),
	}
}

func (w *networkIdleWaiter) requestStarted(id string) {
	w.mu.Lock()
	w.inflight[id] = struct{}{}
	w.last = time.Now()
	w.mu.Unlock()
}

func (w *networkIdleWaiter) requestFinished(id string) {
	w.mu.Lock()
	delete(w.inflight, id)
	w.last = time.Now()
	w.mu.Unlock()
}

// wait blocks until the network has been idle for the grace period or the
// context expires.
func (w *networkIdleWaiter) wait(ctx context.Context) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.mu.Lock()
			idle := len(w.inflight) == 0 && time.Since(w.last) >= w.grace
			w.mu.Unlock()
			if idle {
				return nil
			}
		}
	}
}

// ChromeRenderer drives a headless Chrome instance via the DevTools
// protocol. A fresh browser context is allocated per call and released on
// every exit path; render failures surface as ErrRender. The DOM is read
// only after document readiness and network quiescence, so client-rendered
// content fetched after load is included.
type ChromeRenderer struct {
	idleGrace time.Duration
}

func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{idleGrace: 500 * time.Millisecond}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	idle := newNetworkIdleWaiter(r.idleGrace)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			idle.requestStarted(string(e.RequestID))
		case *network.EventLoadingFinished:
			idle.requestFinished(string(e.RequestID))
		case *network.EventLoadingFailed:
			idle.requestFinished(string(e.RequestID))
		}
	})

	var content string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(idle.wait),
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRender, url, err)
	}
	return content, nil
}
