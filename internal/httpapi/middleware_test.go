package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"citechat/internal/ratelimit"
)

// chatRequestsCount reads the chat request counter for one outcome label
// from the default registry; 0 if the series does not exist yet.
func chatRequestsCount(outcome string) float64 {
	mfs, _ := prometheus.DefaultGatherer.Gather()
	for _, mf := range mfs {
		if mf.GetName() != "citechat_chat_requests_total" {
			continue
		}
		for _, m := range mf.Metric {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestClientIDPrefersForwardedHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientID(r))
}

func TestClientIDFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.RemoteAddr = "198.51.100.7:4321"
	assert.Equal(t, "198.51.100.7", ClientID(r))
}

func TestClientIDWithoutAnyAddressBucketsAnonymous(t *testing.T) {
	// No forwarded header and no connection address: all such requests
	// share one anonymous counter instead of escaping the limiter.
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.RemoteAddr = ""
	assert.Equal(t, "anonymous", ClientID(r))
}

func TestAnonymousRequestsShareOneBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	limiter := ratelimit.New(rdb, 2, time.Minute, zap.NewNop())

	handler := RateLimit(limiter, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		r.RemoteAddr = ""
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusOK, send())

	base := chatRequestsCount("rate_limited")
	assert.Equal(t, http.StatusTooManyRequests, send(),
		"anonymous requests draw from a single shared counter")
	assert.Equal(t, base+1, chatRequestsCount("rate_limited"),
		"a rejection counts as a rate_limited chat request")
}
