// Package ratelimit gates chat requests with a fixed-window counter held
// in Redis. The counter is the only state shared across server instances,
// so the increment and the window expiry are applied in a single atomic
// script: two concurrent requests must never both observe a stale
// pre-increment count.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"citechat/internal/metrics"
)

const (
	// DefaultThreshold is the number of requests admitted per client per window.
	DefaultThreshold = 10
	// DefaultWindow is the fixed counting window.
	DefaultWindow = 60 * time.Second

	keyPrefix = "rate-limit:"
)

// incrScript increments the per-client counter and starts the window on
// the first hit. Returns the post-increment count. Single EVAL, so the
// read-modify-write race of a GET/INCR pair cannot occur.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

type Limiter struct {
	rdb       redis.UniversalClient
	threshold int
	window    time.Duration
	logger    *zap.Logger
}

func New(rdb redis.UniversalClient, threshold int, window time.Duration, logger *zap.Logger) *Limiter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{rdb: rdb, threshold: threshold, window: window, logger: logger}
}

// Admit reports whether a request from clientID may proceed. On a store
// failure it fails open: the limiter logs and admits rather than blocking
// the product on quota bookkeeping.
func (l *Limiter) Admit(ctx context.Context, clientID string) bool {
	count, err := incrScript.Run(ctx, l.rdb, []string{keyPrefix + clientID}, l.window.Milliseconds()).Int64()
	if err != nil {
		metrics.RateLimitStoreErrors.Inc()
		l.logger.Warn("rate limit store unavailable, admitting request",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return true
	}
	if count > int64(l.threshold) {
		metrics.RateLimitRejections.Inc()
		l.logger.Info("rate limit exceeded",
			zap.String("client_id", clientID),
			zap.Int64("count", count),
		)
		return false
	}
	return true
}

// Remaining returns how many requests the client has left in the current
// window. Diagnostic only; Admit is the authority.
func (l *Limiter) Remaining(ctx context.Context, clientID string) (int, error) {
	count, err := l.rdb.Get(ctx, keyPrefix+clientID).Int64()
	if err == redis.Nil {
		return l.threshold, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rate counter: %w", err)
	}
	remaining := l.threshold - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
