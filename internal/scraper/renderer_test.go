package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkIdleWaiterBlocksWhileRequestsInFlight(t *testing.T) {
	w := newNetworkIdleWaiter(50 * time.Millisecond)
	w.requestStarted("req-1")

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	err := w.wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded,
		"an unfinished request must pin the waiter until the deadline")
}

func TestNetworkIdleWaiterReleasesAfterDrainAndGrace(t *testing.T) {
	w := newNetworkIdleWaiter(50 * time.Millisecond)
	w.requestStarted("req-1")
	w.requestStarted("req-2")
	w.requestFinished("req-1")
	w.requestFinished("req-2")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, w.wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"quiescence requires the grace period after the last activity")
}

func TestNetworkIdleWaiterReleasesWhenNeverActive(t *testing.T) {
	w := newNetworkIdleWaiter(25 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, w.wait(ctx), "a page with no follow-up requests settles after the grace period")
}

func TestNetworkIdleWaiterLateFinishStillReleases(t *testing.T) {
	w := newNetworkIdleWaiter(25 * time.Millisecond)
	w.requestStarted("slow")

	go func() {
		time.Sleep(100 * time.Millisecond)
		w.requestFinished("slow")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, w.wait(ctx))
}
