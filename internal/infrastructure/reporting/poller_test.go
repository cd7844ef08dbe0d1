package reporting

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingRefresher records silent refreshes; an optional delay simulates a
// slow reporting API.
type countingRefresher struct {
	mu      sync.Mutex
	calls   int
	silents int
	delay   time.Duration
	inUse   atomic.Int32
	overlap atomic.Bool
}

func (r *countingRefresher) Refresh(ctx context.Context, silent bool) error {
	if r.inUse.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.inUse.Add(-1)

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if silent {
		r.silents++
	}
	return nil
}

func (r *countingRefresher) counts() (calls, silents int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.silents
}

func TestPoller(t *testing.T) {
	t.Run("Ticks drive silent refreshes", func(t *testing.T) {
		refresher := &countingRefresher{}
		poller := NewPoller(PollerConfig{Enabled: true, Interval: 10 * time.Millisecond}, refresher, zap.NewNop())

		poller.Start(context.Background())
		defer func() { _ = poller.Stop(context.Background()) }()

		require.Eventually(t, func() bool {
			calls, _ := refresher.counts()
			return calls >= 2
		}, time.Second, 5*time.Millisecond)

		calls, silents := refresher.counts()
		assert.Equal(t, calls, silents, "every poll refresh must be silent")
	})

	t.Run("Disabled poller never ticks", func(t *testing.T) {
		refresher := &countingRefresher{}
		poller := NewPoller(PollerConfig{Enabled: false, Interval: 5 * time.Millisecond}, refresher, zap.NewNop())

		poller.Start(context.Background())
		time.Sleep(30 * time.Millisecond)

		calls, _ := refresher.counts()
		assert.Equal(t, 0, calls)
		assert.False(t, poller.Running())
	})

	t.Run("Slow fetches never stack", func(t *testing.T) {
		refresher := &countingRefresher{delay: 50 * time.Millisecond}
		poller := NewPoller(PollerConfig{Enabled: true, Interval: 5 * time.Millisecond}, refresher, zap.NewNop())

		poller.Start(context.Background())
		time.Sleep(120 * time.Millisecond)
		require.NoError(t, poller.Stop(context.Background()))

		assert.False(t, refresher.overlap.Load(), "silent fetches must not overlap")
	})

	t.Run("Stop drains the loop", func(t *testing.T) {
		refresher := &countingRefresher{}
		poller := NewPoller(PollerConfig{Enabled: true, Interval: 5 * time.Millisecond}, refresher, zap.NewNop())

		poller.Start(context.Background())
		require.True(t, poller.Running())

		require.NoError(t, poller.Stop(context.Background()))
		assert.False(t, poller.Running())

		calls, _ := refresher.counts()
		time.Sleep(20 * time.Millisecond)
		after, _ := refresher.counts()
		assert.Equal(t, calls, after, "no ticks after stop")
	})

	t.Run("Starting twice is a no-op", func(t *testing.T) {
		refresher := &countingRefresher{}
		poller := NewPoller(PollerConfig{Enabled: true, Interval: time.Hour}, refresher, zap.NewNop())

		poller.Start(context.Background())
		poller.Start(context.Background())

		require.NoError(t, poller.Stop(context.Background()))
	})
}
