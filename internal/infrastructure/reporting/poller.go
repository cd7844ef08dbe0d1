package reporting

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Refresher re-fetches the current view state. Implemented by the
// application layer's view service.
type Refresher interface {
	Refresh(ctx context.Context, silent bool) error
}

// PollerConfig holds background polling settings
type PollerConfig struct {
	// Enabled indicates whether background polling runs at all
	Enabled bool
	// Interval is the fixed poll period
	Interval time.Duration
}

// DefaultPollerConfig returns the default 30-second poll period
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Enabled:  true,
		Interval: 30 * time.Second,
	}
}

// Poller drives periodic silent refreshes on a fixed-period ticker. Ticks
// never stack: a tick is skipped while the previous silent fetch is still in
// flight, and the sequence guard in the view service resolves any remaining
// races with user-triggered fetches.
type Poller struct {
	config    PollerConfig
	refresher Refresher
	logger    *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	inFlight  atomic.Bool
}

// NewPoller creates a new Poller
func NewPoller(config PollerConfig, refresher Refresher, logger *zap.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		config:    config,
		refresher: refresher,
		logger:    logger,
	}
}

// Start begins the poll loop. A disabled poller starts as a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning || !p.config.Enabled {
		return
	}
	p.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.loop(ctx)

	p.logger.Info("revenue poller started", zap.Duration("interval", p.config.Interval))
}

// Stop cancels the poll loop and waits for it to drain
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("revenue poller stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("revenue poller stop timed out")
		return ctx.Err()
	}
}

// Running reports whether the poll loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isRunning
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("skipping poll tick, previous silent fetch still in flight")
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)
		// Failures are already tracked by the view's silent-failure streak
		_ = p.refresher.Refresh(ctx, true)
	}()
}
