package revenue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

// SnapshotFetcher issues one aggregation request against the reporting API
// for a canonical descriptor. Implementations perform no retries; retry is a
// caller-level concern.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, descriptor revenue.Descriptor) (*revenue.Snapshot, error)
}

// ViewServiceConfig holds view service settings
type ViewServiceConfig struct {
	// SilentFailureThreshold is the number of consecutive silent fetch
	// failures after which the degraded flag becomes user-visible.
	SilentFailureThreshold int
}

// DefaultViewServiceConfig returns default view service settings
func DefaultViewServiceConfig() ViewServiceConfig {
	return ViewServiceConfig{SilentFailureThreshold: 3}
}

// ViewService owns the revenue view's single snapshot slot. The swap from old
// to new snapshot is atomic and all-or-nothing; renderers only ever read the
// current snapshot reference.
type ViewService struct {
	fetcher SnapshotFetcher
	config  ViewServiceConfig
	logger  *zap.Logger

	mu             sync.Mutex
	filter         revenue.FilterState
	current        *revenue.Snapshot
	nextSeq        uint64
	lastAppliedSeq uint64
	silentFailures int
	degraded       bool
	lastFetchedAt  time.Time
}

// NewViewService creates a new ViewService with the default filter applied
func NewViewService(fetcher SnapshotFetcher, config ViewServiceConfig, logger *zap.Logger) *ViewService {
	if config.SilentFailureThreshold <= 0 {
		config.SilentFailureThreshold = DefaultViewServiceConfig().SilentFailureThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{
		fetcher: fetcher,
		config:  config,
		logger:  logger,
		filter:  revenue.DefaultFilter(),
	}
}

// Current returns the currently displayed snapshot, or nil before the first
// successful fetch. The returned value is immutable.
func (s *ViewService) Current() *revenue.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Filter returns the filter state behind the currently configured view
func (s *ViewService) Filter() revenue.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Degraded reports whether consecutive silent failures have crossed the
// configured threshold. The last-known-good snapshot is still displayed.
func (s *ViewService) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// LastFetchedAt returns when the displayed snapshot was applied
func (s *ViewService) LastFetchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFetchedAt
}

// Chips derives the active filter chips for the current filter state
func (s *ViewService) Chips() []revenue.Chip {
	return s.Filter().Chips()
}

// ApplyFilter validates the filter, stores it as the view's filter state and
// issues one non-silent fetch. Validation failures are surfaced before any
// request is dispatched.
func (s *ViewService) ApplyFilter(ctx context.Context, filter revenue.FilterState) (*revenue.Snapshot, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()

	return s.fetch(ctx, filter, false)
}

// RemoveChip resets exactly one filter dimension to its default and issues
// exactly one re-fetch.
func (s *ViewService) RemoveChip(ctx context.Context, kind revenue.ChipKind) (*revenue.Snapshot, error) {
	s.mu.Lock()
	next := s.filter.ResetDimension(kind)
	s.filter = next
	s.mu.Unlock()

	return s.fetch(ctx, next, false)
}

// Refresh re-fetches the current filter. Silent refreshes come from the
// background poller; their failures never disturb the displayed snapshot.
func (s *ViewService) Refresh(ctx context.Context, silent bool) error {
	_, err := s.fetch(ctx, s.Filter(), silent)
	return err
}

// fetch issues one aggregation request tagged with the next sequence number.
// A response is applied only if its sequence is >= the sequence of the last
// applied response; stale results for a superseded filter are discarded even
// if they arrive late.
func (s *ViewService) fetch(ctx context.Context, filter revenue.FilterState, silent bool) (*revenue.Snapshot, error) {
	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	snap, err := s.fetcher.FetchSnapshot(ctx, filter.Descriptor())
	if err != nil {
		return nil, s.recordFailure(seq, silent, err)
	}

	snap.Seq = seq
	snap.Filter = filter
	snap.FetchedAt = time.Now()
	snap.TopSpenders = revenue.RankTopSpenders(snap.TopSpenders)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.lastAppliedSeq {
		s.logger.Debug("discarding stale snapshot",
			zap.Uint64("seq", seq),
			zap.Uint64("last_applied_seq", s.lastAppliedSeq),
		)
		return s.current, nil
	}

	s.current = snap
	s.lastAppliedSeq = seq
	s.lastFetchedAt = snap.FetchedAt
	s.silentFailures = 0
	s.degraded = false

	if !snap.CheckBucketSum() {
		s.logger.Warn("category buckets do not sum to payment revenue",
			zap.Uint64("seq", seq),
			zap.String("payment_revenue", snap.Summary.PaymentRevenue.String()),
		)
	}

	return snap, nil
}

// recordFailure tracks the silent failure streak. Silent failures are logged
// and suppressed until the streak crosses the threshold, at which point the
// view is flagged degraded without discarding the last-known-good snapshot.
func (s *ViewService) recordFailure(seq uint64, silent bool, err error) error {
	if !silent {
		s.logger.Error("revenue fetch failed", zap.Uint64("seq", seq), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.silentFailures++
	streak := s.silentFailures
	if streak >= s.config.SilentFailureThreshold {
		s.degraded = true
	}
	degraded := s.degraded
	s.mu.Unlock()

	s.logger.Warn("silent revenue poll failed",
		zap.Uint64("seq", seq),
		zap.Int("streak", streak),
		zap.Bool("degraded", degraded),
		zap.Error(err),
	)
	return err
}
