package revenue

import (
	"sync"
	"time"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

// ChartMode selects the time-series rendering style
type ChartMode string

const (
	ChartModeBar  ChartMode = "bar"
	ChartModeLine ChartMode = "line"
)

// ChartPoint is one daily point mapped into normalized chart coordinates.
// X runs 0..1 left to right; Y runs 0 (top, series maximum) to 1 (bottom).
type ChartPoint struct {
	Index        int                `json:"index"`
	X            float64            `json:"x"`
	Y            float64            `json:"y"`
	LabelVisible bool               `json:"label_visible"`
	Point        revenue.DailyPoint `json:"point"`
}

// TooltipAnchor positions the hover tooltip over one point. It is transient;
// nothing beyond the current pointer position is retained.
type TooltipAnchor struct {
	XPct  float64            `json:"x_pct"`
	YPct  float64            `json:"y_pct"`
	Point revenue.DailyPoint `json:"point"`
}

// Normalize converts a daily series into normalized chart coordinates.
// The geometry is identical for bar and line modes. Both denominators are
// floored at 1 so single-point and all-zero series divide cleanly.
func Normalize(points []revenue.DailyPoint) []ChartPoint {
	n := len(points)
	if n == 0 {
		return nil
	}

	maxRevenue := 1.0
	for _, p := range points {
		if r := p.Revenue.InexactFloat64(); r > maxRevenue {
			maxRevenue = r
		}
	}

	xDenom := float64(n - 1)
	if xDenom < 1 {
		xDenom = 1
	}

	visible := labelIndices(n)
	out := make([]ChartPoint, n)
	for i, p := range points {
		out[i] = ChartPoint{
			Index:        i,
			X:            float64(i) / xDenom,
			Y:            1 - p.Revenue.InexactFloat64()/maxRevenue,
			LabelVisible: visible[i],
			Point:        p,
		}
	}
	return out
}

// labelIndices returns the set of indices whose labels stay visible:
// {0, n/4, n/2, 3n/4, n-1}. For n <= 5 this collapses to "show all".
func labelIndices(n int) map[int]bool {
	return map[int]bool{
		0:         true,
		n / 4:     true,
		n / 2:     true,
		3 * n / 4: true,
		n - 1:     true,
	}
}

// ChartService renders the daily time series and tracks the drilldown pin.
// The pin is keyed by date equality, not point identity.
type ChartService struct {
	mu     sync.Mutex
	pinned *time.Time
}

// NewChartService creates a new ChartService
func NewChartService() *ChartService {
	return &ChartService{}
}

// Hover returns a tooltip anchor for the point at index, expressed in
// percentages for overlay positioning. ok is false for an out-of-range index.
func (s *ChartService) Hover(points []revenue.DailyPoint, index int) (TooltipAnchor, bool) {
	if index < 0 || index >= len(points) {
		return TooltipAnchor{}, false
	}
	normalized := Normalize(points)
	cp := normalized[index]
	return TooltipAnchor{
		XPct:  cp.X * 100,
		YPct:  cp.Y * 100,
		Point: cp.Point,
	}, true
}

// TogglePin pins the point for the given date, or clears the pin when the
// same date is clicked again. Returns the date now pinned, nil when cleared.
func (s *ChartService) TogglePin(date time.Time) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pinned != nil && sameDay(*s.pinned, date) {
		s.pinned = nil
		return nil
	}
	d := date
	s.pinned = &d
	return s.pinned
}

// Pinned returns the currently pinned date, nil when nothing is pinned
func (s *ChartService) Pinned() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned == nil {
		return nil
	}
	d := *s.pinned
	return &d
}

// ClearPin drops any active pin, e.g. on filter change
func (s *ChartService) ClearPin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = nil
}

// PinnedPoint resolves the pinned date against the current series
func (s *ChartService) PinnedPoint(points []revenue.DailyPoint) (revenue.DailyPoint, bool) {
	pinned := s.Pinned()
	if pinned == nil {
		return revenue.DailyPoint{}, false
	}
	for _, p := range points {
		if sameDay(p.Date, *pinned) {
			return p, true
		}
	}
	return revenue.DailyPoint{}, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
