package revenue

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func points(revenues ...string) []revenue.DailyPoint {
	out := make([]revenue.DailyPoint, len(revenues))
	base := day("2025-01-01")
	for i, r := range revenues {
		out[i] = revenue.DailyPoint{
			Date:    base.AddDate(0, 0, i),
			Revenue: decimal.RequireFromString(r),
		}
	}
	return out
}

func TestNormalize(t *testing.T) {
	t.Run("Three-point series from the reporting contract", func(t *testing.T) {
		// dailyRevenue = [100, 0, 50]; max = 100
		got := Normalize(points("100", "0", "50"))

		require.Len(t, got, 3)

		// Point 1 is the series maximum: top of the chart
		assert.InDelta(t, 0.0, got[0].Y, 1e-9)
		assert.InDelta(t, 0.0, got[0].X, 1e-9)

		// Point 2 has zero revenue: bottom of the chart
		assert.InDelta(t, 1.0, got[1].Y, 1e-9)
		assert.InDelta(t, 0.5, got[1].X, 1e-9)

		// Point 3 sits halfway
		assert.InDelta(t, 0.5, got[2].Y, 1e-9)
		assert.InDelta(t, 1.0, got[2].X, 1e-9)

		// n = 3 <= 5: every label stays visible
		for i, p := range got {
			assert.True(t, p.LabelVisible, "label %d", i)
		}
	})

	t.Run("Single point divides cleanly", func(t *testing.T) {
		got := Normalize(points("0"))

		require.Len(t, got, 1)
		assert.InDelta(t, 0.0, got[0].X, 1e-9)
		assert.InDelta(t, 1.0, got[0].Y, 1e-9)
		assert.True(t, got[0].LabelVisible)
	})

	t.Run("All-zero series pins every point to the bottom", func(t *testing.T) {
		got := Normalize(points("0", "0", "0", "0"))

		for _, p := range got {
			assert.InDelta(t, 1.0, p.Y, 1e-9)
		}
	})

	t.Run("Label thinning shows exactly the five anchor indices", func(t *testing.T) {
		got := Normalize(points(
			"1", "2", "3", "4", "5", "6", "7", "8", "9", "10",
			"11", "12", "13", "14", "15", "16", "17", "18", "19", "20",
		))

		var visible []int
		for _, p := range got {
			if p.LabelVisible {
				visible = append(visible, p.Index)
			}
		}
		// n=20: {0, 5, 10, 15, 19}
		assert.Equal(t, []int{0, 5, 10, 15, 19}, visible)
	})

	t.Run("Empty series yields nil", func(t *testing.T) {
		assert.Nil(t, Normalize(nil))
	})
}

func TestHover(t *testing.T) {
	svc := NewChartService()
	series := points("100", "0", "50")

	t.Run("Anchor is expressed in percent", func(t *testing.T) {
		anchor, ok := svc.Hover(series, 1)

		require.True(t, ok)
		assert.InDelta(t, 50.0, anchor.XPct, 1e-9)
		assert.InDelta(t, 100.0, anchor.YPct, 1e-9)
		assert.True(t, anchor.Point.Date.Equal(day("2025-01-02")))
	})

	t.Run("Out-of-range index reports not ok", func(t *testing.T) {
		_, ok := svc.Hover(series, 3)
		assert.False(t, ok)

		_, ok = svc.Hover(series, -1)
		assert.False(t, ok)
	})
}

func TestTogglePin(t *testing.T) {
	t.Run("Clicking the same date again clears the pin", func(t *testing.T) {
		svc := NewChartService()

		pinned := svc.TogglePin(day("2025-01-02"))
		require.NotNil(t, pinned)
		assert.True(t, pinned.Equal(day("2025-01-02")))

		pinned = svc.TogglePin(day("2025-01-02"))
		assert.Nil(t, pinned)
		assert.Nil(t, svc.Pinned())
	})

	t.Run("Pin is keyed by date equality, not instant identity", func(t *testing.T) {
		svc := NewChartService()

		svc.TogglePin(day("2025-01-02"))
		// Same calendar day, different clock time
		pinned := svc.TogglePin(day("2025-01-02").Add(13 * time.Hour))

		assert.Nil(t, pinned)
	})

	t.Run("Clicking a different date moves the pin", func(t *testing.T) {
		svc := NewChartService()

		svc.TogglePin(day("2025-01-02"))
		pinned := svc.TogglePin(day("2025-01-03"))

		require.NotNil(t, pinned)
		assert.True(t, pinned.Equal(day("2025-01-03")))
	})

	t.Run("PinnedPoint resolves against the current series", func(t *testing.T) {
		svc := NewChartService()
		series := points("100", "0", "50")

		svc.TogglePin(day("2025-01-03"))
		point, ok := svc.PinnedPoint(series)

		require.True(t, ok)
		assert.True(t, point.Revenue.Equal(decimal.RequireFromString("50")))

		svc.ClearPin()
		_, ok = svc.PinnedPoint(series)
		assert.False(t, ok)
	})
}
