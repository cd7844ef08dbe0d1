package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() FormatterConfig {
	cfg := DefaultFormatterConfig("Athlo")
	cfg.Now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}
	return cfg
}

func fullSnapshot() *revenue.Snapshot {
	return &revenue.Snapshot{
		Filter: revenue.DefaultFilter(),
		Summary: revenue.Summary{
			Commission: revenue.CommissionSummary{
				Rate:            money("0.05"),
				GrossTotal:      money("1000"),
				CommissionTotal: money("50"),
				NetTotal:        money("950"),
			},
			OrderRevenue:   money("400"),
			PaymentRevenue: money("600"),
			PremiumMembers: 12,
		},
		Buckets: []revenue.CategoryBucketRow{
			{Label: "Subscriptions", Count: 5, AmountSum: money("300")},
			{Label: "Coordinator Event Fees", Count: 3, AmountSum: money("200")},
			{Label: "Student Event Fees", Count: 2, AmountSum: money("80")},
			{Label: "Other", Count: 1, AmountSum: money("20")},
		},
		ByUser: []revenue.BreakdownRow{
			{Key: "U-1", Name: "Acme, Inc.", Count: 2, TotalAmount: money("120")},
		},
		TopSpenders: []revenue.TopSpender{
			{Name: "A", TotalSpent: money("5000")},
			{Name: "B", TotalSpent: money("12000")},
		},
		EventWise: []revenue.EventRevenue{
			{EventName: "Spring Regionals", Sport: "Basketball", Count: 8, TotalAmount: money("420")},
		},
		RecentTransactions: []revenue.TransactionRecord{
			{
				ID:     "TX-1",
				Kind:   revenue.RecordKindPayment,
				Status: "SETTLED",
				Amount: money("199.99"),
				Date:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
				Customer: revenue.Customer{
					Name: `He said "hi"`,
					Type: "STUDENT",
				},
				Description: "Event fee, spring",
			},
		},
		FetchedAt: time.Date(2025, 6, 15, 10, 29, 0, 0, time.UTC),
	}
}

func TestEscapeField(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"Comma triggers quoting", "Acme, Inc.", `"Acme, Inc."`},
		{"Internal quote is doubled", `He said "hi"`, `"He said ""hi"""`},
		{"Plain field stays bare", "plain", "plain"},
		{"Internal space stays bare", "two words", "two words"},
		{"Leading whitespace triggers quoting", " padded", `" padded"`},
		{"Trailing whitespace triggers quoting", "padded ", `"padded "`},
		{"Newline triggers quoting", "line1\nline2", "\"line1\nline2\""},
		{"CRLF normalized to LF before the check", "line1\r\nline2", "\"line1\nline2\""},
		{"Bare CR normalized to LF", "line1\rline2", "\"line1\nline2\""},
		{"Empty stays bare", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, escapeField(tc.in))
		})
	}
}

func TestCSVFormat(t *testing.T) {
	formatter := NewCSVFormatter(testConfig())

	t.Run("Starts with BOM and the sep hint", func(t *testing.T) {
		out, err := formatter.Format(fullSnapshot())

		require.NoError(t, err)
		require.True(t, len(out) > 3)
		assert.Equal(t, utf8BOM, out[:3])
		assert.True(t, strings.HasPrefix(string(out[3:]), "sep=,\r\n"))
	})

	t.Run("Every line is CRLF terminated", func(t *testing.T) {
		out, err := formatter.Format(fullSnapshot())
		require.NoError(t, err)

		body := string(out[3:])
		assert.True(t, strings.HasSuffix(body, "\r\n"))
		// No bare LF outside CRLF pairs
		assert.NotContains(t, strings.ReplaceAll(body, "\r\n", ""), "\n")
	})

	t.Run("Section order and metadata", func(t *testing.T) {
		out, err := formatter.Format(fullSnapshot())
		require.NoError(t, err)
		body := string(out[3:])

		sections := []string{
			"Athlo Revenue Dashboard Export",
			"METADATA",
			"Generated At,2025-06-15 10:30:00",
			"Date Range,Last 30 Days",
			"Applied Filters,None",
			"SUMMARY",
			"Gross Revenue,1000.00",
			"Commission,50.00",
			"Net Revenue,950.00",
			"Order Revenue,400.00",
			"Payment Revenue,600.00",
			"Premium Members,12",
			"REVENUE BY CATEGORY",
			"SUBSCRIPTIONS BREAKDOWN",
			"EVENT-WISE REVENUE",
			"TOP SPENDERS",
			"RECENT TRANSACTIONS",
		}
		last := -1
		for _, s := range sections {
			idx := strings.Index(body, s)
			require.GreaterOrEqual(t, idx, 0, "missing %q", s)
			assert.Greater(t, idx, last, "%q out of order", s)
			last = idx
		}
	})

	t.Run("Empty breakdown sections are omitted", func(t *testing.T) {
		snap := fullSnapshot()
		snap.ByUser = nil

		out, err := formatter.Format(snap)
		require.NoError(t, err)
		body := string(out)

		assert.NotContains(t, body, "SUBSCRIPTIONS BREAKDOWN")
		assert.NotContains(t, body, "COORDINATOR EVENT FEES BREAKDOWN")
		assert.NotContains(t, body, "ATHLETE EVENT FEES BREAKDOWN")
	})

	t.Run("Escaping applies to emitted fields", func(t *testing.T) {
		out, err := formatter.Format(fullSnapshot())
		require.NoError(t, err)
		body := string(out)

		assert.Contains(t, body, `"Acme, Inc."`)
		assert.Contains(t, body, `"He said ""hi"""`)
		assert.Contains(t, body, `"Event fee, spring"`)
	})

	t.Run("Top spenders are ranked descending", func(t *testing.T) {
		out, err := formatter.Format(fullSnapshot())
		require.NoError(t, err)
		body := string(out)

		bIdx := strings.Index(body, "1,B,,0,12000.00")
		aIdx := strings.Index(body, "2,A,,0,5000.00")
		require.GreaterOrEqual(t, bIdx, 0)
		require.GreaterOrEqual(t, aIdx, 0)
		assert.Less(t, bIdx, aIdx)
	})

	t.Run("Transaction rows derive commission at the fallback rate", func(t *testing.T) {
		out, err := formatter.Format(fullSnapshot())
		require.NoError(t, err)
		body := string(out)

		// 199.99 * 0.025 = 4.99975 -> 5.00; net 194.99
		assert.Contains(t, body, "2025-06-14,TX-1,PAYMENT,SETTLED")
		assert.Contains(t, body, "199.99,5.00,194.99")
	})

	t.Run("Transactions are capped at the most recent 20", func(t *testing.T) {
		snap := fullSnapshot()
		snap.RecentTransactions = nil
		for i := 0; i < 30; i++ {
			snap.RecentTransactions = append(snap.RecentTransactions, revenue.TransactionRecord{
				ID:     "TX-" + strings.Repeat("x", i+1),
				Kind:   revenue.RecordKindOrder,
				Amount: money("10"),
				Date:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
			})
		}

		out, err := formatter.Format(snap)
		require.NoError(t, err)

		assert.Equal(t, 20, strings.Count(string(out), "TX-x"))
	})

	t.Run("Zero-transaction snapshot still yields a valid file", func(t *testing.T) {
		snap := &revenue.Snapshot{Filter: revenue.DefaultFilter()}

		out, err := formatter.Format(snap)

		require.NoError(t, err)
		body := string(out[3:])
		assert.Contains(t, body, "METADATA")
		assert.Contains(t, body, "SUMMARY")
		assert.Contains(t, body, "Gross Revenue,0.00")
		assert.Contains(t, body, "RECENT TRANSACTIONS")
	})
}
