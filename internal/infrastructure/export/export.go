// Package export implements the two report formatters: the delimited text
// report and the multi-sheet spreadsheet workbook. Both serialize one frozen
// revenue snapshot; neither touches application state.
package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

// FormatterConfig holds settings shared by both formatters
type FormatterConfig struct {
	// ProductName heads the export title banner
	ProductName string
	// TransactionRate is the fallback commission rate applied to individual
	// transaction rows when no per-transaction commission is supplied
	// upstream. Independent of the aggregate commission rate.
	TransactionRate decimal.Decimal
	// RecentLimit caps the transactions section to the most recent N rows
	RecentLimit int
	// Now supplies the generation timestamp; nil means time.Now
	Now func() time.Time
}

// DefaultFormatterConfig returns formatter defaults: the 2.5% fallback
// transaction commission rate and a 20-row transaction cap.
func DefaultFormatterConfig(productName string) FormatterConfig {
	return FormatterConfig{
		ProductName:     productName,
		TransactionRate: decimal.RequireFromString("0.025"),
		RecentLimit:     20,
	}
}

func (c FormatterConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c FormatterConfig) recentLimit() int {
	if c.RecentLimit <= 0 {
		return 20
	}
	return c.RecentLimit
}

// metadataRows builds the shared metadata mini-block: generation time,
// resolved date-range label and the applied filter chips.
func metadataRows(snap *revenue.Snapshot, generatedAt time.Time) [][2]string {
	return [][2]string{
		{"Generated At", generatedAt.Format("2006-01-02 15:04:05")},
		{"Date Range", snap.Filter.DateRangeLabel()},
		{"Applied Filters", appliedFilters(snap.Filter)},
	}
}

func appliedFilters(f revenue.FilterState) string {
	chips := f.Chips()
	if len(chips) == 0 {
		return "None"
	}
	labels := make([]string, len(chips))
	for i, c := range chips {
		labels[i] = c.Label
	}
	return strings.Join(labels, "; ")
}

// recentTransactions bounds the transaction section to the configured cap.
// The upstream list is newest-first.
func recentTransactions(snap *revenue.Snapshot, limit int) []revenue.TransactionRecord {
	txs := snap.RecentTransactions
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs
}

// amount renders a currency figure with exactly two decimal digits,
// rounded half away from zero
func amount(d decimal.Decimal) string {
	return revenue.RoundMoney(d).StringFixed(2)
}

// breakdownSection pairs a breakdown title with its rows
type breakdownSection struct {
	title string
	rows  []revenue.BreakdownRow
}

// breakdownSections returns the three individual breakdowns in report order
func breakdownSections(snap *revenue.Snapshot) []breakdownSection {
	return []breakdownSection{
		{"SUBSCRIPTIONS BREAKDOWN", snap.ByUser},
		{"COORDINATOR EVENT FEES BREAKDOWN", snap.ByCoordinatorEvent},
		{"ATHLETE EVENT FEES BREAKDOWN", snap.ByAthleteEvent},
	}
}
