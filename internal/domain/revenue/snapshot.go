package revenue

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind distinguishes the two settled record families
type RecordKind string

const (
	RecordKindOrder   RecordKind = "ORDER"
	RecordKindPayment RecordKind = "PAYMENT"
)

// Customer identifies the paying party on a transaction record
type Customer struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Email    string `json:"email"`
	UniqueID string `json:"unique_id"`
}

// TransactionRecord is one settled order or payment. Immutable once fetched.
type TransactionRecord struct {
	ID          string          `json:"id"`
	Kind        RecordKind      `json:"kind"`
	Subtype     string          `json:"subtype"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Customer    Customer        `json:"customer"`
	EventName   string          `json:"event_name"`
	Sport       string          `json:"sport"`
}

// Commission derives the commission/net pair for a single transaction at the
// given rate. Used when no per-transaction commission is supplied upstream.
func (t TransactionRecord) Commission(rate decimal.Decimal) (commission, net decimal.Decimal) {
	commission = RoundMoney(t.Amount.Mul(rate))
	net = t.Amount.Sub(commission)
	return commission, net
}

// CategoryBucketRow aggregates revenue for one named category bucket
type CategoryBucketRow struct {
	Label     string          `json:"label"`
	Count     int64           `json:"count"`
	AmountSum decimal.Decimal `json:"amount_sum"`
}

// CommissionSummary is the platform-level commission breakdown
type CommissionSummary struct {
	Rate            decimal.Decimal `json:"rate"`
	GrossTotal      decimal.Decimal `json:"gross_total"`
	CommissionTotal decimal.Decimal `json:"commission_total"`
	NetTotal        decimal.Decimal `json:"net_total"`
}

// Consistent reports whether commission == round(gross*rate, 2) and
// net == gross - commission.
func (c CommissionSummary) Consistent() bool {
	expected := RoundMoney(c.GrossTotal.Mul(c.Rate))
	if !c.CommissionTotal.Equal(expected) {
		return false
	}
	return c.NetTotal.Equal(c.GrossTotal.Sub(c.CommissionTotal))
}

// Summary holds the headline figures of one snapshot
type Summary struct {
	Commission     CommissionSummary `json:"commission"`
	OrderRevenue   decimal.Decimal   `json:"order_revenue"`
	PaymentRevenue decimal.Decimal   `json:"payment_revenue"`
	PremiumMembers int64             `json:"premium_members"`
}

// DailyPoint is one day of the current window's time series
type DailyPoint struct {
	Date     time.Time       `json:"date"`
	Label    string          `json:"label"`
	Revenue  decimal.Decimal `json:"revenue"`
	Orders   int64           `json:"orders"`
	Payments int64           `json:"payments"`
}

// BreakdownRow is one grouped row of an individual breakdown section
// (by user, by coordinator/event, or by athlete/event)
type BreakdownRow struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// TopSpender is one row of the top-spenders ranking
type TopSpender struct {
	Rank         int             `json:"rank"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	Transactions int64           `json:"transactions"`
}

// EventRevenue aggregates revenue for one event
type EventRevenue struct {
	EventName   string          `json:"event_name"`
	Sport       string          `json:"sport"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Snapshot is one complete, internally consistent aggregation result for a
// given filter descriptor. A new fetch produces a wholly new snapshot; the
// value is never mutated in place, so consumers can never observe a summary
// from one filter mixed with a breakdown from another.
type Snapshot struct {
	Summary            Summary             `json:"summary"`
	Buckets            []CategoryBucketRow `json:"buckets"`
	ByUser             []BreakdownRow      `json:"by_user"`
	ByCoordinatorEvent []BreakdownRow      `json:"by_coordinator_event"`
	ByAthleteEvent     []BreakdownRow      `json:"by_athlete_event"`
	Daily              []DailyPoint        `json:"daily"`
	TopSpenders        []TopSpender        `json:"top_spenders"`
	RecentTransactions []TransactionRecord `json:"recent_transactions"`
	EventWise          []EventRevenue      `json:"event_wise"`
	LastUpdatedAt      time.Time           `json:"last_updated_at"`
	FetchedAt          time.Time           `json:"fetched_at"`
	Filter             FilterState         `json:"-"`
	Seq                uint64              `json:"-"`
}

// bucketSumTolerance is the accepted drift between the bucket sum and the
// reported payment revenue
var bucketSumTolerance = decimal.NewFromFloat(0.01)

// CheckBucketSum reports whether the category buckets sum to the summary's
// payment revenue within tolerance. Used for diagnostics, never to reject
// a snapshot.
func (s *Snapshot) CheckBucketSum() bool {
	sum := decimal.Zero
	for _, b := range s.Buckets {
		sum = sum.Add(b.AmountSum)
	}
	return sum.Sub(s.Summary.PaymentRevenue).Abs().LessThanOrEqual(bucketSumTolerance)
}

// RankTopSpenders sorts spenders descending by total spent and assigns ranks
// from 1. Upstream ordering is not trusted.
func RankTopSpenders(spenders []TopSpender) []TopSpender {
	ranked := make([]TopSpender, len(spenders))
	copy(ranked, spenders)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalSpent.GreaterThan(ranked[j].TotalSpent)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RoundMoney rounds a monetary figure to two decimal places, half away
// from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
