// Package reporting consumes the platform's revenue reporting API and runs
// the background poll loop. It implements no aggregation itself; every figure
// arrives pre-computed.
package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

// maxResponseSize bounds the reporting API response (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ClientConfig holds reporting API client settings
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration

	// AggregateRateFallback is substituted for the summary commission rate
	// when the reporting API omits it. It is unrelated to the per-transaction
	// fallback rate used by exports.
	AggregateRateFallback decimal.Decimal
}

// Client fetches revenue snapshots from the reporting API. Every field of the
// response document is optional; absent sections decode to defined zero
// states rather than failing.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new reporting API client
func NewClient(config ClientConfig, logger *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: reporting base URL is required", revenue.ErrFetchFailed)
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

// FetchSnapshot issues one aggregation request for the descriptor. No
// automatic retries are performed.
func (c *Client) FetchSnapshot(ctx context.Context, descriptor revenue.Descriptor) (*revenue.Snapshot, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/reports/revenue"
	query := descriptor.Values().Encode()
	if query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", revenue.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", revenue.ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: reporting API returned status %d", revenue.ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", revenue.ErrFetchFailed, err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", revenue.ErrMalformedResponse, err)
	}

	c.logger.Debug("revenue snapshot fetched",
		zap.String("query", query),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	snap := doc.toDomain()
	if doc.Summary == nil || doc.Summary.CommissionRate == nil {
		snap.Summary.Commission.Rate = c.config.AggregateRateFallback
	}
	return snap, nil
}

// BaseURL returns the configured reporting API base URL
func (c *Client) BaseURL() *url.URL {
	u, _ := url.Parse(c.config.BaseURL)
	return u
}

// ---------------------------------------------------------------------------
// Wire document
// ---------------------------------------------------------------------------

// snapshotDoc mirrors the reporting API response. Every section is nullable.
type snapshotDoc struct {
	Summary              *summaryDoc       `json:"summary"`
	RevenueByCategory    []bucketDoc       `json:"revenueByCategory"`
	UserBreakdown        []breakdownDoc    `json:"userBreakdown"`
	CoordinatorBreakdown []breakdownDoc    `json:"coordinatorEventBreakdown"`
	AthleteBreakdown     []breakdownDoc    `json:"athleteEventBreakdown"`
	DailyRevenue         []dailyDoc        `json:"dailyRevenue"`
	TopSpenders          []spenderDoc      `json:"topSpenders"`
	RecentTransactions   []transactionDoc  `json:"recentTransactions"`
	EventWiseRevenue     []eventRevenueDoc `json:"eventWiseRevenue"`
	LastUpdatedAt        *time.Time        `json:"lastUpdatedAt"`
}

type summaryDoc struct {
	CommissionRate  *float64 `json:"commissionRate"`
	GrossRevenue    *float64 `json:"grossRevenue"`
	CommissionTotal *float64 `json:"commissionTotal"`
	NetRevenue      *float64 `json:"netRevenue"`
	OrderRevenue    *float64 `json:"orderRevenue"`
	PaymentRevenue  *float64 `json:"paymentRevenue"`
	PremiumMembers  *int64   `json:"premiumMembers"`
}

type bucketDoc struct {
	Label     string   `json:"label"`
	Count     *int64   `json:"count"`
	AmountSum *float64 `json:"amountSum"`
}

type breakdownDoc struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Count       *int64   `json:"count"`
	TotalAmount *float64 `json:"totalAmount"`
}

type dailyDoc struct {
	Date     string   `json:"date"`
	Label    string   `json:"label"`
	Revenue  *float64 `json:"revenue"`
	Orders   *int64   `json:"orders"`
	Payments *int64   `json:"payments"`
}

type spenderDoc struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	TotalSpent   *float64 `json:"totalSpent"`
	Transactions *int64   `json:"transactions"`
}

type transactionDoc struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	Subtype     string       `json:"subtype"`
	Status      string       `json:"status"`
	Amount      *float64     `json:"amount"`
	Date        string       `json:"date"`
	Description string       `json:"description"`
	Customer    *customerDoc `json:"customer"`
	EventName   string       `json:"eventName"`
	Sport       string       `json:"sport"`
}

type customerDoc struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Email    string `json:"email"`
	UniqueID string `json:"uniqueId"`
}

type eventRevenueDoc struct {
	EventName   string   `json:"eventName"`
	Sport       string   `json:"sport"`
	Count       *int64   `json:"count"`
	TotalAmount *float64 `json:"totalAmount"`
}

func (d *snapshotDoc) toDomain() *revenue.Snapshot {
	snap := &revenue.Snapshot{
		Buckets:            make([]revenue.CategoryBucketRow, 0, len(d.RevenueByCategory)),
		ByUser:             toBreakdowns(d.UserBreakdown),
		ByCoordinatorEvent: toBreakdowns(d.CoordinatorBreakdown),
		ByAthleteEvent:     toBreakdowns(d.AthleteBreakdown),
		Daily:              make([]revenue.DailyPoint, 0, len(d.DailyRevenue)),
		TopSpenders:        make([]revenue.TopSpender, 0, len(d.TopSpenders)),
		RecentTransactions: make([]revenue.TransactionRecord, 0, len(d.RecentTransactions)),
		EventWise:          make([]revenue.EventRevenue, 0, len(d.EventWiseRevenue)),
	}

	if s := d.Summary; s != nil {
		snap.Summary = revenue.Summary{
			Commission: revenue.CommissionSummary{
				Rate:            dec(s.CommissionRate),
				GrossTotal:      dec(s.GrossRevenue),
				CommissionTotal: dec(s.CommissionTotal),
				NetTotal:        dec(s.NetRevenue),
			},
			OrderRevenue:   dec(s.OrderRevenue),
			PaymentRevenue: dec(s.PaymentRevenue),
			PremiumMembers: i64(s.PremiumMembers),
		}
	}
	for _, b := range d.RevenueByCategory {
		snap.Buckets = append(snap.Buckets, revenue.CategoryBucketRow{
			Label:     b.Label,
			Count:     i64(b.Count),
			AmountSum: dec(b.AmountSum),
		})
	}
	for _, p := range d.DailyRevenue {
		snap.Daily = append(snap.Daily, revenue.DailyPoint{
			Date:     parseDay(p.Date),
			Label:    p.Label,
			Revenue:  dec(p.Revenue),
			Orders:   i64(p.Orders),
			Payments: i64(p.Payments),
		})
	}
	for _, s := range d.TopSpenders {
		snap.TopSpenders = append(snap.TopSpenders, revenue.TopSpender{
			Name:         s.Name,
			Email:        s.Email,
			TotalSpent:   dec(s.TotalSpent),
			Transactions: i64(s.Transactions),
		})
	}
	for _, tx := range d.RecentTransactions {
		record := revenue.TransactionRecord{
			ID:          tx.ID,
			Kind:        revenue.RecordKind(tx.Kind),
			Subtype:     tx.Subtype,
			Status:      tx.Status,
			Amount:      dec(tx.Amount),
			Date:        parseDay(tx.Date),
			Description: tx.Description,
			EventName:   tx.EventName,
			Sport:       tx.Sport,
		}
		if tx.Customer != nil {
			record.Customer = revenue.Customer{
				Name:     tx.Customer.Name,
				Type:     tx.Customer.Type,
				Email:    tx.Customer.Email,
				UniqueID: tx.Customer.UniqueID,
			}
		}
		snap.RecentTransactions = append(snap.RecentTransactions, record)
	}
	for _, e := range d.EventWiseRevenue {
		snap.EventWise = append(snap.EventWise, revenue.EventRevenue{
			EventName:   e.EventName,
			Sport:       e.Sport,
			Count:       i64(e.Count),
			TotalAmount: dec(e.TotalAmount),
		})
	}
	if d.LastUpdatedAt != nil {
		snap.LastUpdatedAt = *d.LastUpdatedAt
	}
	return snap
}

func toBreakdowns(docs []breakdownDoc) []revenue.BreakdownRow {
	rows := make([]revenue.BreakdownRow, 0, len(docs))
	for _, b := range docs {
		rows = append(rows, revenue.BreakdownRow{
			Key:         b.Key,
			Name:        b.Name,
			Count:       i64(b.Count),
			TotalAmount: dec(b.TotalAmount),
		})
	}
	return rows
}

func dec(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}

func i64(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// parseDay accepts both bare dates and RFC3339 timestamps
func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
