package handler

import (
	"time"

	"github.com/athlo/dashboard/internal/application/revenue"
	domain "github.com/athlo/dashboard/internal/domain/revenue"
)

// ===================== Request DTOs =====================

// SnapshotFilterRequest binds the filter query parameters of the snapshot
// endpoint. Absent parameters keep their default dimension.
type SnapshotFilterRequest struct {
	Source    string `form:"source" binding:"omitempty,oneof=ALL PAYMENTS ORDERS"`
	Bucket    string `form:"bucket" binding:"omitempty,oneof=ALL SUBSCRIPTIONS COORDINATOR_EVENT_FEES STUDENT_EVENT_FEES"`
	UserType  string `form:"userType" binding:"omitempty,oneof=ALL STUDENT COACH INSTITUTE CLUB ADMIN"`
	Query     string `form:"q"`
	MinAmount string `form:"minAmount"`
	MaxAmount string `form:"maxAmount"`
	DateRange string `form:"dateRange"`
}

// ChartRequest binds the chart endpoint query parameters
type ChartRequest struct {
	Hover *int `form:"hover" binding:"omitempty,min=0"`
}

// PinRequest is the body of the chart pin toggle endpoint
type PinRequest struct {
	Date string `json:"date" binding:"required"`
}

// ===================== Response DTOs =====================

// CommissionSummaryResponse mirrors the commission block of the summary
type CommissionSummaryResponse struct {
	Rate            float64 `json:"rate"`
	GrossTotal      float64 `json:"gross_total"`
	CommissionTotal float64 `json:"commission_total"`
	NetTotal        float64 `json:"net_total"`
}

// SummaryResponse is the headline summary of a snapshot
type SummaryResponse struct {
	Commission     CommissionSummaryResponse `json:"commission"`
	OrderRevenue   float64                   `json:"order_revenue"`
	PaymentRevenue float64                   `json:"payment_revenue"`
	PremiumMembers int64                     `json:"premium_members"`
}

// BucketRowResponse is one revenue-by-category row
type BucketRowResponse struct {
	Label     string  `json:"label"`
	Count     int64   `json:"count"`
	AmountSum float64 `json:"amount_sum"`
}

// BreakdownRowResponse is one breakdown row (user or event grouping)
type BreakdownRowResponse struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// DailyPointResponse is one day of the revenue series
type DailyPointResponse struct {
	Date     string  `json:"date"`
	Label    string  `json:"label"`
	Revenue  float64 `json:"revenue"`
	Orders   int64   `json:"orders"`
	Payments int64   `json:"payments"`
}

// TopSpenderResponse is one ranked top-spender row
type TopSpenderResponse struct {
	Rank         int     `json:"rank"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	TotalSpent   float64 `json:"total_spent"`
	Transactions int64   `json:"transactions"`
}

// TransactionResponse is one recent transaction row
type TransactionResponse struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Subtype      string  `json:"subtype"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
	CustomerName string  `json:"customer_name"`
	CustomerType string  `json:"customer_type"`
	EventName    string  `json:"event_name,omitempty"`
	Sport        string  `json:"sport,omitempty"`
}

// EventRevenueResponse is one event-wise revenue row
type EventRevenueResponse struct {
	EventName   string  `json:"event_name"`
	Sport       string  `json:"sport"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// ChipResponse is one removable filter chip
type ChipResponse struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// SnapshotResponse is the full dashboard snapshot payload
type SnapshotResponse struct {
	Summary            SummaryResponse        `json:"summary"`
	Buckets            []BucketRowResponse    `json:"buckets"`
	ByUser             []BreakdownRowResponse `json:"by_user"`
	ByCoordinatorEvent []BreakdownRowResponse `json:"by_coordinator_event"`
	ByAthleteEvent     []BreakdownRowResponse `json:"by_athlete_event"`
	Daily              []DailyPointResponse   `json:"daily"`
	TopSpenders        []TopSpenderResponse   `json:"top_spenders"`
	RecentTransactions []TransactionResponse  `json:"recent_transactions"`
	EventWise          []EventRevenueResponse `json:"event_wise"`
	LastUpdatedAt      string                 `json:"last_updated_at,omitempty"`
	FetchedAt          string                 `json:"fetched_at"`
	Degraded           bool                   `json:"degraded"`
	Chips              []ChipResponse         `json:"chips"`
}

// ChartPointResponse is one normalized chart point
type ChartPointResponse struct {
	Index        int     `json:"index"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	LabelVisible bool    `json:"label_visible"`
	Date         string  `json:"date"`
	Label        string  `json:"label"`
	Revenue      float64 `json:"revenue"`
}

// TooltipResponse anchors the hover tooltip in percent coordinates
type TooltipResponse struct {
	XPct    float64 `json:"x_pct"`
	YPct    float64 `json:"y_pct"`
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// ChartResponse is the chart geometry payload
type ChartResponse struct {
	Points  []ChartPointResponse `json:"points"`
	Tooltip *TooltipResponse     `json:"tooltip,omitempty"`
	Pinned  *string              `json:"pinned,omitempty"`
}

// RefreshResponse reports the outcome of a manual refresh
type RefreshResponse struct {
	FetchedAt string `json:"fetched_at"`
	Degraded  bool   `json:"degraded"`
}

// ===================== Mapping =====================

const dayLayout = "2006-01-02"

func toSnapshotResponse(snap *domain.Snapshot, degraded bool, chips []domain.Chip) SnapshotResponse {
	resp := SnapshotResponse{
		Summary: SummaryResponse{
			Commission: CommissionSummaryResponse{
				Rate:            snap.Summary.Commission.Rate.InexactFloat64(),
				GrossTotal:      snap.Summary.Commission.GrossTotal.InexactFloat64(),
				CommissionTotal: snap.Summary.Commission.CommissionTotal.InexactFloat64(),
				NetTotal:        snap.Summary.Commission.NetTotal.InexactFloat64(),
			},
			OrderRevenue:   snap.Summary.OrderRevenue.InexactFloat64(),
			PaymentRevenue: snap.Summary.PaymentRevenue.InexactFloat64(),
			PremiumMembers: snap.Summary.PremiumMembers,
		},
		Buckets:            make([]BucketRowResponse, 0, len(snap.Buckets)),
		ByUser:             toBreakdownResponses(snap.ByUser),
		ByCoordinatorEvent: toBreakdownResponses(snap.ByCoordinatorEvent),
		ByAthleteEvent:     toBreakdownResponses(snap.ByAthleteEvent),
		Daily:              make([]DailyPointResponse, 0, len(snap.Daily)),
		TopSpenders:        make([]TopSpenderResponse, 0, len(snap.TopSpenders)),
		RecentTransactions: make([]TransactionResponse, 0, len(snap.RecentTransactions)),
		EventWise:          make([]EventRevenueResponse, 0, len(snap.EventWise)),
		FetchedAt:          snap.FetchedAt.Format(time.RFC3339),
		Degraded:           degraded,
		Chips:              toChipResponses(chips),
	}
	if !snap.LastUpdatedAt.IsZero() {
		resp.LastUpdatedAt = snap.LastUpdatedAt.Format(time.RFC3339)
	}

	for _, b := range snap.Buckets {
		resp.Buckets = append(resp.Buckets, BucketRowResponse{
			Label:     b.Label,
			Count:     b.Count,
			AmountSum: b.AmountSum.InexactFloat64(),
		})
	}
	for _, p := range snap.Daily {
		resp.Daily = append(resp.Daily, DailyPointResponse{
			Date:     p.Date.Format(dayLayout),
			Label:    p.Label,
			Revenue:  p.Revenue.InexactFloat64(),
			Orders:   p.Orders,
			Payments: p.Payments,
		})
	}
	for _, s := range domain.RankTopSpenders(snap.TopSpenders) {
		resp.TopSpenders = append(resp.TopSpenders, TopSpenderResponse{
			Rank:         s.Rank,
			Name:         s.Name,
			Email:        s.Email,
			TotalSpent:   s.TotalSpent.InexactFloat64(),
			Transactions: s.Transactions,
		})
	}
	for _, tx := range snap.RecentTransactions {
		resp.RecentTransactions = append(resp.RecentTransactions, TransactionResponse{
			ID:           tx.ID,
			Kind:         string(tx.Kind),
			Subtype:      tx.Subtype,
			Status:       tx.Status,
			Amount:       tx.Amount.InexactFloat64(),
			Date:         tx.Date.Format(dayLayout),
			Description:  tx.Description,
			CustomerName: tx.Customer.Name,
			CustomerType: tx.Customer.Type,
			EventName:    tx.EventName,
			Sport:        tx.Sport,
		})
	}
	for _, e := range snap.EventWise {
		resp.EventWise = append(resp.EventWise, EventRevenueResponse{
			EventName:   e.EventName,
			Sport:       e.Sport,
			Count:       e.Count,
			TotalAmount: e.TotalAmount.InexactFloat64(),
		})
	}
	return resp
}

func toBreakdownResponses(rows []domain.BreakdownRow) []BreakdownRowResponse {
	out := make([]BreakdownRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, BreakdownRowResponse{
			Key:         r.Key,
			Name:        r.Name,
			Count:       r.Count,
			TotalAmount: r.TotalAmount.InexactFloat64(),
		})
	}
	return out
}

func toChipResponses(chips []domain.Chip) []ChipResponse {
	out := make([]ChipResponse, 0, len(chips))
	for _, chip := range chips {
		out = append(out, ChipResponse{
			Kind:  string(chip.Kind),
			Label: chip.Label,
		})
	}
	return out
}

func toChartResponse(points []revenue.ChartPoint, tooltip *revenue.TooltipAnchor, pinned *time.Time) ChartResponse {
	resp := ChartResponse{
		Points: make([]ChartPointResponse, 0, len(points)),
	}
	for _, p := range points {
		resp.Points = append(resp.Points, ChartPointResponse{
			Index:        p.Index,
			X:            p.X,
			Y:            p.Y,
			LabelVisible: p.LabelVisible,
			Date:         p.Point.Date.Format(dayLayout),
			Label:        p.Point.Label,
			Revenue:      p.Point.Revenue.InexactFloat64(),
		})
	}
	if tooltip != nil {
		resp.Tooltip = &TooltipResponse{
			XPct:    tooltip.XPct,
			YPct:    tooltip.YPct,
			Date:    tooltip.Point.Date.Format(dayLayout),
			Revenue: tooltip.Point.Revenue.InexactFloat64(),
		}
	}
	if pinned != nil {
		formatted := pinned.Format(dayLayout)
		resp.Pinned = &formatted
	}
	return resp
}
