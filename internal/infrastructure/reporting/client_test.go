package reporting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("Base URL is required", func(t *testing.T) {
		_, err := NewClient(ClientConfig{}, nil)
		assert.ErrorIs(t, err, revenue.ErrFetchFailed)
	})
}

func TestFetchSnapshot(t *testing.T) {
	t.Run("Full document maps to domain", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/reports/revenue", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"summary": {
					"commissionRate": 0.05,
					"grossRevenue": 1000,
					"commissionTotal": 50,
					"netRevenue": 950,
					"orderRevenue": 400,
					"paymentRevenue": 600,
					"premiumMembers": 12
				},
				"revenueByCategory": [
					{"label": "Subscriptions", "count": 5, "amountSum": 300.5}
				],
				"dailyRevenue": [
					{"date": "2025-01-01", "revenue": 100, "orders": 2, "payments": 3}
				],
				"topSpenders": [
					{"name": "A", "totalSpent": 5000, "transactions": 4}
				],
				"recentTransactions": [
					{
						"id": "TX-1", "kind": "PAYMENT", "subtype": "EVENT_FEE",
						"status": "SETTLED", "amount": 199.99, "date": "2025-01-02",
						"customer": {"name": "Dana", "type": "STUDENT", "uniqueId": "U-9"}
					}
				],
				"eventWiseRevenue": [
					{"eventName": "Spring Regionals", "sport": "Basketball", "count": 8, "totalAmount": 420}
				],
				"lastUpdatedAt": "2025-01-02T08:00:00Z"
			}`))
		})

		snap, err := client.FetchSnapshot(context.Background(), revenue.Descriptor{})

		require.NoError(t, err)
		assert.True(t, snap.Summary.Commission.GrossTotal.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, int64(12), snap.Summary.PremiumMembers)
		require.Len(t, snap.Buckets, 1)
		assert.True(t, snap.Buckets[0].AmountSum.Equal(decimal.RequireFromString("300.5")))
		require.Len(t, snap.Daily, 1)
		assert.Equal(t, int64(3), snap.Daily[0].Payments)
		require.Len(t, snap.RecentTransactions, 1)
		assert.Equal(t, revenue.RecordKindPayment, snap.RecentTransactions[0].Kind)
		assert.Equal(t, "U-9", snap.RecentTransactions[0].Customer.UniqueID)
		assert.Equal(t, "2025-01-02", snap.RecentTransactions[0].Date.Format("2006-01-02"))
		assert.False(t, snap.LastUpdatedAt.IsZero())
	})

	t.Run("Missing sections decode to zero states", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		snap, err := client.FetchSnapshot(context.Background(), revenue.Descriptor{})

		require.NoError(t, err)
		assert.True(t, snap.Summary.PaymentRevenue.IsZero())
		assert.Empty(t, snap.Buckets)
		assert.Empty(t, snap.Daily)
		assert.Empty(t, snap.RecentTransactions)
		assert.True(t, snap.LastUpdatedAt.IsZero())
	})

	t.Run("Descriptor encodes as query parameters", func(t *testing.T) {
		var gotQuery string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{}`))
		})

		filter := revenue.DefaultFilter().
			WithSource(revenue.SourceOrders).
			WithBucket(revenue.BucketStudentEventFees)
		_, err := client.FetchSnapshot(context.Background(), filter.Descriptor())

		require.NoError(t, err)
		assert.Contains(t, gotQuery, "source=ORDERS")
		assert.Contains(t, gotQuery, "paymentTypes=EVENT_STUDENT_FEE")
	})

	t.Run("Non-200 status is a fetch error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.FetchSnapshot(context.Background(), revenue.Descriptor{})

		assert.ErrorIs(t, err, revenue.ErrFetchFailed)
	})

	t.Run("Malformed top-level document is a malformed-response error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"summary": [1,2,3]`))
		})

		_, err := client.FetchSnapshot(context.Background(), revenue.Descriptor{})

		assert.ErrorIs(t, err, revenue.ErrMalformedResponse)
	})

	t.Run("Context cancellation aborts the fetch", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := client.FetchSnapshot(ctx, revenue.Descriptor{})
		assert.ErrorIs(t, err, revenue.ErrFetchFailed)
	})
}

func TestFetchSnapshot_AggregateRateFallback(t *testing.T) {
	newFallbackClient := func(t *testing.T, body string) *Client {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(server.Close)

		client, err := NewClient(ClientConfig{
			BaseURL:               server.URL,
			Timeout:               2 * time.Second,
			AggregateRateFallback: decimal.NewFromFloat(0.08),
		}, zap.NewNop())
		require.NoError(t, err)
		return client
	}

	t.Run("applies fallback when summary omits the rate", func(t *testing.T) {
		client := newFallbackClient(t, `{"summary": {"grossRevenue": 100}}`)

		snap, err := client.FetchSnapshot(context.Background(), revenue.Descriptor{})
		require.NoError(t, err)

		assert.True(t, snap.Summary.Commission.Rate.Equal(decimal.NewFromFloat(0.08)))
	})

	t.Run("applies fallback when summary is absent", func(t *testing.T) {
		client := newFallbackClient(t, `{}`)

		snap, err := client.FetchSnapshot(context.Background(), revenue.Descriptor{})
		require.NoError(t, err)

		assert.True(t, snap.Summary.Commission.Rate.Equal(decimal.NewFromFloat(0.08)))
	})

	t.Run("keeps the reported rate when present", func(t *testing.T) {
		client := newFallbackClient(t, `{"summary": {"commissionRate": 0.05}}`)

		snap, err := client.FetchSnapshot(context.Background(), revenue.Descriptor{})
		require.NoError(t, err)

		assert.True(t, snap.Summary.Commission.Rate.Equal(decimal.NewFromFloat(0.05)))
	})
}
