package katana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katanaluca/backend/internal/domain/integration"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{
			name:   "valid config",
			config: &Config{BaseURL: "https://api.katana.test", APIKey: "key"},
		},
		{
			name:    "missing base URL",
			config:  &Config{APIKey: "key"},
			wantErr: ErrConfigMissingBaseURL,
		},
		{
			name:    "missing API key",
			config:  &Config{BaseURL: "https://api.katana.test"},
			wantErr: ErrConfigMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultTimeout, tt.config.Timeout)
			assert.Equal(t, int64(defaultMaxResponseBytes), tt.config.MaxResponseBytes)
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestClient_FetchChanged(t *testing.T) {
	t.Run("normalizes dual-cased SKU fields", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/products", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "2026-01-15T10:00:00Z", r.URL.Query().Get("updated_after"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": [
				{"id": 101, "sku": "WS-OAK-001", "name": "Oak Table", "sales_price": 149.90, "tax_rate": 18, "updated_at": "2026-01-16T09:00:00Z"},
				{"id": 102, "SKU": "WS-PINE-002", "name": "Pine Shelf", "sales_price": 89.50, "tax_rate": 18, "updated_at": "2026-01-16T09:05:00Z"}
			]}`))
		})

		since := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		records, err := client.FetchChanged(context.Background(), integration.EntityTypeProduct, since)
		require.NoError(t, err)
		require.Len(t, records, 2)

		first, ok := records[0].(*integration.Product)
		require.True(t, ok)
		assert.Equal(t, "101", first.KatanaID)
		assert.Equal(t, "WS-OAK-001", first.SKU)
		assert.True(t, first.SalesPrice.Equal(decimal.NewFromFloat(149.90)))
		assert.True(t, first.IsActive)

		second, ok := records[1].(*integration.Product)
		require.True(t, ok)
		assert.Equal(t, "WS-PINE-002", second.SKU)
	})

	t.Run("zero watermark omits updated_after", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/customers", r.URL.Path)
			assert.False(t, r.URL.Query().Has("updated_after"))
			_, _ = w.Write([]byte(`{"data": []}`))
		})

		records, err := client.FetchChanged(context.Background(), integration.EntityTypeCustomer, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("sales order lines are normalized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/sales-orders", r.URL.Path)
			_, _ = w.Write([]byte(`{"data": [{
				"id": 501, "order_no": "SO-2026-014", "customer_id": 33,
				"currency": "TRY", "status": "DONE", "total": 1200,
				"sales_order_rows": [
					{"SKU": "WS-OAK-001", "quantity": 4, "price_per_unit": 300, "tax_rate": 18}
				],
				"updated_at": "2026-01-16T11:00:00Z"
			}]}`))
		})

		records, err := client.FetchChanged(context.Background(), integration.EntityTypeSalesOrder, time.Time{})
		require.NoError(t, err)
		require.Len(t, records, 1)

		order, ok := records[0].(*integration.SalesOrder)
		require.True(t, ok)
		assert.Equal(t, "SO-2026-014", order.OrderNo)
		assert.Equal(t, "33", order.CustomerKatanaID)
		require.Len(t, order.Lines, 1)
		assert.Equal(t, "WS-OAK-001", order.Lines[0].SKU)
		assert.True(t, order.Lines[0].Quantity.Equal(decimal.NewFromInt(4)))
	})

	t.Run("invalid entity type", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := client.FetchChanged(context.Background(), integration.EntityType("BOGUS"), time.Time{})
		assert.ErrorIs(t, err, integration.ErrInvalidEntityType)
	})
}

func TestClient_FetchByID(t *testing.T) {
	t.Run("returns a single customer", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/customers/33", r.URL.Path)
			_, _ = w.Write([]byte(`{"data": {
				"id": 33, "name": "Yilmaz Mobilya", "email": "info@yilmaz.example",
				"currency": "TRY", "updated_at": "2026-01-16T08:00:00Z"
			}}`))
		})

		record, err := client.FetchByID(context.Background(), integration.EntityTypeCustomer, "33")
		require.NoError(t, err)

		customer, ok := record.(*integration.Customer)
		require.True(t, ok)
		assert.Equal(t, "33", customer.KatanaID)
		assert.Equal(t, "Yilmaz Mobilya", customer.Name)
	})

	t.Run("404 maps to vendor rejection", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "customer not found"}`))
		})

		_, err := client.FetchByID(context.Background(), integration.EntityTypeCustomer, "999")
		assert.ErrorIs(t, err, integration.ErrVendorRejected)

		var vendorErr *integration.VendorError
		require.ErrorAs(t, err, &vendorErr)
		assert.Equal(t, http.StatusNotFound, vendorErr.StatusCode)
		assert.Equal(t, "customer not found", vendorErr.Message)
		assert.Equal(t, integration.FailureClassNonRetryable, integration.Classify(err))
	})
}

func TestClient_MutateStock(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/stock/adjustments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "WS-OAK-001", req["sku"])
		assert.Equal(t, "SO-2026-014", req["reference"])

		_, _ = w.Write([]byte(`{"data": {"success": true, "message": "stock updated", "new_stock": 24}}`))
	})

	result, err := client.MutateStock(context.Background(), integration.StockAdjustment{
		SKU:       "WS-OAK-001",
		Quantity:  decimal.NewFromInt(4),
		Reference: "SO-2026-014",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "stock updated", result.Message)
	assert.True(t, result.NewStock.Equal(decimal.NewFromInt(24)))
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Run("429 carries the Retry-After hint", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message": "rate limit exceeded"}`))
		})

		_, err := client.FetchChanged(context.Background(), integration.EntityTypeProduct, time.Time{})
		assert.ErrorIs(t, err, integration.ErrVendorRateLimited)

		var vendorErr *integration.VendorError
		require.ErrorAs(t, err, &vendorErr)
		assert.Equal(t, 7*time.Second, vendorErr.RetryAfter)
		assert.Equal(t, integration.FailureClassRetryable, integration.Classify(err))
	})

	t.Run("5xx maps to vendor unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`upstream down`))
		})

		_, err := client.FetchChanged(context.Background(), integration.EntityTypeProduct, time.Time{})
		assert.ErrorIs(t, err, integration.ErrVendorUnavailable)
		assert.Equal(t, integration.FailureClassRetryable, integration.Classify(err))
	})

	t.Run("timeout maps to vendor timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		t.Cleanup(server.Close)

		client, err := NewClient(&Config{
			BaseURL: server.URL,
			APIKey:  "test-key",
			Timeout: 20 * time.Millisecond,
		}, nil)
		require.NoError(t, err)

		_, err = client.FetchChanged(context.Background(), integration.EntityTypeProduct, time.Time{})
		assert.ErrorIs(t, err, integration.ErrVendorTimeout)
	})

	t.Run("malformed body maps to schema error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json at all`))
		})

		_, err := client.FetchChanged(context.Background(), integration.EntityTypeProduct, time.Time{})
		assert.ErrorIs(t, err, integration.ErrPayloadSchema)
	})
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	parsed := parseRetryAfter(future)
	assert.InDelta(t, (90 * time.Second).Seconds(), parsed.Seconds(), 2)
}
