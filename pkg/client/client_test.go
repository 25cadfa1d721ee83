package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(Config{BaseURL: server.URL, APIKey: "test-key"})
}

func TestListAvailableFields(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/fields/available", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(AvailableFields{
			Categories: map[string][]FieldDescriptor{
				"pricing": {{Name: "price", DisplayName: "Price", Type: "numeric"}},
			},
			TotalFields: 1,
		})
	})

	fields, err := c.ListAvailableFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fields.TotalFields)
	assert.Equal(t, "price", fields.Categories["pricing"][0].Name)
}

func TestGetTrends(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/products/p1/trends", r.URL.Path)
		assert.Equal(t, "price,bsr_main", r.URL.Query().Get("fields"))
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		json.NewEncoder(w).Encode(map[string]any{
			"product_id": "p1",
			"days":       7,
			"data": []map[string]any{
				{"date": "2024-03-06", "price": 19.99, "bsr_main": 1500},
			},
			"total_points": 1,
		})
	})

	result, err := c.GetTrends(context.Background(), "p1", []string{"price", "bsr_main"}, 7)
	require.NoError(t, err)
	assert.Equal(t, "p1", result.ProductID)
	assert.Equal(t, 1, result.TotalPoints)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "2024-03-06", result.Data[0].Date())
	assert.Equal(t, 19.99, result.Data[0]["price"])
}

func TestGetTrendsValidatesBeforeDispatch(t *testing.T) {
	var requests int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	})

	_, err := c.GetTrends(context.Background(), "p1", []string{"not_a_field"}, 7)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = c.GetTrends(context.Background(), "p1", nil, 7)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = c.GetTrends(context.Background(), "p1", []string{"price"}, 999)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = c.GetTrends(context.Background(), "", []string{"price"}, 7)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	assert.Equal(t, int32(0), atomic.LoadInt32(&requests), "validation failures must not reach the network")
}

func TestGetPriceTrend(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "price,buybox_price,original_price", r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(map[string]any{
			"product_id": "p1",
			"days":       30,
			"data": []map[string]any{
				{"date": "2024-03-05", "price": 19.99, "buybox_price": nil, "original_price": 24.99},
				{"date": "2024-03-06", "price": 21.50, "buybox_price": 20.99, "original_price": nil},
			},
			"total_points": 2,
		})
	})

	points, err := c.GetPriceTrend(context.Background(), "p1", 30)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2024-03-05", points[0].Date)
	require.NotNil(t, points[0].Price)
	assert.Equal(t, 19.99, *points[0].Price)
	assert.Nil(t, points[0].BuyboxPrice)
	require.NotNil(t, points[0].OriginalPrice)
	assert.Equal(t, 24.99, *points[0].OriginalPrice)
	assert.Nil(t, points[1].OriginalPrice)
}

func TestGetBSRTrend(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bsr_main,bsr_sub", r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(map[string]any{
			"product_id": "p1",
			"days":       30,
			"data": []map[string]any{
				{"date": "2024-03-06", "bsr_main": 1500, "bsr_sub": nil},
				{"date": "2024-03-07", "bsr_main": 1499.6, "bsr_sub": 10.2},
			},
			"total_points": 2,
		})
	})

	points, err := c.GetBSRTrend(context.Background(), "p1", 30)
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.NotNil(t, points[0].BSRMain)
	assert.Equal(t, 1500, *points[0].BSRMain)
	assert.Nil(t, points[0].BSRSub)

	// Fractional wire values round rather than truncate.
	require.NotNil(t, points[1].BSRMain)
	assert.Equal(t, 1500, *points[1].BSRMain)
	require.NotNil(t, points[1].BSRSub)
	assert.Equal(t, 10, *points[1].BSRSub)
}

func TestCompareProducts(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/compare", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "price", body["metric_type"])

		json.NewEncoder(w).Encode(trends.ComparisonResult{
			MetricType: trends.MetricPrice,
			Days:       30,
			Products: []trends.ProductMetricTrend{
				{ProductID: "p1", Title: "Widget A", ASIN: "B000TEST01"},
				{ProductID: "p2", Title: "Widget B", ASIN: "B000TEST02"},
			},
		})
	})

	result, err := c.CompareProducts(context.Background(), []string{"p1", "p2"}, trends.MetricPrice, 30)
	require.NoError(t, err)
	require.Len(t, result.Products, 2)
	assert.Equal(t, "Widget A", result.Products[0].Title)
}

func TestCompareProductsRejectsEmptyIDsBeforeNetwork(t *testing.T) {
	var requests int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	})

	_, err := c.CompareProducts(context.Background(), nil, trends.MetricPrice, 30)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestGetCategoryTrendUnknownCategory(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(trends.CategorySeries{
			Category: "no-such-category",
			Field:    "price",
			Days:     30,
			Points:   []trends.CategoryPoint{},
		})
	})

	series, err := c.GetCategoryTrend(context.Background(), "no-such-category", 30)
	require.NoError(t, err)
	assert.Empty(t, series.Points)
}

func TestErrorKindDecoding(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": "product ghost not found",
			"kind":  "not_found",
		})
	})

	_, err := c.GetMetricsSummary(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "product ghost not found", appErr.Message)
}

func TestErrorFieldsDecoding(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  "unknown metric field(s): bogus",
			"kind":   "validation",
			"fields": []string{"bogus"},
		})
	})

	// Bypass client-side validation by requesting the summary of a product the
	// server rejects; the point is the wire decoding.
	_, err := c.GetMetricsSummary(context.Background(), "p1")
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, []string{"bogus"}, appErr.Fields)
}

func TestErrorKindFallsBackToStatus(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Non-JSON body, as an intermediary proxy would emit.
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := c.GetMetricsSummary(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransport, apperrors.KindOf(err))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestRetryTransportRetriesTransientFailures(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(AvailableFields{TotalFields: 12})
	}))
	defer server.Close()

	c := New(Config{
		BaseURL: server.URL,
		HTTPClient: &http.Client{
			Transport: NewRetryTransport(nil, RetryConfig{
				MaxRetries:       3,
				InitialBackoffMs: 1,
				MaxBackoffMs:     10,
			}),
		},
	})

	fields, err := c.ListAvailableFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, fields.TotalFields)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryTransportGivesUp(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(Config{
		BaseURL: server.URL,
		HTTPClient: &http.Client{
			Transport: NewRetryTransport(nil, RetryConfig{
				MaxRetries:       2,
				InitialBackoffMs: 1,
				MaxBackoffMs:     5,
			}),
		},
	})

	_, err := c.ListAvailableFields(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransport, apperrors.KindOf(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "initial attempt plus two retries")
}

func TestRetryTransportDoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "bad", "kind": "validation"})
	}))
	defer server.Close()

	c := New(Config{
		BaseURL: server.URL,
		HTTPClient: &http.Client{
			Transport: NewRetryTransport(nil, DefaultRetryConfig()),
		},
	})

	_, err := c.GetMetricsSummary(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}
