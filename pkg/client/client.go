// Package client is the typed Go client for the metrics API. Every operation
// is a single context-aware round-trip returning the shared error taxonomy;
// validation failures are caught before any network dispatch where feasible.
// Operations never auto-retry; layer RetryTransport underneath when retries
// are wanted.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/registry"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

// Config holds the client configuration. The API key is explicit state, not
// read from the environment, so each client instance can carry its own
// credential.
type Config struct {
	BaseURL string
	APIKey  string

	// HTTPClient overrides the transport. Wrap with NewRetryTransport for
	// automatic retries of transient failures.
	HTTPClient *http.Client
}

// Client talks to the metrics service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a metrics API client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// FieldDescriptor mirrors one discoverable metric field.
type FieldDescriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// AvailableFields is the field discovery response. TotalFields equals the sum
// of the per-category list lengths; the result is stable per deployment and
// safe to cache.
type AvailableFields struct {
	Categories  map[string][]FieldDescriptor `json:"categories"`
	TotalFields int                          `json:"total_fields"`
}

// ListAvailableFields fetches the field registry grouped for discovery.
func (c *Client) ListAvailableFields(ctx context.Context) (*AvailableFields, error) {
	var out AvailableFields
	if err := c.get(ctx, "/metrics/fields/available", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTrends retrieves any combination of metric fields over a time window.
// Unknown fields, an empty field list and out-of-range days are rejected
// before dispatch.
func (c *Client) GetTrends(ctx context.Context, productID string, fields []string, days int) (*trends.TrendResult, error) {
	if productID == "" {
		return nil, apperrors.Validation("product id is required")
	}
	if days == 0 {
		days = trends.DefaultDays
	}
	if days < trends.MinDays || days > trends.MaxDays {
		return nil, apperrors.Validation(
			fmt.Sprintf("days must be between %d and %d, got %d", trends.MinDays, trends.MaxDays, days))
	}
	if err := registry.Validate(fields); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("fields", strings.Join(fields, ","))
	query.Set("days", strconv.Itoa(days))

	var out trends.TrendResult
	if err := c.get(ctx, "/metrics/products/"+url.PathEscape(productID)+"/trends", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPriceTrend is the price bundle: GetTrends over the canonical price
// fields reshaped into typed rows. A pure adapter, never a separate query
// path.
func (c *Client) GetPriceTrend(ctx context.Context, productID string, days int) ([]trends.PricePoint, error) {
	result, err := c.GetTrends(ctx, productID, []string{"price", "buybox_price", "original_price"}, days)
	if err != nil {
		return nil, err
	}
	points := make([]trends.PricePoint, 0, len(result.Data))
	for _, row := range result.Data {
		points = append(points, trends.PricePoint{
			Date:          row.Date(),
			Price:         jsonFloat(row["price"]),
			BuyboxPrice:   jsonFloat(row["buybox_price"]),
			OriginalPrice: jsonFloat(row["original_price"]),
		})
	}
	return points, nil
}

// GetBSRTrend is the best-sellers rank bundle over GetTrends.
func (c *Client) GetBSRTrend(ctx context.Context, productID string, days int) ([]trends.BSRPoint, error) {
	result, err := c.GetTrends(ctx, productID, []string{"bsr_main", "bsr_sub"}, days)
	if err != nil {
		return nil, err
	}
	points := make([]trends.BSRPoint, 0, len(result.Data))
	for _, row := range result.Data {
		points = append(points, trends.BSRPoint{
			Date:    row.Date(),
			BSRMain: jsonInt(row["bsr_main"]),
			BSRSub:  jsonInt(row["bsr_sub"]),
		})
	}
	return points, nil
}

// GetReviewTrend is the review bundle over GetTrends.
func (c *Client) GetReviewTrend(ctx context.Context, productID string, days int) ([]trends.ReviewPoint, error) {
	result, err := c.GetTrends(ctx, productID, []string{"rating", "review_count"}, days)
	if err != nil {
		return nil, err
	}
	points := make([]trends.ReviewPoint, 0, len(result.Data))
	for _, row := range result.Data {
		points = append(points, trends.ReviewPoint{
			Date:        row.Date(),
			Rating:      jsonFloat(row["rating"]),
			ReviewCount: jsonInt(row["review_count"]),
		})
	}
	return points, nil
}

// CompareProducts compares N products on one metric dimension. An empty
// product list is rejected before any network call.
func (c *Client) CompareProducts(ctx context.Context, productIDs []string, metricType trends.MetricType, days int) (*trends.ComparisonResult, error) {
	if len(productIDs) == 0 {
		return nil, apperrors.Validation("product_ids must not be empty")
	}
	body := map[string]any{
		"product_ids": productIDs,
		"metric_type": string(metricType),
		"days":        days,
	}
	var out trends.ComparisonResult
	if err := c.post(ctx, "/metrics/compare", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCategoryTrend fetches the per-day category average. An unknown category
// resolves to an empty series, not an error.
func (c *Client) GetCategoryTrend(ctx context.Context, categoryName string, days int) (*trends.CategorySeries, error) {
	if categoryName == "" {
		return nil, apperrors.Validation("category_name is required")
	}
	body := map[string]any{
		"category_name": categoryName,
		"days":          days,
	}
	var out trends.CategorySeries
	if err := c.post(ctx, "/metrics/category/trend", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMetricsSummary fetches the latest values and trailing-window changes for
// every registry field.
func (c *Client) GetMetricsSummary(ctx context.Context, productID string) (*trends.Summary, error) {
	if productID == "" {
		return nil, apperrors.Validation("product id is required")
	}
	var out trends.Summary
	if err := c.get(ctx, "/metrics/products/"+url.PathEscape(productID)+"/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.Transport("failed to build request", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Transport("failed to encode request body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Transport("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Transport("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Transport("failed to decode response", err)
	}
	return nil
}

// decodeError converts an error response into the shared taxonomy. The
// server's machine-readable kind wins; the status code is the fallback for
// intermediaries that emit non-JSON bodies.
func decodeError(resp *http.Response) error {
	var body struct {
		Error  string   `json:"error"`
		Kind   string   `json:"kind"`
		Fields []string `json:"fields"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(raw, &body) == nil && body.Kind != "" {
		return &apperrors.Error{
			Kind:    apperrors.Kind(body.Kind),
			Message: body.Error,
			Fields:  body.Fields,
		}
	}
	return &apperrors.Error{
		Kind:    apperrors.KindFromStatus(resp.StatusCode),
		Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
	}
}

// jsonFloat coerces a decoded JSON value to a float pointer (JSON numbers
// decode as float64).
func jsonFloat(v any) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

// jsonInt coerces a decoded JSON number to an int pointer, rounding the same
// way the server-side bundle reshape does.
func jsonInt(v any) *int {
	if f, ok := v.(float64); ok {
		n := int(math.Round(f))
		return &n
	}
	return nil
}
