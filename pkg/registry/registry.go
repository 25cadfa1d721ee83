// Package registry declares the closed set of metric fields the trend engine
// can serve. The registry is the single source of truth for field discovery
// (GET /metrics/fields/available), request validation, and the mapping from
// field names to snapshot columns. Entries are immutable after process start.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
)

// FieldType describes the value domain of a metric field.
type FieldType string

const (
	TypeNumeric FieldType = "numeric"
	TypeBoolean FieldType = "boolean"
	TypeString  FieldType = "string"
	TypeEnum    FieldType = "enum"
)

// Field is one registry entry: a named, typed, categorized measurable
// attribute of a product snapshot.
type Field struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Type        FieldType `json:"type"`
	Category    string    `json:"category"`

	// Column is the product_snapshots column backing this field.
	// Not serialized; clients only see the logical name.
	Column string `json:"-"`
}

// Category ordering for the discovery endpoint. Map iteration order is not
// stable, so the registry keeps an explicit list.
var categoryOrder = []string{"pricing", "ranking", "reviews", "availability", "offers"}

var fields = []Field{
	{Name: "price", DisplayName: "Price", Description: "Listed price in USD", Type: TypeNumeric, Category: "pricing", Column: "price"},
	{Name: "buybox_price", DisplayName: "Buy Box Price", Description: "Price of the current buy box offer", Type: TypeNumeric, Category: "pricing", Column: "buybox_price"},
	{Name: "original_price", DisplayName: "Original Price", Description: "List price before discounts", Type: TypeNumeric, Category: "pricing", Column: "original_price"},
	{Name: "coupon_discount", DisplayName: "Coupon Discount", Description: "Active coupon discount in USD", Type: TypeNumeric, Category: "pricing", Column: "coupon_discount"},
	{Name: "bsr_main", DisplayName: "BSR (Main Category)", Description: "Best-sellers rank in the main category, lower is better", Type: TypeNumeric, Category: "ranking", Column: "bsr_main"},
	{Name: "bsr_sub", DisplayName: "BSR (Subcategory)", Description: "Best-sellers rank in the subcategory, lower is better", Type: TypeNumeric, Category: "ranking", Column: "bsr_sub"},
	{Name: "rating", DisplayName: "Rating", Description: "Average star rating, 1.0 to 5.0", Type: TypeNumeric, Category: "reviews", Column: "rating"},
	{Name: "review_count", DisplayName: "Review Count", Description: "Total number of customer reviews", Type: TypeNumeric, Category: "reviews", Column: "review_count"},
	{Name: "in_stock", DisplayName: "In Stock", Description: "Whether the product was purchasable", Type: TypeBoolean, Category: "availability", Column: "in_stock"},
	{Name: "stock_level", DisplayName: "Stock Level", Description: "Reported units remaining, when Amazon exposes it", Type: TypeNumeric, Category: "availability", Column: "stock_level"},
	{Name: "seller_count", DisplayName: "Seller Count", Description: "Number of offers on the listing", Type: TypeNumeric, Category: "offers", Column: "seller_count"},
	{Name: "buybox_seller", DisplayName: "Buy Box Seller", Description: "Merchant holding the buy box", Type: TypeString, Category: "offers", Column: "buybox_seller"},
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the registry entry for a field name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// All returns every registry entry in declaration order.
func All() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Count returns the number of registered fields.
func Count() int { return len(fields) }

// Categories returns fields grouped by category, in the registry's canonical
// category and field order. Only non-empty categories appear.
func Categories() ([]string, map[string][]Field) {
	grouped := make(map[string][]Field)
	for _, f := range fields {
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	names := make([]string, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		if len(grouped[c]) > 0 {
			names = append(names, c)
		}
	}
	return names, grouped
}

// Validate checks that every requested name exists in the registry. Unknown
// names are a validation error identifying each offender; they are never
// silently dropped, since truncating the request would corrupt downstream
// charts.
func Validate(names []string) error {
	if len(names) == 0 {
		return apperrors.Validation("at least one field is required")
	}
	var unknown []string
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return apperrors.Validation(
			fmt.Sprintf("unknown metric field(s): %s", strings.Join(unknown, ", ")),
			unknown...,
		)
	}
	return nil
}

// Columns resolves field names to their backing columns. Callers must
// Validate first; unknown names are skipped here.
func Columns(names []string) []string {
	cols := make([]string, 0, len(names))
	for _, n := range names {
		if f, ok := byName[n]; ok {
			cols = append(cols, f.Column)
		}
	}
	return cols
}
