package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skuwatch/metrics-service/internal/database"
	"github.com/skuwatch/metrics-service/pkg/format"
	"github.com/skuwatch/metrics-service/pkg/registry"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

var (
	trendsFields string
	trendsDays   int
	trendsOutput string
)

// trendsCmd represents the trends command
var trendsCmd = &cobra.Command{
	Use:   "trends <product-id>",
	Short: "Query a trend series for a tracked product",
	Long: `Query any combination of metric fields over a time window for one product,
straight against the database. Days without a snapshot are omitted; missing
field values print as "N/A".`,
	Example: `  metrics-service trends 4f9d1c --fields price,bsr_main
  metrics-service trends 4f9d1c --fields price,buybox_price --days 90 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)

	trendsCmd.Flags().StringVar(&trendsFields, "fields", "price", "Comma-joined metric field names")
	trendsCmd.Flags().IntVar(&trendsDays, "days", 30, "Time window in days (1-365)")
	trendsCmd.Flags().StringVar(&trendsOutput, "output", "table", "Output format: table or json")
}

func runTrends(cmd *cobra.Command, args []string) error {
	productID := args[0]

	fields := []string{}
	for _, f := range strings.Split(trendsFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}

	engine := trends.NewEngine(
		database.NewSnapshotStore(database.Pool()),
		trends.EngineConfig{CacheTTL: 0},
	)

	result, err := engine.Trends(cmd.Context(), trends.TrendQuery{
		ProductID: productID,
		Fields:    fields,
		Days:      trendsDays,
	})
	if err != nil {
		return err
	}

	if trendsOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := append([]string{"DATE"}, fields...)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(header, "\t")))
	for _, point := range result.Data {
		row := []string{point.Date()}
		for _, f := range fields {
			row = append(row, renderValue(f, point[f]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d points over %d days\n", result.TotalPoints, result.Days)
	return nil
}

// renderValue formats one table cell by the field's presentation: currency
// for pricing fields, rank for BSR, stars for rating.
func renderValue(field string, v any) string {
	f, _ := registry.Lookup(field)
	switch {
	case f.Category == "pricing":
		return format.Currency(cellFloat(v))
	case field == "bsr_main" || field == "bsr_sub":
		n := cellFloat(v)
		if n == nil {
			return format.NotAvailable
		}
		rank := int(*n)
		return format.BSR(&rank)
	case field == "rating":
		return format.Rating(cellFloat(v))
	case v == nil:
		return format.NotAvailable
	default:
		return fmt.Sprintf("%v", v)
	}
}

func cellFloat(v any) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}
