package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skuwatch/metrics-service/pkg/registry"
)

var fieldsOutput string

// fieldsCmd represents the fields command
var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the metric field registry",
	Long: `List every metric field the trend engine can serve, grouped by category.
The same registry backs the /metrics/fields/available endpoint, so this is
what UI field pickers see.`,
	Example: `  metrics-service fields
  metrics-service fields --output json`,
	RunE: runFields,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)

	fieldsCmd.Flags().StringVar(&fieldsOutput, "output", "table", "Output format: table or json")
}

func runFields(cmd *cobra.Command, args []string) error {
	categories, grouped := registry.Categories()

	if fieldsOutput == "json" {
		out := make(map[string][]registry.Field, len(categories))
		for _, c := range categories {
			out[c] = grouped[c]
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tFIELD\tTYPE\tDISPLAY NAME")
	for _, c := range categories {
		for _, f := range grouped[c] {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c, f.Name, f.Type, f.DisplayName)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d fields in %d categories\n", registry.Count(), len(categories))
	return nil
}
