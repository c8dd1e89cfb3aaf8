package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/SoleneDerville/occurrence-atlas/internal/store"
	"github.com/SoleneDerville/occurrence-atlas/internal/summary"
)

var (
	summaryRunID string
	summaryBy    string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print grouped elevation statistics for a run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListRecords(ctx, summaryRunID, store.RecordFilter{})
		if err != nil {
			return eris.Wrap(err, "list records")
		}
		if len(records) == 0 {
			return eris.Errorf("run %s has no records", summaryRunID)
		}

		groups, err := summary.Elevation(records, summaryBy)
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), summaryBy, groups)
		return nil
	},
}

func printSummary(out io.Writer, by string, groups []summary.GroupStat) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tn\tmean\tstddev\tmedian\tmin\tmax\n", by)
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			g.Key, g.N, g.Mean, g.StdDev, g.Median, g.Min, g.Max)
	}
	_ = w.Flush()
}

func init() {
	summaryCmd.Flags().StringVar(&summaryRunID, "run", "", "run ID (required)")
	summaryCmd.Flags().StringVar(&summaryBy, "by", "species", "grouping column: species, genus, family, month, year, institution")
	_ = summaryCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(summaryCmd)
}
