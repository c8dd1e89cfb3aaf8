package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SoleneDerville/occurrence-atlas/internal/enrich"
)

var (
	enrichCSVPath    string
	enrichRasterPath string
	enrichDelimiter  string
	enrichWorkers    int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run the full enrichment pipeline for one occurrence export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		workers := enrichWorkers
		if workers == 0 {
			workers = cfg.Enrich.Workers
		}

		p := enrich.New(st, enrich.Options{
			Loader:  loaderOptions(enrichDelimiter),
			Workers: workers,
		})

		result, err := p.Run(ctx, enrichCSVPath, enrichRasterPath)
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		zap.L().Info("enrichment complete",
			zap.String("run_id", result.Run.ID),
			zap.Int("loaded", result.Stats.Loaded),
			zap.Int("skipped", result.Stats.Skipped),
			zap.Int("dropped", result.Stats.Dropped),
			zap.Int("clamped", result.Stats.Clamped),
			zap.Int("kept", result.Stats.Kept),
		)

		cmd.Printf("run %s: %d records kept (%d dropped, %d clamped)\n",
			result.Run.ID, result.Stats.Kept, result.Stats.Dropped, result.Stats.Clamped)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichCSVPath, "csv", "", "path to occurrence export (required)")
	enrichCmd.Flags().StringVar(&enrichRasterPath, "raster", "", "path to ASCII grid elevation raster (required)")
	enrichCmd.Flags().StringVar(&enrichDelimiter, "delimiter", "", "field delimiter (default from config)")
	enrichCmd.Flags().IntVar(&enrichWorkers, "workers", 0, "sampling workers (default from config)")
	_ = enrichCmd.MarkFlagRequired("csv")
	_ = enrichCmd.MarkFlagRequired("raster")
	rootCmd.AddCommand(enrichCmd)
}
