package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SoleneDerville/occurrence-atlas/internal/export"
	"github.com/SoleneDerville/occurrence-atlas/internal/model"
	"github.com/SoleneDerville/occurrence-atlas/internal/store"
)

var (
	exportRunID  string
	exportFormat string
	exportPath   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run's enriched records to csv, xlsx, or shp",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, exportRunID)
		if err != nil {
			return eris.Wrap(err, "get run")
		}
		if run == nil {
			return eris.Errorf("run %s not found", exportRunID)
		}

		records, err := st.ListRecords(ctx, exportRunID, store.RecordFilter{})
		if err != nil {
			return eris.Wrap(err, "list records")
		}

		if err := writeExport(records, exportFormat, exportPath); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("run_id", exportRunID),
			zap.String("format", exportFormat),
			zap.String("out", exportPath),
			zap.Int("records", len(records)),
		)
		return nil
	},
}

func writeExport(records []model.EnrichedRecord, format, path string) error {
	switch format {
	case "csv":
		return export.WriteCSV(records, path)
	case "xlsx":
		return export.WriteXLSX(records, path)
	case "shp":
		return export.WriteShapefile(records, path)
	default:
		return eris.Errorf("unknown export format %q (want csv, xlsx, or shp)", format)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv, xlsx, shp")
	exportCmd.Flags().StringVar(&exportPath, "out", "", "output path (required)")
	_ = exportCmd.MarkFlagRequired("run")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
