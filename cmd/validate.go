package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/SoleneDerville/occurrence-atlas/internal/loader"
	"github.com/SoleneDerville/occurrence-atlas/internal/raster"
)

var (
	validateCSVPath    string
	validateRasterPath string
	validateDelimiter  string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Preflight an occurrence export without writing anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runValidate(cmd.OutOrStdout(), validateCSVPath, validateRasterPath,
			loaderOptions(validateDelimiter))
	},
}

// runValidate loads the export (and optionally the raster) and reports
// schema health, rejected rows, and raster extent coverage.
func runValidate(out io.Writer, csvPath, rasterPath string, opts loader.Options) error {
	res, err := loader.Load(csvPath, opts)
	if err != nil {
		return eris.Wrap(err, "validate")
	}

	fmt.Fprintf(out, "%s: %d records loaded, %d rows skipped\n",
		csvPath, len(res.Records), res.Skipped)

	if rasterPath == "" {
		return nil
	}

	surface, err := raster.LoadASCIIGrid(rasterPath)
	if err != nil {
		return eris.Wrap(err, "validate raster")
	}

	inside := 0
	for _, rec := range res.Records {
		if surface.Contains(rec.Longitude, rec.Latitude) {
			inside++
		}
	}

	b := surface.Bounds()
	fmt.Fprintf(out, "raster extent: [%.4f, %.4f] x [%.4f, %.4f], %dx%d cells\n",
		b.Min(0), b.Max(0), b.Min(1), b.Max(1), surface.Cols(), surface.Rows())
	fmt.Fprintf(out, "%d of %d records fall inside the raster extent\n",
		inside, len(res.Records))

	return nil
}

func init() {
	validateCmd.Flags().StringVar(&validateCSVPath, "csv", "", "path to occurrence export (required)")
	validateCmd.Flags().StringVar(&validateRasterPath, "raster", "", "optional raster for extent coverage check")
	validateCmd.Flags().StringVar(&validateDelimiter, "delimiter", "", "field delimiter (default from config)")
	_ = validateCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(validateCmd)
}
