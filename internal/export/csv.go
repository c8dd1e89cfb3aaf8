// Package export writes enriched occurrence records in formats consumable
// by downstream plotting and GIS tools.
package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// Columns is the ordered output header shared by the CSV and XLSX exporters.
var Columns = []string{
	"id",
	"family",
	"genus",
	"species",
	"individual_count",
	"latitude",
	"longitude",
	"elevation",
	"event_date",
	"month",
	"year",
	"institution_code",
}

// WriteCSV writes records as a comma-separated file with a header row.
func WriteCSV(records []model.EnrichedRecord, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	for _, rec := range records {
		if err := w.Write(buildRow(rec)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "export: flush csv")
}

// buildRow maps an EnrichedRecord to the shared column order.
func buildRow(rec model.EnrichedRecord) []string {
	count := ""
	if rec.IndividualCount != nil {
		count = strconv.Itoa(*rec.IndividualCount)
	}
	return []string{
		rec.ID,
		rec.Family,
		rec.Genus,
		rec.Species,
		count,
		strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
		strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
		strconv.FormatFloat(rec.Elevation, 'f', -1, 64),
		rec.EventDate,
		strconv.Itoa(rec.Month),
		strconv.Itoa(rec.Year),
		rec.InstitutionCode,
	}
}
