package export

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// WriteShapefile writes records as a point shapefile for GIS consumers.
// Each record becomes one POINT shape (longitude, latitude) with attribute
// fields for taxonomy, elevation, and provenance.
func WriteShapefile(records []model.EnrichedRecord, outputPath string) error {
	w, err := shp.Create(outputPath, shp.POINT)
	if err != nil {
		return eris.Wrap(err, "export: create shapefile")
	}

	fields := []shp.Field{
		shp.StringField("ID", 32),
		shp.StringField("FAMILY", 50),
		shp.StringField("GENUS", 50),
		shp.StringField("SPECIES", 80),
		shp.NumberField("COUNT", 8),
		shp.FloatField("ELEV", 13, 2),
		shp.StringField("DATE", 20),
		shp.NumberField("MONTH", 4),
		shp.NumberField("YEAR", 6),
		shp.StringField("INSTCODE", 20),
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for n, rec := range records {
		w.Write(&shp.Point{X: rec.Longitude, Y: rec.Latitude})

		count := 0
		if rec.IndividualCount != nil {
			count = *rec.IndividualCount
		}
		attrs := []any{
			rec.ID, rec.Family, rec.Genus, rec.Species, count,
			rec.Elevation, rec.EventDate, rec.Month, rec.Year, rec.InstitutionCode,
		}
		for i, v := range attrs {
			if err := w.WriteAttribute(n, i, v); err != nil {
				w.Close()
				return eris.Wrapf(err, "export: write attribute %d of record %d", i, n)
			}
		}
	}

	w.Close()

	// go-shp strips the full ".shp" suffix from the path it was given and
	// appends "dbf" without a dot, so the attribute table lands next to the
	// shapefile under the wrong name. Move it where readers look for it.
	base := strings.TrimSuffix(outputPath, ".shp")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrap(err, "export: place shapefile attribute table")
	}

	return nil
}
