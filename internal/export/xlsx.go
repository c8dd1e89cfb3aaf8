package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// WriteXLSX writes records to a single-sheet workbook with a header row.
func WriteXLSX(records []model.EnrichedRecord, outputPath string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("occurrences")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		for _, field := range buildRow(rec) {
			row.AddCell().SetString(field)
		}
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}
