// Package loader reads delimited species-occurrence exports into memory.
package loader

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// ErrSchema reports a required column missing from the input header.
var ErrSchema = eris.New("loader: required column missing")

// Options configures the occurrence loader.
type Options struct {
	Delimiter rune   // field delimiter, default ';'
	Encoding  string // "utf-8" (default) or "latin1"
	ColumnMap string // optional path to a YAML column-alias file
}

// Result holds the loaded records plus per-row rejection counters.
type Result struct {
	Records []model.OccurrenceRecord
	Skipped int // malformed or out-of-range rows rejected at load
}

// occurrenceRow mirrors the canonical GBIF column names for header-keyed
// decoding. Columns not listed here are ignored.
type occurrenceRow struct {
	GbifID           string  `csv:"gbifID"`
	Family           string  `csv:"family"`
	Genus            string  `csv:"genus"`
	Species          string  `csv:"species"`
	IndividualCount  *int    `csv:"individualCount"`
	DecimalLatitude  float64 `csv:"decimalLatitude"`
	DecimalLongitude float64 `csv:"decimalLongitude"`
	EventDate        string  `csv:"eventDate"`
	Month            int     `csv:"month"`
	Year             int     `csv:"year"`
	InstitutionCode  string  `csv:"institutionCode"`
}

// requiredColumns lists the canonical header names that must be present
// after alias resolution.
var requiredColumns = []string{
	"gbifID", "family", "genus", "species", "individualCount",
	"decimalLatitude", "decimalLongitude", "eventDate",
	"month", "year", "institutionCode",
}

// Load reads an occurrence export and returns records in input row order.
// A missing or unreadable file is fatal. A missing required column is fatal
// and reported as ErrSchema. Malformed rows (wrong field count, unparseable
// numerics) and rows with coordinates outside the valid geographic range
// are skipped with a warning and counted in Result.Skipped.
func Load(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	switch strings.ToLower(opts.Encoding) {
	case "", "utf-8", "utf8":
	case "latin1", "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(f)
	default:
		return nil, eris.Errorf("loader: unsupported encoding %q", opts.Encoding)
	}

	aliases, err := loadColumnMap(opts.ColumnMap)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	} else {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1 // row length checked per record below

	rawHeader, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read header of %s", path)
	}
	header := normalizeHeader(rawHeader, aliases)

	if missing := missingColumns(header); len(missing) > 0 {
		return nil, eris.Wrapf(ErrSchema, "loader: %s lacks column(s) %s",
			path, strings.Join(missing, ", "))
	}

	dec, err := csvutil.NewDecoder(reader, header...)
	if err != nil {
		return nil, eris.Wrap(err, "loader: init decoder")
	}

	log := zap.L().With(zap.String("component", "loader"), zap.String("file", path))
	res := &Result{}
	line := 1 // header consumed

	for {
		line++
		var row occurrenceRow
		err := dec.Decode(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Skipped++
			log.Warn("skipping malformed row", zap.Int("line", line), zap.Error(err))
			continue
		}

		if row.DecimalLatitude < -90 || row.DecimalLatitude > 90 ||
			row.DecimalLongitude < -180 || row.DecimalLongitude > 180 {
			res.Skipped++
			log.Warn("skipping row with out-of-range coordinates",
				zap.Int("line", line),
				zap.Float64("latitude", row.DecimalLatitude),
				zap.Float64("longitude", row.DecimalLongitude),
			)
			continue
		}

		res.Records = append(res.Records, model.OccurrenceRecord{
			ID:              row.GbifID,
			Family:          row.Family,
			Genus:           row.Genus,
			Species:         row.Species,
			IndividualCount: row.IndividualCount,
			Latitude:        row.DecimalLatitude,
			Longitude:       row.DecimalLongitude,
			EventDate:       row.EventDate,
			Month:           row.Month,
			Year:            row.Year,
			InstitutionCode: row.InstitutionCode,
		})
	}

	if res.Skipped > 0 {
		log.Info("load complete with skipped rows",
			zap.Int("loaded", len(res.Records)),
			zap.Int("skipped", res.Skipped),
		)
	}

	return res, nil
}

// IsSchemaErr reports whether err stems from a missing required column.
func IsSchemaErr(err error) bool {
	return errors.Is(err, ErrSchema)
}

// normalizeHeader maps raw header tokens to canonical column names. Matching
// is case-insensitive and BOM/whitespace tolerant; aliases resolve first.
func normalizeHeader(raw []string, aliases map[string]string) []string {
	canonical := make(map[string]string, len(requiredColumns))
	for _, name := range requiredColumns {
		canonical[strings.ToLower(name)] = name
	}

	out := make([]string, len(raw))
	for i, tok := range raw {
		tok = strings.TrimSpace(strings.TrimPrefix(tok, "\uFEFF"))
		key := strings.ToLower(tok)
		if name, ok := aliases[key]; ok {
			out[i] = name
			continue
		}
		if name, ok := canonical[key]; ok {
			out[i] = name
			continue
		}
		out[i] = tok
	}
	return out
}

// missingColumns returns required canonical names absent from header.
func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, name := range requiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
