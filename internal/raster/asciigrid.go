package raster

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// defaultNoData is the conventional ESRI ASCII grid sentinel, used when the
// header omits NODATA_value.
const defaultNoData = -9999

// LoadASCIIGrid reads an ESRI ASCII grid (.asc) elevation surface. The
// header carries ncols, nrows, the lower-left origin (xllcorner/yllcorner
// or xllcenter/yllcenter), cellsize, and an optional NODATA_value; the body
// is row-major cell values with the northernmost row first.
func LoadASCIIGrid(path string) (*Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	s := &Surface{nodata: defaultNoData}
	var xCenter, yCenter bool

	// Header: keyword/value pairs until the first bare numeric token.
	var firstValue string
	for {
		tok, ok := next()
		if !ok {
			return nil, eris.Errorf("raster: %s: truncated header", path)
		}
		key := strings.ToLower(tok)

		if _, numErr := strconv.ParseFloat(tok, 64); numErr == nil {
			firstValue = tok
			break
		}

		val, ok := next()
		if !ok {
			return nil, eris.Errorf("raster: %s: header key %s has no value", path, tok)
		}
		if err := applyHeader(s, key, val, &xCenter, &yCenter); err != nil {
			return nil, eris.Wrapf(err, "raster: %s: parse header", path)
		}
	}

	if s.cols <= 0 || s.rows <= 0 {
		return nil, eris.Errorf("raster: %s: missing or invalid ncols/nrows", path)
	}
	if s.cell <= 0 {
		return nil, eris.Errorf("raster: %s: missing or invalid cellsize", path)
	}

	// ESRI writes either corner or center origin; normalize to corner.
	if xCenter {
		s.xll -= s.cell / 2
	}
	if yCenter {
		s.yll -= s.cell / 2
	}

	want := s.cols * s.rows
	s.values = make([]float64, 0, want)

	v, err := strconv.ParseFloat(firstValue, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: %s: parse cell value", path)
	}
	s.values = append(s.values, v)

	for {
		tok, ok := next()
		if !ok {
			break
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "raster: %s: parse cell value %q", path, tok)
		}
		s.values = append(s.values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "raster: read %s", path)
	}

	if len(s.values) != want {
		return nil, eris.Errorf("raster: %s: expected %d cells, found %d", path, want, len(s.values))
	}

	zap.L().Debug("raster loaded",
		zap.String("file", path),
		zap.Int("cols", s.cols),
		zap.Int("rows", s.rows),
		zap.Float64("cellsize", s.cell),
	)

	return s, nil
}

func applyHeader(s *Surface, key, val string, xCenter, yCenter *bool) error {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return eris.Wrapf(err, "value for %s", key)
	}

	switch key {
	case "ncols":
		s.cols = int(f)
	case "nrows":
		s.rows = int(f)
	case "xllcorner":
		s.xll = f
	case "yllcorner":
		s.yll = f
	case "xllcenter":
		s.xll = f
		*xCenter = true
	case "yllcenter":
		s.yll = f
		*yCenter = true
	case "cellsize":
		s.cell = f
	case "nodata_value":
		s.nodata = f
	default:
		return eris.Errorf("unknown header key %q", key)
	}
	return nil
}
