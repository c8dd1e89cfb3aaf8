package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elevation.asc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const smallGrid = `ncols 3
nrows 2
xllcorner 165.0
yllcorner -22.0
cellsize 0.5
NODATA_value -9999
10 20 30
40 -9999 60
`

func TestLoadASCIIGrid_Basic(t *testing.T) {
	s, err := LoadASCIIGrid(writeGrid(t, smallGrid))
	require.NoError(t, err)

	assert.Equal(t, 3, s.Cols())
	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, 0.5, s.CellSize())
	assert.Equal(t, float64(-9999), s.NoData())

	b := s.Bounds()
	assert.Equal(t, 165.0, b.Min(0))
	assert.Equal(t, 166.5, b.Max(0))
	assert.Equal(t, -22.0, b.Min(1))
	assert.Equal(t, -21.0, b.Max(1))
}

func TestLoadASCIIGrid_CenterOrigin(t *testing.T) {
	s, err := LoadASCIIGrid(writeGrid(t, `ncols 2
nrows 2
xllcenter 10.25
yllcenter 20.25
cellsize 0.5
1 2
3 4
`))
	require.NoError(t, err)

	b := s.Bounds()
	assert.InDelta(t, 10.0, b.Min(0), 1e-9)
	assert.InDelta(t, 20.0, b.Min(1), 1e-9)
}

func TestLoadASCIIGrid_DefaultNoData(t *testing.T) {
	s, err := LoadASCIIGrid(writeGrid(t, "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n5\n"))
	require.NoError(t, err)
	assert.Equal(t, float64(-9999), s.NoData())
}

func TestLoadASCIIGrid_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing file", ""},
		{"truncated header", "ncols 3\nnrows"},
		{"missing dimensions", "xllcorner 0\nyllcorner 0\ncellsize 1\n5\n"},
		{"missing cellsize", "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\n5\n"},
		{"unknown header key", "ncols 1\nnrows 1\nbogus 3\nxllcorner 0\nyllcorner 0\ncellsize 1\n5\n"},
		{"wrong cell count", smallGrid + "999\n"},
		{"bad cell value", "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n5 oops\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			if tt.content == "" {
				path = filepath.Join(t.TempDir(), "missing.asc")
			} else {
				path = writeGrid(t, tt.content)
			}
			_, err := LoadASCIIGrid(path)
			assert.Error(t, err)
		})
	}
}
