// Package raster provides a gridded elevation surface with O(1) nearest-cell
// sampling by geographic coordinate.
package raster

import "github.com/twpayne/go-geom"

// Surface is a rectangular grid of elevation samples addressed through an
// affine transform (origin + square cell size, no rotation). It is immutable
// after load and safe for concurrent sampling.
type Surface struct {
	cols, rows int
	xll, yll   float64 // lower-left corner of the extent
	cell       float64 // cell size in degrees
	nodata     float64
	values     []float64 // row-major, northernmost row first
}

// Cols returns the grid width in cells.
func (s *Surface) Cols() int { return s.cols }

// Rows returns the grid height in cells.
func (s *Surface) Rows() int { return s.rows }

// CellSize returns the cell size in degrees.
func (s *Surface) CellSize() float64 { return s.cell }

// NoData returns the sentinel marking cells with no valid sample.
func (s *Surface) NoData() float64 { return s.nodata }

// Bounds returns the geographic extent of the surface.
func (s *Surface) Bounds() *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	b.Set(s.xll, s.yll, s.xll+float64(s.cols)*s.cell, s.yll+float64(s.rows)*s.cell)
	return b
}

// Contains reports whether the position falls inside the surface extent.
// The extent is half-open on both axes: a point on the minimum edge is
// inside, a point on the maximum edge is not.
func (s *Surface) Contains(lng, lat float64) bool {
	return lng >= s.xll && lng < s.xll+float64(s.cols)*s.cell &&
		lat >= s.yll && lat < s.yll+float64(s.rows)*s.cell
}

// Sample returns the elevation stored in the cell containing (lng, lat).
// The second return value is false when the position is outside the extent
// or the cell holds the no-data sentinel; this is a normal outcome, not an
// error. Lookup is a direct grid index computation, no scanning.
//
// Cell boundaries resolve by floor semantics on both axes: a coordinate
// exactly on an interior boundary belongs to the cell for which it is the
// minimum edge (the cell to the east, respectively north, of the boundary).
func (s *Surface) Sample(lng, lat float64) (float64, bool) {
	if !s.Contains(lng, lat) {
		return 0, false
	}
	// Contains and the index division round independently, so a coordinate
	// a few ULPs short of the max edge could compute one cell past the grid.
	col := int((lng - s.xll) / s.cell)
	if col >= s.cols {
		col = s.cols - 1
	}
	rowFromSouth := int((lat - s.yll) / s.cell)
	if rowFromSouth >= s.rows {
		rowFromSouth = s.rows - 1
	}
	row := s.rows - 1 - rowFromSouth

	v := s.values[row*s.cols+col]
	if v == s.nodata {
		return 0, false
	}
	return v, true
}
