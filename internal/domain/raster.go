package domain

import (
	"fmt"
	"math"
)

// Raster is a single-band float32 array bound to a Grid.
// Data is stored row-major: Data[row*Width+col].
type Raster struct {
	Grid Grid
	Data []float32
}

// NewFilledRaster allocates a raster for grid with every sample set to v.
func NewFilledRaster(grid Grid, v float32) *Raster {
	data := make([]float32, grid.Size())
	for i := range data {
		data[i] = v
	}
	return &Raster{Grid: grid, Data: data}
}

// NewNaNRaster allocates an all-NaN raster for grid.
func NewNaNRaster(grid Grid) *Raster {
	return NewFilledRaster(grid, float32(math.NaN()))
}

// At returns the sample at (row, col).
func (r *Raster) At(row, col int) float32 {
	return r.Data[row*r.Grid.Width+col]
}

// Set stores v at (row, col).
func (r *Raster) Set(row, col int, v float32) {
	r.Data[row*r.Grid.Width+col] = v
}

// ReplaceValue replaces every sample equal to old with v, in place.
func (r *Raster) ReplaceValue(old, v float32) {
	for i, s := range r.Data {
		if s == old {
			r.Data[i] = v
		}
	}
}

// Divide divides every sample by d, in place. NaN stays NaN.
func (r *Raster) Divide(d float32) {
	for i := range r.Data {
		r.Data[i] /= d
	}
}

// FillGaps copies src samples into r wherever r is NaN. Samples of r that
// already hold a value are never overwritten, so the first raster merged into
// a pixel wins.
func (r *Raster) FillGaps(src *Raster) error {
	if len(src.Data) != len(r.Data) || src.Grid.Width != r.Grid.Width {
		return fmt.Errorf("%w: cannot merge %dx%d into %dx%d", ErrInvalidGrid,
			src.Grid.Width, src.Grid.Height, r.Grid.Width, r.Grid.Height)
	}
	for i, v := range r.Data {
		if isNaN32(v) {
			r.Data[i] = src.Data[i]
		}
	}
	return nil
}

// NaNCount returns the number of NaN samples.
func (r *Raster) NaNCount() int {
	n := 0
	for _, v := range r.Data {
		if isNaN32(v) {
			n++
		}
	}
	return n
}

// Rows returns the samples as float64 rows, top row first.
func (r *Raster) Rows() [][]float64 {
	rows := make([][]float64, r.Grid.Height)
	for i := range rows {
		row := make([]float64, r.Grid.Width)
		for j := range row {
			row[j] = float64(r.At(i, j))
		}
		rows[i] = row
	}
	return rows
}

func isNaN32(v float32) bool {
	return v != v
}
