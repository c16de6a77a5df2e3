package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.ngs.io/modisci/internal/domain"
)

// ErrNoData is returned when a corner contributing to the result has no value.
var ErrNoData = errors.New("no data at interpolation point")

// GridCell holds four neighbouring pixel centres and their samples.
// V00 is at (X0, Y0), V10 at (X1, Y0), V01 at (X0, Y1) and V11 at (X1, Y1).
type GridCell struct {
	X0, X1             float64
	Y0, Y1             float64
	V00, V10, V01, V11 float64
}

// BilinearInterpolate weights the cell corners by their distance to (x, y).
// A NaN corner is ignored when its weight is zero and yields ErrNoData
// otherwise, so a point on a pixel-centre line only needs the two samples on
// that line.
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	if cell.X1 <= cell.X0 || cell.Y1 <= cell.Y0 {
		return 0, fmt.Errorf("degenerate cell [%g, %g] x [%g, %g]", cell.X0, cell.X1, cell.Y0, cell.Y1)
	}

	const epsilon = 1e-9
	if x < cell.X0-epsilon || x > cell.X1+epsilon {
		return 0, fmt.Errorf("x %.6f outside cell [%.6f, %.6f]", x, cell.X0, cell.X1)
	}
	if y < cell.Y0-epsilon || y > cell.Y1+epsilon {
		return 0, fmt.Errorf("y %.6f outside cell [%.6f, %.6f]", y, cell.Y0, cell.Y1)
	}

	t := math.Max(0, math.Min(1, (x-cell.X0)/(cell.X1-cell.X0)))
	u := math.Max(0, math.Min(1, (y-cell.Y0)/(cell.Y1-cell.Y0)))

	weights := [4]float64{(1 - t) * (1 - u), t * (1 - u), (1 - t) * u, t * u}
	values := [4]float64{cell.V00, cell.V10, cell.V01, cell.V11}

	var result float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		if math.IsNaN(values[i]) {
			return 0, ErrNoData
		}
		result += w * values[i]
	}
	return result, nil
}

// Grid2D is a block of raster samples on increasing pixel-centre axes.
// Values[i][j] is the sample at (X[j], Y[i]).
type Grid2D struct {
	X      []float64
	Y      []float64
	Values [][]float64
}

// FromRaster builds a grid from raster pixel centres. Rows are reordered so
// that Y increases.
func FromRaster(r *domain.Raster) (*Grid2D, error) {
	g := r.Grid
	if g.GeoTransform[1] <= 0 {
		return nil, fmt.Errorf("raster columns must run west to east")
	}

	xs := make([]float64, g.Width)
	for j := range xs {
		xs[j], _ = g.PixelCenter(0, j)
	}

	rows := r.Rows()
	ys := make([]float64, g.Height)
	values := make([][]float64, g.Height)
	for i := range rows {
		k := i
		if g.GeoTransform[5] < 0 {
			k = g.Height - 1 - i
		}
		_, ys[k] = g.PixelCenter(i, 0)
		values[k] = rows[i]
	}

	grid := &Grid2D{X: xs, Y: ys, Values: values}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return grid, nil
}

// Validate checks that the axes are strictly increasing and match Values.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 || len(g.Y) < 2 {
		return fmt.Errorf("need at least 2x2 samples, got %dx%d", len(g.X), len(g.Y))
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("%d rows for %d y coordinates", len(g.Values), len(g.Y))
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("row %d: %d samples for %d x coordinates", i, len(row), len(g.X))
		}
	}
	if !increasing(g.X) {
		return fmt.Errorf("x axis is not strictly increasing")
	}
	if !increasing(g.Y) {
		return fmt.Errorf("y axis is not strictly increasing")
	}
	return nil
}

func increasing(axis []float64) bool {
	for i := 1; i < len(axis); i++ {
		if axis[i] <= axis[i-1] {
			return false
		}
	}
	return true
}

// InterpolateAt interpolates between the four pixel centres surrounding (x, y).
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("invalid grid: %w", err)
	}

	xIdx, ok := cellIndex(g.X, x)
	if !ok {
		return 0, fmt.Errorf("x %.6f outside [%.6f, %.6f]", x, g.X[0], g.X[len(g.X)-1])
	}
	yIdx, ok := cellIndex(g.Y, y)
	if !ok {
		return 0, fmt.Errorf("y %.6f outside [%.6f, %.6f]", y, g.Y[0], g.Y[len(g.Y)-1])
	}

	cell := GridCell{
		X0:  g.X[xIdx],
		X1:  g.X[xIdx+1],
		Y0:  g.Y[yIdx],
		Y1:  g.Y[yIdx+1],
		V00: g.Values[yIdx][xIdx],
		V10: g.Values[yIdx][xIdx+1],
		V01: g.Values[yIdx+1][xIdx],
		V11: g.Values[yIdx+1][xIdx+1],
	}

	return BilinearInterpolate(cell, x, y)
}

// cellIndex returns i such that axis[i] <= v <= axis[i+1].
func cellIndex(axis []float64, v float64) (int, bool) {
	if v < axis[0] || v > axis[len(axis)-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(axis, v)
	if i > 0 {
		i--
	}
	if i > len(axis)-2 {
		i = len(axis) - 2
	}
	return i, true
}
