package domain

import (
	"fmt"
	"math"
)

// Grid is the target raster geometry: pixel shape, affine transform and CRS.
// GeoTransform follows the GDAL convention:
//
//	x = gt[0] + col*gt[1] + row*gt[2]
//	y = gt[3] + col*gt[4] + row*gt[5]
//
// Only north-up grids (gt[2] == gt[4] == 0) are supported.
type Grid struct {
	Width        int
	Height       int
	GeoTransform [6]float64
	CRS          string // Anything GDAL accepts as user input (e.g., "EPSG:4326", WKT, PROJ).
}

// NewGridFromBounds creates a north-up grid covering [minX, maxX] x [minY, maxY].
func NewGridFromBounds(minX, minY, maxX, maxY float64, width, height int, crs string) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("%w: size must be positive, got %dx%d", ErrInvalidGrid, width, height)
	}
	if maxX <= minX || maxY <= minY {
		return Grid{}, fmt.Errorf("%w: empty bounds [%g, %g, %g, %g]", ErrInvalidGrid, minX, minY, maxX, maxY)
	}
	g := Grid{
		Width:  width,
		Height: height,
		GeoTransform: [6]float64{
			minX, (maxX - minX) / float64(width), 0,
			maxY, 0, -(maxY - minY) / float64(height),
		},
		CRS: crs,
	}
	return g, g.Validate()
}

// Validate checks that the grid can be used as a warp target.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: size must be positive, got %dx%d", ErrInvalidGrid, g.Width, g.Height)
	}
	if g.CRS == "" {
		return fmt.Errorf("%w: missing CRS", ErrInvalidGrid)
	}
	gt := g.GeoTransform
	if gt[2] != 0 || gt[4] != 0 {
		return fmt.Errorf("%w: rotated geotransforms are not supported", ErrInvalidGrid)
	}
	if gt[1] == 0 || gt[5] == 0 {
		return fmt.Errorf("%w: zero pixel size", ErrInvalidGrid)
	}
	for _, v := range gt {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite geotransform", ErrInvalidGrid)
		}
	}
	return nil
}

// Shape returns (rows, cols).
func (g Grid) Shape() (int, int) {
	return g.Height, g.Width
}

// Size returns the number of pixels.
func (g Grid) Size() int {
	return g.Width * g.Height
}

// Bounds returns the outer edges of the grid as (minX, minY, maxX, maxY).
func (g Grid) Bounds() (float64, float64, float64, float64) {
	gt := g.GeoTransform
	x0 := gt[0]
	x1 := gt[0] + float64(g.Width)*gt[1]
	y0 := gt[3]
	y1 := gt[3] + float64(g.Height)*gt[5]
	return math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)
}

// PixelCenter returns the map coordinates of the centre of pixel (row, col).
func (g Grid) PixelCenter(row, col int) (float64, float64) {
	gt := g.GeoTransform
	x := gt[0] + (float64(col)+0.5)*gt[1]
	y := gt[3] + (float64(row)+0.5)*gt[5]
	return x, y
}

// BoundaryRing returns the grid outline as a closed ring in grid CRS
// coordinates, with each edge split into segments so that it keeps its shape
// once transformed into another CRS.
func (g Grid) BoundaryRing(segments int) [][2]float64 {
	if segments < 1 {
		segments = 1
	}
	minX, minY, maxX, maxY := g.Bounds()
	corners := [][2]float64{{minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY}}

	ring := make([][2]float64, 0, 4*segments+1)
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		for s := 0; s < segments; s++ {
			f := float64(s) / float64(segments)
			ring = append(ring, [2]float64{a[0] + f*(b[0]-a[0]), a[1] + f*(b[1]-a[1])})
		}
	}
	return append(ring, ring[0])
}

func (g Grid) String() string {
	minX, minY, maxX, maxY := g.Bounds()
	return fmt.Sprintf("%dx%d [%g %g %g %g] %s", g.Width, g.Height, minX, minY, maxX, maxY, g.CRS)
}
