// Package gdal reads, reprojects and writes rasters through GDAL.
package gdal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	"go.ngs.io/modisci/internal/domain"
)

var registerOnce sync.Once

// Register makes GDAL's drivers available. It is safe to call more than once.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// WarpOptions controls how a source raster is resampled onto a target grid.
type WarpOptions struct {
	Resampling domain.Resampling

	// SrcNoData overrides the source no-data value when set.
	SrcNoData *float64

	// DstNoData initialises the destination and marks pixels without a source value.
	DstNoData float64
}

// Reader opens raster files and warps them onto target grids.
type Reader struct{}

// NewReader creates a GDAL-backed reader.
func NewReader() *Reader {
	Register()
	return &Reader{}
}

// ReadOnto opens path and warps its first band onto grid as float32.
// Crop, reprojection and resampling happen in a single GDAL warp.
func (r *Reader) ReadOnto(path string, grid domain.Grid, opts WarpOptions) (*domain.Raster, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer func() { _ = ds.Close() }()

	warped, err := ds.Warp("", warpSwitches(grid, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to warp %s onto %s: %w", path, grid, err)
	}
	defer func() { _ = warped.Close() }()

	bands := warped.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster %s has no bands", path)
	}

	data := make([]float32, grid.Size())
	if err := bands[0].Read(0, 0, data, grid.Width, grid.Height); err != nil {
		return nil, fmt.Errorf("failed to read warped band: %w", err)
	}

	return &domain.Raster{Grid: grid, Data: data}, nil
}

// warpSwitches builds gdalwarp arguments targeting grid exactly.
func warpSwitches(grid domain.Grid, opts WarpOptions) []string {
	minX, minY, maxX, maxY := grid.Bounds()
	resampling := opts.Resampling
	if resampling == "" {
		resampling = domain.ResamplingNearest
	}

	switches := []string{
		"-of", "MEM",
		"-t_srs", grid.CRS,
		"-te", formatFloat(minX), formatFloat(minY), formatFloat(maxX), formatFloat(maxY),
		"-ts", strconv.Itoa(grid.Width), strconv.Itoa(grid.Height),
		"-r", resampling.GDALName(),
		"-ot", "Float32",
	}
	if opts.SrcNoData != nil {
		switches = append(switches, "-srcnodata", formatFloat(*opts.SrcNoData))
	}
	return append(switches, "-dstnodata", formatFloat(opts.DstNoData))
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// BoundaryLatLon returns the outline of grid as longitude/latitude vertices.
func (r *Reader) BoundaryLatLon(grid domain.Grid, segments int) ([][2]float64, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	src, err := SpatialRef(grid.CRS)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return nil, fmt.Errorf("failed to create EPSG:4326 spatial reference: %w", err)
	}
	defer dst.Close()

	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create transform from %s: %w", grid.CRS, err)
	}
	defer trn.Close()

	ring := grid.BoundaryRing(segments)
	xs := make([]float64, len(ring))
	ys := make([]float64, len(ring))
	for i, p := range ring {
		xs[i], ys[i] = p[0], p[1]
	}
	ok := make([]bool, len(ring))
	if err := trn.TransformEx(xs, ys, nil, ok); err != nil {
		return nil, fmt.Errorf("failed to transform grid boundary: %w", err)
	}

	out := make([][2]float64, 0, len(ring))
	for i := range ring {
		if ok[i] {
			out = append(out, [2]float64{xs[i], ys[i]})
		}
	}
	if len(out) < 3 {
		return nil, fmt.Errorf("grid boundary could not be transformed to geographic coordinates")
	}
	return out, nil
}

// SpatialRef builds a GDAL spatial reference from an EPSG code, PROJ string or WKT.
func SpatialRef(crs string) (*godal.SpatialRef, error) {
	crs = strings.TrimSpace(crs)
	var (
		sr  *godal.SpatialRef
		err error
	)
	switch {
	case strings.HasPrefix(strings.ToUpper(crs), "EPSG:"):
		code, convErr := strconv.Atoi(crs[len("EPSG:"):])
		if convErr != nil {
			return nil, fmt.Errorf("invalid EPSG code in %q: %w", crs, convErr)
		}
		sr, err = godal.NewSpatialRefFromEPSG(code)
	case strings.HasPrefix(crs, "+"):
		sr, err = godal.NewSpatialRefFromProj4(crs)
	default:
		sr, err = godal.NewSpatialRefFromWKT(crs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CRS %q: %w", crs, err)
	}
	return sr, nil
}

// DescribeCRS reports whether crs is geographic and returns its WKT.
func DescribeCRS(crs string) (bool, string, error) {
	sr, err := SpatialRef(crs)
	if err != nil {
		return false, "", err
	}
	defer sr.Close()

	wkt, err := sr.WKT()
	if err != nil {
		return false, "", fmt.Errorf("failed to export %q as WKT: %w", crs, err)
	}
	return sr.Geographic(), wkt, nil
}
