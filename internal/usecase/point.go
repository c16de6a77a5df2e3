package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"go.ngs.io/modisci/internal/adapter/interp"
	"go.ngs.io/modisci/internal/domain"
)

// ProductResolution is the pixel size of the global product in degrees.
const ProductResolution = 1.0 / 240

// PointValue is the clumping index sampled at a location.
type PointValue struct {
	Lat    float64  `json:"lat"`
	Lon    float64  `json:"lon"`
	Value  *float64 `json:"value"`
	Source string   `json:"source"`
}

// PointSampler interpolates clumping-index values at single locations.
type PointSampler struct {
	sources Sources
}

// NewPointSampler creates a point sampler over the given sources.
func NewPointSampler(sources Sources) *PointSampler {
	return &PointSampler{sources: sources}
}

// Sample loads the 3x3 block of product pixels around (lat, lon) and
// interpolates bilinearly between the nearest pixel centres. Value is nil
// when a contributing pixel has no data.
func (p *PointSampler) Sample(ctx context.Context, lat, lon float64, source string) (*PointValue, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude %v out of range", domain.ErrInvalidGrid, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: longitude %v out of range", domain.ErrInvalidGrid, lon)
	}

	name, load, err := p.sources.Lookup(source)
	if err != nil {
		return nil, err
	}

	grid, err := PointGrid(lat, lon)
	if err != nil {
		return nil, err
	}
	raster, err := load(ctx, grid, string(domain.ResamplingNearest))
	if err != nil {
		return nil, err
	}

	g2d, err := interp.FromRaster(raster)
	if err != nil {
		return nil, fmt.Errorf("failed to build interpolation grid: %w", err)
	}

	// Points beyond the outermost pixel centres snap to the edge.
	x := clampAxis(lon, g2d.X)
	y := clampAxis(lat, g2d.Y)

	result := &PointValue{Lat: lat, Lon: lon, Source: name}
	v, err := g2d.InterpolateAt(x, y)
	switch {
	case errors.Is(err, interp.ErrNoData):
		log.WithFields(log.Fields{"lat": lat, "lon": lon, "source": name}).Debug("no clumping index at point")
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("failed to interpolate: %w", err)
	}
	result.Value = &v
	return result, nil
}

// PointGrid returns the geographic 3x3 grid of product pixels whose centre
// pixel contains (lat, lon).
func PointGrid(lat, lon float64) (domain.Grid, error) {
	col := clampIndex(int(math.Floor((lon+180)/ProductResolution)), 1, int(360/ProductResolution)-2)
	row := clampIndex(int(math.Floor((90-lat)/ProductResolution)), 1, int(180/ProductResolution)-2)

	minX := -180 + float64(col-1)*ProductResolution
	maxY := 90 - float64(row-1)*ProductResolution
	return domain.NewGridFromBounds(minX, maxY-3*ProductResolution, minX+3*ProductResolution, maxY, 3, 3, "EPSG:4326")
}

func clampIndex(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func clampAxis(v float64, axis []float64) float64 {
	return math.Max(axis[0], math.Min(axis[len(axis)-1], v))
}
