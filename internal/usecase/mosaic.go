package usecase

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"go.ngs.io/modisci/internal/adapter/store"
	"go.ngs.io/modisci/internal/domain"
)

// boundarySegments is the number of segments each grid edge is split into
// before the outline is transformed to geographic coordinates.
const boundarySegments = 16

// BoundaryProjector computes the geographic outline of a grid.
type BoundaryProjector interface {
	BoundaryLatLon(grid domain.Grid, segments int) ([][2]float64, error)
}

// MosaicLoader assembles clumping-index rasters from local tiles.
type MosaicLoader struct {
	boundary BoundaryProjector
	index    store.TileIndex
	tiles    store.TileSource
}

// NewMosaicLoader creates a mosaic loader.
func NewMosaicLoader(boundary BoundaryProjector, index store.TileIndex, tiles store.TileSource) *MosaicLoader {
	return &MosaicLoader{
		boundary: boundary,
		index:    index,
		tiles:    tiles,
	}
}

// LoadClumpingIndex validates resampling and loads the mosaic for grid.
// Tiles are always reprojected with nearest-neighbour resampling; the
// argument only has to name a known method.
func (l *MosaicLoader) LoadClumpingIndex(ctx context.Context, grid domain.Grid, resampling string) (*domain.Raster, error) {
	if _, err := domain.ParseResampling(resampling); err != nil {
		return nil, err
	}
	return l.Load(ctx, grid)
}

// Tiles returns the ids of the tiles intersecting grid, in index order.
func (l *MosaicLoader) Tiles(grid domain.Grid) ([]string, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	boundary, err := l.boundary.BoundaryLatLon(grid, boundarySegments)
	if err != nil {
		return nil, fmt.Errorf("failed to compute grid boundary: %w", err)
	}

	tileIDs, err := l.index.Tiles(boundary)
	if err != nil {
		return nil, fmt.Errorf("failed to find tiles: %w", err)
	}
	return tileIDs, nil
}

// Load returns a float32 raster matching grid. Every tile intersecting the
// grid is warped onto it in index order and merged into the NaN pixels left
// by earlier tiles. Pixels no tile covers stay NaN.
func (l *MosaicLoader) Load(ctx context.Context, grid domain.Grid) (*domain.Raster, error) {
	tileIDs, err := l.Tiles(grid)
	if err != nil {
		return nil, err
	}

	image := domain.NewNaNRaster(grid)
	if len(tileIDs) == 0 {
		log.WithField("grid", grid.String()).Warn("no tiles intersect grid")
		return image, nil
	}

	for _, tileID := range tileIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		tile, err := l.tiles.ReadTile(tileID, grid)
		if err != nil {
			return nil, err
		}
		if err := image.FillGaps(tile); err != nil {
			return nil, fmt.Errorf("failed to merge tile %s: %w", tileID, err)
		}

		log.WithFields(log.Fields{
			"tile":     tileID,
			"elapsed":  time.Since(start).Round(time.Millisecond),
			"nan_left": image.NaNCount(),
		}).Debug("merged tile")
	}

	log.WithFields(log.Fields{
		"tiles": len(tileIDs),
		"grid":  grid.String(),
	}).Info("loaded clumping index mosaic")

	return image, nil
}
