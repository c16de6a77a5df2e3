package store

import "go.ngs.io/modisci/internal/domain"

// TileSource resolves tile ids to rasters warped onto a target grid.
type TileSource interface {
	// ReadTile loads a tile and reprojects it onto grid.
	// Pixels without tile data are NaN.
	ReadTile(tileID string, grid domain.Grid) (*domain.Raster, error)
}

// TileIndex lists tiles whose footprint intersects a geographic boundary.
type TileIndex interface {
	// Tiles returns tile ids for a longitude/latitude ring, in priority order.
	Tiles(boundary [][2]float64) ([]string, error)
}
