package gdal

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"

	"go.ngs.io/modisci/internal/domain"
)

// WriteGeoTIFF writes raster as a single-band float32 GeoTIFF with NaN no-data.
func WriteGeoTIFF(path string, raster *domain.Raster) error {
	Register()

	g := raster.Grid
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, g.Width, g.Height,
		godal.CreationOption("TILED=YES", "COMPRESS=DEFLATE"))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := writeDataset(ds, raster); err != nil {
		_ = ds.Close()
		return err
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func writeDataset(ds *godal.Dataset, raster *domain.Raster) error {
	g := raster.Grid
	if err := ds.SetGeoTransform(g.GeoTransform); err != nil {
		return fmt.Errorf("failed to set geotransform: %w", err)
	}

	sr, err := SpatialRef(g.CRS)
	if err != nil {
		return err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("failed to set spatial reference: %w", err)
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(math.NaN()); err != nil {
		return fmt.Errorf("failed to set nodata: %w", err)
	}
	if err := band.Write(0, 0, raster.Data, g.Width, g.Height); err != nil {
		return fmt.Errorf("failed to write band: %w", err)
	}
	return nil
}

// WriteByteGeoTIFF writes values as a single-band Byte GeoTIFF in the layout of
// the distributed clumping-index products. nodata is recorded when non-nil.
func WriteByteGeoTIFF(path string, grid domain.Grid, values []byte, nodata *float64) error {
	Register()

	if len(values) != grid.Size() {
		return fmt.Errorf("expected %d values for %s, got %d", grid.Size(), grid, len(values))
	}

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Byte, grid.Width, grid.Height)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := writeByteDataset(ds, grid, values, nodata); err != nil {
		_ = ds.Close()
		return err
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func writeByteDataset(ds *godal.Dataset, grid domain.Grid, values []byte, nodata *float64) error {
	if err := ds.SetGeoTransform(grid.GeoTransform); err != nil {
		return fmt.Errorf("failed to set geotransform: %w", err)
	}
	sr, err := SpatialRef(grid.CRS)
	if err != nil {
		return err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("failed to set spatial reference: %w", err)
	}

	band := ds.Bands()[0]
	if nodata != nil {
		if err := band.SetNoData(*nodata); err != nil {
			return fmt.Errorf("failed to set nodata: %w", err)
		}
	}
	if err := band.Write(0, 0, values, grid.Width, grid.Height); err != nil {
		return fmt.Errorf("failed to write band: %w", err)
	}
	return nil
}
