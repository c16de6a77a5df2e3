// Package export writes clumping-index rasters to GeoTIFF and NetCDF files.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.ngs.io/modisci/internal/adapter/gdal"
	"go.ngs.io/modisci/internal/domain"
)

// Output formats.
const (
	FormatGeoTIFF = "geotiff"
	FormatNetCDF  = "netcdf"
)

// DefaultVariable is the NetCDF variable holding clumping-index values.
const DefaultVariable = "clumping_index"

// FormatFromPath picks the output format from the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return FormatGeoTIFF, nil
	case ".nc", ".nc4":
		return FormatNetCDF, nil
	default:
		return "", fmt.Errorf("unsupported output extension %q (use .tif or .nc)", filepath.Ext(path))
	}
}

// Write stores raster at path in the format implied by its extension.
func Write(path string, raster *domain.Raster) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := raster.Grid.Validate(); err != nil {
		return err
	}

	switch format {
	case FormatNetCDF:
		return WriteNetCDF(path, raster, DefaultVariable)
	default:
		return WriteGeoTIFF(path, raster)
	}
}

// WriteGeoTIFF writes raster as a float32 GeoTIFF with NaN no-data.
func WriteGeoTIFF(path string, raster *domain.Raster) error {
	return gdal.WriteGeoTIFF(path, raster)
}
