package export

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/modisci/internal/adapter/gdal"
	"go.ngs.io/modisci/internal/domain"
)

// WriteNetCDF writes raster as a NetCDF-4 file with one float32 variable on
// pixel-centre axes. Geographic grids get lat/lon axes, projected grids y/x.
func WriteNetCDF(path string, raster *domain.Raster, varName string) error {
	g := raster.Grid
	if err := g.Validate(); err != nil {
		return err
	}
	if len(raster.Data) != g.Size() {
		return fmt.Errorf("%w: %d samples for %s", domain.ErrInvalidGrid, len(raster.Data), g)
	}
	if varName == "" {
		varName = DefaultVariable
	}

	geographic, wkt, err := gdal.DescribeCRS(g.CRS)
	if err != nil {
		return err
	}

	yName, xName := "y", "x"
	if geographic {
		yName, xName = "lat", "lon"
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = ds.Close() }()

	yDim, err := ds.AddDim(yName, uint64(g.Height))
	if err != nil {
		return fmt.Errorf("failed to add dimension %s: %w", yName, err)
	}
	xDim, err := ds.AddDim(xName, uint64(g.Width))
	if err != nil {
		return fmt.Errorf("failed to add dimension %s: %w", xName, err)
	}

	yVar, err := ds.AddVar(yName, netcdf.DOUBLE, []netcdf.Dim{yDim})
	if err != nil {
		return fmt.Errorf("failed to add variable %s: %w", yName, err)
	}
	xVar, err := ds.AddVar(xName, netcdf.DOUBLE, []netcdf.Dim{xDim})
	if err != nil {
		return fmt.Errorf("failed to add variable %s: %w", xName, err)
	}
	dataVar, err := ds.AddVar(varName, netcdf.FLOAT, []netcdf.Dim{yDim, xDim})
	if err != nil {
		return fmt.Errorf("failed to add variable %s: %w", varName, err)
	}

	if geographic {
		if err := writeText(yVar.Attr("units"), "degrees_north"); err != nil {
			return err
		}
		if err := writeText(xVar.Attr("units"), "degrees_east"); err != nil {
			return err
		}
	}
	if err := dataVar.Attr("_FillValue").WriteFloat32s([]float32{float32(math.NaN())}); err != nil {
		return fmt.Errorf("failed to write _FillValue: %w", err)
	}
	if err := writeText(dataVar.Attr("long_name"), "MODIS clumping index"); err != nil {
		return err
	}
	if err := writeText(ds.Attr("crs"), wkt); err != nil {
		return err
	}
	if err := ds.Attr("geotransform").WriteFloat64s(g.GeoTransform[:]); err != nil {
		return fmt.Errorf("failed to write geotransform: %w", err)
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("failed to leave define mode: %w", err)
	}

	ys := make([]float64, g.Height)
	for row := range ys {
		_, ys[row] = g.PixelCenter(row, 0)
	}
	xs := make([]float64, g.Width)
	for col := range xs {
		xs[col], _ = g.PixelCenter(0, col)
	}

	if err := yVar.WriteFloat64s(ys); err != nil {
		return fmt.Errorf("failed to write %s: %w", yName, err)
	}
	if err := xVar.WriteFloat64s(xs); err != nil {
		return fmt.Errorf("failed to write %s: %w", xName, err)
	}
	if err := dataVar.WriteFloat32s(raster.Data); err != nil {
		return fmt.Errorf("failed to write %s: %w", varName, err)
	}
	return nil
}

func writeText(a netcdf.Attr, value string) error {
	if err := a.WriteBytes([]byte(value)); err != nil {
		return fmt.Errorf("failed to write attribute %s: %w", a.Name(), err)
	}
	return nil
}
