package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go.ngs.io/modisci/internal/adapter/export"
	"go.ngs.io/modisci/internal/domain"
	"go.ngs.io/modisci/internal/usecase"
)

// gridFlags are the target grid options shared by mosaic and ci.
type gridFlags struct {
	bbox       string
	size       string
	crs        string
	resampling string
	out        string
}

func (f *gridFlags) register(cmd *cobra.Command, withResampling bool) {
	cmd.Flags().StringVar(&f.bbox, "bbox", "", "Target extent minx,miny,maxx,maxy in --crs units")
	cmd.Flags().StringVar(&f.size, "size", "", "Target size WIDTHxHEIGHT in pixels")
	cmd.Flags().StringVar(&f.crs, "crs", "EPSG:4326", "Target CRS (EPSG:code, PROJ string or WKT)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output file (.tif or .nc)")
	if withResampling {
		cmd.Flags().StringVarP(&f.resampling, "resampling", "r", "nearest", "Resampling method")
	}
	_ = cmd.MarkFlagRequired("bbox")
	_ = cmd.MarkFlagRequired("size")
	_ = cmd.MarkFlagRequired("out")
}

func (f *gridFlags) grid() (domain.Grid, error) {
	bbox, err := domain.ParseBBox(f.bbox)
	if err != nil {
		return domain.Grid{}, err
	}
	width, height, err := domain.ParseSize(f.size)
	if err != nil {
		return domain.Grid{}, err
	}
	return bbox.Grid(width, height, f.crs)
}

// run loads the named source onto the target grid and writes the result.
func (f *gridFlags) run(cmd *cobra.Command, source string) error {
	if _, err := export.FormatFromPath(f.out); err != nil {
		return err
	}
	grid, err := f.grid()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, source == usecase.SourceRemote)
	if err != nil {
		return err
	}
	_, load, err := a.sources.Lookup(source)
	if err != nil {
		return err
	}

	start := time.Now()
	raster, err := load(cmd.Context(), grid, f.resampling)
	if err != nil {
		return err
	}
	if err := export.Write(f.out, raster); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"grid":    grid.String(),
		"nodata":  humanize.Comma(int64(raster.NaNCount())),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Infof("wrote %s", f.out)
	return nil
}

var mosaicFlags gridFlags

var mosaicCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "Mosaic local sinusoidal tiles onto a target grid",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mosaicFlags.run(cmd, usecase.SourceTiles)
	},
}

var ciFlags gridFlags

var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "Read the global archive product onto a target grid",
	Long: `Downloads the global clumping-index GeoTIFF on first use, then warps it
onto the target grid and scales samples by 1/255. Pixels outside the product
are filled with 20/255.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return ciFlags.run(cmd, usecase.SourceRemote)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the global archive product into the cache directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cfg, true)
		if err != nil {
			return err
		}
		path, err := a.fetcher.Download(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var tilesBBox string

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "List the sinusoidal tiles covering a longitude/latitude box",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bbox, err := domain.ParseBBox(tilesBBox)
		if err != nil {
			return err
		}
		grid, err := bbox.Grid(1, 1, "EPSG:4326")
		if err != nil {
			return err
		}

		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		ids, err := a.loader.Tiles(grid)
		if err != nil {
			return err
		}
		available, err := a.store.Available()
		if err != nil {
			log.WithError(err).Warn("cannot list local tiles")
		}
		present := make(map[string]bool, len(available))
		for _, id := range available {
			present[id] = true
		}

		for _, id := range ids {
			state := "missing"
			if present[id] {
				state = "present"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id, state, a.store.Path(id))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRun: func(*cobra.Command, []string) {},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "modisci version %s\n", version)
	},
}

func init() {
	mosaicFlags.register(mosaicCmd, false)
	ciFlags.register(ciCmd, true)
	tilesCmd.Flags().StringVar(&tilesBBox, "bbox", "", "Extent lon_min,lat_min,lon_max,lat_max")
	_ = tilesCmd.MarkFlagRequired("bbox")

	rootCmd.AddCommand(mosaicCmd, ciCmd, downloadCmd, tilesCmd, versionCmd)
}
