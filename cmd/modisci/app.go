package main

import (
	"fmt"

	"go.ngs.io/modisci/internal/adapter/archive"
	"go.ngs.io/modisci/internal/adapter/gdal"
	"go.ngs.io/modisci/internal/adapter/modland"
	"go.ngs.io/modisci/internal/adapter/store/tiles"
	"go.ngs.io/modisci/internal/config"
	"go.ngs.io/modisci/internal/usecase"
)

// app holds the components built from the configuration.
type app struct {
	store   *tiles.LocalStore
	loader  *usecase.MosaicLoader
	fetcher *archive.Fetcher
	sources usecase.Sources
}

// newApp builds the tile mosaic components. The archive fetcher, and with it
// the netrc lookup, is only built when withArchive is set.
func newApp(cfg *config.Config, withArchive bool) (*app, error) {
	reader := gdal.NewReader()
	store := tiles.NewLocalStore(cfg.Tiles.Dir, reader)
	loader := usecase.NewMosaicLoader(reader, modland.NewIndex(), store)

	a := &app{
		store:   store,
		loader:  loader,
		sources: usecase.Sources{usecase.SourceTiles: loader.LoadClumpingIndex},
	}
	if !withArchive {
		return a, nil
	}

	opts := cfg.ArchiveOptions()
	opts.Reader = reader
	fetcher, err := archive.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive fetcher: %w", err)
	}
	a.fetcher = fetcher
	a.sources[usecase.SourceRemote] = fetcher.CI
	return a, nil
}
